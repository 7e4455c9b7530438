package engine

import (
	"EntryRadar/pkg/model"
)

// EstimateConfidence 估算信号的数据置信度：数据完整性与
// 维度一致性的均值。与建议档位置信度是两个独立量。
func EstimateConfidence(s *model.MarketSnapshot, scores model.DimensionScores) float64 {
	dataQuality := 0.5
	if s.HasOverview() {
		dataQuality = 1.0
	}

	consistency := 1.0 - variance(scores)/1000
	if consistency < 0 {
		consistency = 0
	}

	return (dataQuality + consistency) / 2
}

// variance 五维评分的总体方差
func variance(scores model.DimensionScores) float64 {
	if len(scores) == 0 {
		return 0
	}

	var sum float64
	for _, value := range scores {
		sum += value
	}
	mean := sum / float64(len(scores))

	var sq float64
	for _, value := range scores {
		diff := value - mean
		sq += diff * diff
	}
	return sq / float64(len(scores))
}
