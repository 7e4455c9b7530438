package engine

import (
	"errors"
	"fmt"
	"math"

	"EntryRadar/pkg/model"
)

// ErrWeightSum 权重校验失败
var ErrWeightSum = errors.New("权重之和必须为1.0")

// 权重和允许的偏差
const weightSumTolerance = 0.01

// Weights 五维权重向量。校验只在配置更新时执行，
// 评估路径拿到的永远是一份校验过的不可变快照。
type Weights map[string]float64

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{
		model.DimMarketSentiment:  0.30,
		model.DimCapitalFlow:      0.25,
		model.DimTechnicalPattern: 0.20,
		model.DimVolatilityRisk:   0.15,
		model.DimStockQuality:     0.10,
	}
}

// Validate 校验权重向量：必须恰好覆盖五个维度，和为 1.0±0.01
func (w Weights) Validate() error {
	if len(w) != len(model.DimensionKeys) {
		return fmt.Errorf("权重必须包含全部%d个维度", len(model.DimensionKeys))
	}

	var sum float64
	for _, key := range model.DimensionKeys {
		value, ok := w[key]
		if !ok {
			return fmt.Errorf("缺少维度权重: %s", key)
		}
		if value < 0 || value > 1 {
			return fmt.Errorf("维度 %s 的权重越界: %v", key, value)
		}
		sum += value
	}

	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: 当前为%.4f", ErrWeightSum, sum)
	}
	return nil
}

// Clone 返回权重的独立副本
func (w Weights) Clone() Weights {
	copied := make(Weights, len(w))
	for key, value := range w {
		copied[key] = value
	}
	return copied
}

// WeightedScore 按权重聚合五维评分
func WeightedScore(scores model.DimensionScores, weights Weights) float64 {
	var total float64
	for _, key := range model.DimensionKeys {
		total += scores[key] * weights[key]
	}
	return total
}
