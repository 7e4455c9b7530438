package engine

import (
	"sort"
	"sync"

	"EntryRadar/pkg/model"
)

// NeutralScore 评分器软失败时的中性分
const NeutralScore = 50.0

// 情绪/趋势标签
const (
	LabelStrong      = "强势"
	LabelChoppy      = "震荡"
	LabelWeak        = "弱势"
	LabelBullish     = "上涨"
	LabelMildBullish = "震荡上涨"
	LabelMildBearish = "震荡下跌"
	LabelBearish     = "下跌"
)

// ScoreDimensions 并行计算五个维度的评分，每项取值 [0,100]。
// 各评分器相互独立，只读快照，无共享状态。
func ScoreDimensions(s *model.MarketSnapshot) model.DimensionScores {
	var sentiment, capital, technical, volatility, quality float64

	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); sentiment = scoreMarketSentiment(s) }()
	go func() { defer wg.Done(); capital = scoreCapitalFlow(s) }()
	go func() { defer wg.Done(); technical = scoreTechnicalPattern(s) }()
	go func() { defer wg.Done(); volatility = scoreVolatilityRisk(s) }()
	go func() { defer wg.Done(); quality = scoreStockQuality(s) }()
	wg.Wait()

	return model.DimensionScores{
		model.DimMarketSentiment:  sentiment,
		model.DimCapitalFlow:      capital,
		model.DimTechnicalPattern: technical,
		model.DimVolatilityRisk:   volatility,
		model.DimStockQuality:     quality,
	}
}

// scoreMarketSentiment 市场情绪评分。宽度数据可用时按涨跌家数、
// 涨停净数和情绪标签分档，缺失时退化为指数涨跌幅估算。
func scoreMarketSentiment(s *model.MarketSnapshot) (score float64) {
	defer recoverNeutral(&score)

	if !s.HasOverview() {
		return sentimentFromIndices(s)
	}

	ov := s.Overview
	total := 0.0

	upRatio := float64(ov.UpStocks) / float64(ov.TotalStocks)
	switch {
	case upRatio > 0.7:
		total += 40
	case upRatio > 0.6:
		total += 35
	case upRatio > 0.5:
		total += 25
	case upRatio > 0.4:
		total += 15
	}

	limitRatio := float64(ov.LimitUpStocks-ov.LimitDownStocks) / float64(ov.TotalStocks)
	switch {
	case limitRatio > 0.02:
		total += 30
	case limitRatio > 0.01:
		total += 20
	case limitRatio > 0:
		total += 10
	case limitRatio > -0.01:
		total += 5
	}

	switch ov.MarketSentiment {
	case LabelStrong:
		total += 30
	case LabelChoppy:
		total += 15
	}

	return clamp(total, 0, 100)
}

// sentimentFromIndices 宽度缺失时基于指数平均涨跌幅的估算
func sentimentFromIndices(s *model.MarketSnapshot) float64 {
	if len(s.Indices) == 0 {
		return NeutralScore
	}

	var sum float64
	for _, quote := range s.Indices {
		sum += quote.ChangePercent
	}
	avg := sum / float64(len(s.Indices))

	switch {
	case avg > 2.0:
		return 85
	case avg > 1.0:
		return 70
	case avg > 0.5:
		return 60
	case avg > 0:
		return 55
	case avg > -0.5:
		return 45
	case avg > -1.0:
		return 30
	case avg > -2.0:
		return 20
	default:
		return 10
	}
}

// scoreCapitalFlow 资金面评分：成交额、换手率、涨跌比。
// 宽度数据缺失时零值落入各项最低分档（合计20分）而非中性50，缺量视同地量。
func scoreCapitalFlow(s *model.MarketSnapshot) (score float64) {
	defer recoverNeutral(&score)

	var turnover, rate, ratio float64
	if s.Overview != nil {
		turnover = s.Overview.TotalTurnover
		rate = s.Overview.TurnoverRate
		ratio = s.Overview.UpDownRatio
	}

	total := 0.0

	switch {
	case turnover > 12000:
		total += 50
	case turnover > 10000:
		total += 40
	case turnover > 8000:
		total += 30
	case turnover > 6000:
		total += 20
	default:
		total += 10
	}

	switch {
	case rate > 2.0:
		total += 30
	case rate > 1.5:
		total += 25
	case rate > 1.0:
		total += 20
	case rate > 0.8:
		total += 15
	default:
		total += 5
	}

	switch {
	case ratio > 2.0:
		total += 20
	case ratio > 1.5:
		total += 15
	case ratio > 1.0:
		total += 10
	default:
		total += 5
	}

	return clamp(total, 0, 100)
}

// scoreTechnicalPattern 技术面评分：指数涨跌幅均值放大3倍（上限60）
// 加大盘趋势标签分档
func scoreTechnicalPattern(s *model.MarketSnapshot) (score float64) {
	defer recoverNeutral(&score)

	if len(s.Indices) == 0 && s.MarketStatus == "" {
		return NeutralScore
	}

	total := 0.0

	if len(s.Indices) > 0 {
		var sum float64
		for _, quote := range s.Indices {
			switch {
			case quote.ChangePercent > 2.0:
				sum += 20
			case quote.ChangePercent > 1.0:
				sum += 15
			case quote.ChangePercent > 0.5:
				sum += 10
			case quote.ChangePercent > -0.5:
				sum += 5
			}
		}
		avg := sum / float64(len(s.Indices))
		total += clamp(avg*3, 0, 60)
	}

	switch s.MarketStatus {
	case LabelBullish:
		total += 40
	case LabelMildBullish:
		total += 30
	case LabelChoppy:
		total += 20
	case LabelMildBearish:
		total += 10
	}

	return clamp(total, 0, 100)
}

// scoreVolatilityRisk 波动风险评分，分值越高越安全
func scoreVolatilityRisk(s *model.MarketSnapshot) (score float64) {
	defer recoverNeutral(&score)

	total := 0.0

	var limitRatio float64
	if s.HasOverview() {
		limitRatio = float64(s.Overview.LimitDownStocks) / float64(s.Overview.TotalStocks)
	}
	switch {
	case limitRatio > 0.03:
		// 跌停潮，不加分
	case limitRatio > 0.02:
		total += 10
	case limitRatio > 0.01:
		total += 20
	default:
		total += 40
	}

	worst := worstIndexDrop(s.Indices)
	switch {
	case worst < -4.0:
		// 指数重挫，不加分
	case worst < -3.0:
		total += 10
	case worst < -2.0:
		total += 20
	default:
		total += 30
	}

	var sentiment string
	if s.Overview != nil {
		sentiment = s.Overview.MarketSentiment
	}
	switch sentiment {
	case LabelWeak:
		// 弱势不加分
	case LabelChoppy:
		total += 15
	default:
		total += 30
	}

	return clamp(total, 0, 100)
}

// scoreStockQuality 个股质量评分：强势股占比、领涨板块数、涨停家数
func scoreStockQuality(s *model.MarketSnapshot) (score float64) {
	defer recoverNeutral(&score)

	total := 0.0

	switch strong := s.Sectors.StrongStockRatio; {
	case strong > 0.6:
		total += 50
	case strong > 0.5:
		total += 40
	case strong > 0.4:
		total += 30
	default:
		total += 15
	}

	switch sectors := len(s.Sectors.LeadingSectors); {
	case sectors >= 3:
		total += 30
	case sectors >= 2:
		total += 20
	case sectors >= 1:
		total += 10
	default:
		total += 5
	}

	var limitUp int
	if s.Overview != nil {
		limitUp = s.Overview.LimitUpStocks
	}
	switch {
	case limitUp > 50:
		total += 20
	case limitUp > 30:
		total += 15
	case limitUp > 15:
		total += 10
	default:
		total += 5
	}

	return clamp(total, 0, 100)
}

// worstIndexDrop 所有指数中最大的单日跌幅（无指数时为0）
func worstIndexDrop(indices map[string]model.IndexQuote) float64 {
	worst := 0.0
	for _, quote := range indices {
		if quote.ChangePercent < worst {
			worst = quote.ChangePercent
		}
	}
	return worst
}

// sortedIndexKeys 指数代码的确定性遍历顺序
func sortedIndexKeys(indices map[string]model.IndexQuote) []string {
	keys := make([]string, 0, len(indices))
	for key := range indices {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// recoverNeutral 单个评分器的软失败兜底：吞掉panic并返回中性分，
// 一个维度的坏数据不影响其余维度
func recoverNeutral(score *float64) {
	if r := recover(); r != nil {
		*score = NeutralScore
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
