package model

import "time"

// 五个评分维度的固定键
const (
	DimMarketSentiment  = "market_sentiment"
	DimCapitalFlow      = "capital_flow"
	DimTechnicalPattern = "technical_pattern"
	DimVolatilityRisk   = "volatility_risk"
	DimStockQuality     = "stock_quality"
)

// DimensionKeys 维度键的固定顺序
var DimensionKeys = []string{
	DimMarketSentiment,
	DimCapitalFlow,
	DimTechnicalPattern,
	DimVolatilityRisk,
	DimStockQuality,
}

// DimensionScores 五维评分，每项取值 [0,100]
type DimensionScores map[string]float64

// 建议操作
const (
	ActionAggressive  = "积极入场"
	ActionCautious    = "谨慎入场"
	ActionLightProbe  = "轻仓试探"
	ActionStandAside  = "观望"
	ActionStrongAvoid = "强烈观望"
	ActionDataAnomaly = "数据异常"
)

// VetoCheck 一票否决检查结果
type VetoCheck struct {
	Triggered bool     `json:"triggered"`
	Reasons   []string `json:"reasons"`
}

// Recommendation 入场建议
type Recommendation struct {
	Action       string  `json:"action"`
	Reason       string  `json:"reason"`
	PositionSize float64 `json:"position_size"` // 建议仓位 [0,1]
	Confidence   float64 `json:"confidence"`    // 档位置信度 [0,1]
}

// SignalResult 一次评估的完整输出。ConfidenceLevel 反映数据质量与
// 维度一致性，与 Recommendation.Confidence（档位置信度）并存，不可混用。
type SignalResult struct {
	Timestamp       time.Time       `json:"timestamp"`
	OverallScore    float64         `json:"overall_score"` // 保留一位小数
	DimensionScores DimensionScores `json:"dimension_scores"`
	VetoCheck       VetoCheck       `json:"veto_check"`
	Recommendation  Recommendation  `json:"recommendation"`
	MarketSummary   string          `json:"market_summary"`
	ConfidenceLevel float64         `json:"confidence_level"` // [0,1]
	// DataUnavailable 快照获取失败、本结果为中性默认值时为true
	DataUnavailable bool `json:"data_unavailable,omitempty"`
}
