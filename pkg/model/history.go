package model

import (
	"encoding/json"
	"time"
)

// HistoricalSignal 每日信号的持久化记录，只增不改，修正以新行写入。
type HistoricalSignal struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SignalDate           time.Time `gorm:"type:date;not null;index" json:"signal_date"`
	OverallScore         float64   `gorm:"not null" json:"overall_score"`
	SentimentScore       float64   `json:"sentiment_score"`
	CapitalFlowScore     float64   `json:"capital_flow_score"`
	TechnicalScore       float64   `json:"technical_score"`
	VolatilityScore      float64   `json:"volatility_score"`
	QualityScore         float64   `json:"quality_score"`
	RecommendationAction string    `gorm:"size:32" json:"recommendation_action"`
	PositionSize         float64   `json:"position_size"`
	VetoTriggered        bool      `gorm:"default:false" json:"veto_triggered"`
	VetoReasons          string    `gorm:"type:text" json:"veto_reasons"` // JSON数组
	CreatedAt            time.Time `json:"created_at"`
}

func (HistoricalSignal) TableName() string {
	return "historical_signals"
}

// NewHistoricalSignal 从评估结果构建持久化记录
func NewHistoricalSignal(result *SignalResult) *HistoricalSignal {
	reasons, _ := json.Marshal(result.VetoCheck.Reasons)
	return &HistoricalSignal{
		SignalDate:           result.Timestamp,
		OverallScore:         result.OverallScore,
		SentimentScore:       result.DimensionScores[DimMarketSentiment],
		CapitalFlowScore:     result.DimensionScores[DimCapitalFlow],
		TechnicalScore:       result.DimensionScores[DimTechnicalPattern],
		VolatilityScore:      result.DimensionScores[DimVolatilityRisk],
		QualityScore:         result.DimensionScores[DimStockQuality],
		RecommendationAction: result.Recommendation.Action,
		PositionSize:         result.Recommendation.PositionSize,
		VetoTriggered:        result.VetoCheck.Triggered,
		VetoReasons:          string(reasons),
	}
}

// ParseVetoReasons 还原否决原因列表
func (h *HistoricalSignal) ParseVetoReasons() []string {
	var reasons []string
	if h.VetoReasons != "" {
		_ = json.Unmarshal([]byte(h.VetoReasons), &reasons)
	}
	return reasons
}

// BacktestRecord 回测结果记录，外键关联信号行
type BacktestRecord struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SignalID       uint      `gorm:"not null;index" json:"signal_id"`
	EntryDate      time.Time `gorm:"type:date" json:"entry_date"`
	ExitDate       time.Time `gorm:"type:date" json:"exit_date"`
	HoldingDays    int       `json:"holding_days"`
	MarketReturn   float64   `json:"market_return"`
	SignalAccuracy float64   `json:"signal_accuracy"`
	WinRate        float64   `json:"win_rate"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`

	Signal HistoricalSignal `gorm:"foreignKey:SignalID" json:"signal,omitempty"`
}

func (BacktestRecord) TableName() string {
	return "backtest_results"
}
