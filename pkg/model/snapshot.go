package model

import "time"

// IndexQuote 单个指数行情
type IndexQuote struct {
	Name          string  `json:"name"`
	CurrentValue  float64 `json:"current_value"`
	ChangePercent float64 `json:"change_percent"`
	Volume        float64 `json:"volume"`
	Turnover      float64 `json:"turnover"`
}

// MarketOverview 市场宽度统计（涨跌家数等）
type MarketOverview struct {
	UpStocks        int     `json:"up_stocks"`
	DownStocks      int     `json:"down_stocks"`
	TotalStocks     int     `json:"total_stocks"`
	LimitUpStocks   int     `json:"limit_up_stocks"`
	LimitDownStocks int     `json:"limit_down_stocks"`
	TotalTurnover   float64 `json:"total_turnover"` // 两市成交额（亿元）
	TurnoverRate    float64 `json:"turnover_rate"`
	UpDownRatio     float64 `json:"up_down_ratio"`
	MarketSentiment string  `json:"market_sentiment"` // 强势/震荡/弱势
}

// SectorPerformance 板块表现
type SectorPerformance struct {
	LeadingSectors   []string `json:"leading_sectors"`
	StrongStockRatio float64  `json:"strong_stock_ratio"`
}

// MarketSnapshot 一次评估消费的市场快照，构建后不再修改。
// 所有字段都可能缺失或为零值，评分器需要自行退化为中性值。
type MarketSnapshot struct {
	Indices      map[string]IndexQuote `json:"indices"`
	Overview     *MarketOverview       `json:"overview,omitempty"`
	MarketStatus string                `json:"market_status"` // 上涨/震荡上涨/震荡/震荡下跌/下跌
	Sectors      SectorPerformance     `json:"sector_performance"`
	FetchedAt    time.Time             `json:"fetched_at"`
}

// HasOverview 宽度数据是否可用
func (s *MarketSnapshot) HasOverview() bool {
	return s.Overview != nil && s.Overview.TotalStocks > 0
}
