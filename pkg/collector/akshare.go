package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"EntryRadar/pkg/logger"
	"EntryRadar/pkg/model"
)

// 跟踪的主要指数
var trackedIndices = map[string]string{
	"000001": "上证指数",
	"399001": "深证成指",
	"399006": "创业板指",
}

// AKShareAdapter AKShare数据桥适配器，把指数行情、市场宽度和
// 板块数据拼装成一份MarketSnapshot
type AKShareAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewAKShareAdapter 创建AKShare适配器
func NewAKShareAdapter(baseURL string, timeout time.Duration) *AKShareAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AKShareAdapter{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchSnapshot 获取市场快照。指数数据为必需项，获取失败直接报错；
// 宽度和板块数据缺失时退化为空，由评分器按中性处理。
func (a *AKShareAdapter) FetchSnapshot(ctx context.Context) (*model.MarketSnapshot, error) {
	indices, err := a.fetchIndices(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取指数行情失败: %w", err)
	}

	snapshot := &model.MarketSnapshot{
		Indices:   indices,
		FetchedAt: time.Now(),
	}

	overview, strongRatio, err := a.fetchBreadth(ctx)
	if err != nil {
		logger.Warn("获取市场宽度数据失败，评分按中性退化", zap.Error(err))
	} else {
		snapshot.Overview = overview
		snapshot.Sectors.StrongStockRatio = strongRatio
	}

	sectors, err := a.fetchLeadingSectors(ctx)
	if err != nil {
		logger.Warn("获取板块数据失败", zap.Error(err))
	} else {
		snapshot.Sectors.LeadingSectors = sectors
	}

	snapshot.MarketStatus = deriveMarketStatus(indices)

	return snapshot, nil
}

// fetchIndices 获取主要指数实时行情
func (a *AKShareAdapter) fetchIndices(ctx context.Context) (map[string]model.IndexQuote, error) {
	rows, err := a.getJSON(ctx, "/api/public/stock_zh_index_spot_em")
	if err != nil {
		return nil, err
	}

	indices := make(map[string]model.IndexQuote)
	for _, row := range rows {
		code, _ := row["代码"].(string)
		name, ok := trackedIndices[code]
		if !ok {
			continue
		}
		indices[code] = model.IndexQuote{
			Name:          name,
			CurrentValue:  toFloat64(row["最新价"]),
			ChangePercent: toFloat64(row["涨跌幅"]),
			Volume:        toFloat64(row["成交量"]),
			Turnover:      toFloat64(row["成交额"]),
		}
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("指数行情响应为空")
	}
	return indices, nil
}

// fetchBreadth 从全市场快照统计涨跌家数、涨停跌停和成交额
func (a *AKShareAdapter) fetchBreadth(ctx context.Context) (*model.MarketOverview, float64, error) {
	rows, err := a.getJSON(ctx, "/api/public/stock_zh_a_spot_em")
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("全市场快照响应为空")
	}

	overview := &model.MarketOverview{}
	var totalTurnover, turnoverRateSum float64
	var strongCount int

	for _, row := range rows {
		change := toFloat64(row["涨跌幅"])
		overview.TotalStocks++
		switch {
		case change > 0:
			overview.UpStocks++
		case change < 0:
			overview.DownStocks++
		}
		if change >= 9.9 {
			overview.LimitUpStocks++
		}
		if change <= -9.9 {
			overview.LimitDownStocks++
		}
		if change > 3.0 {
			strongCount++
		}
		totalTurnover += toFloat64(row["成交额"])
		turnoverRateSum += toFloat64(row["换手率"])
	}

	// 成交额换算为亿元
	overview.TotalTurnover = totalTurnover / 1e8
	overview.TurnoverRate = turnoverRateSum / float64(overview.TotalStocks)
	if overview.DownStocks > 0 {
		overview.UpDownRatio = float64(overview.UpStocks) / float64(overview.DownStocks)
	}
	overview.MarketSentiment = deriveSentimentLabel(overview)

	strongRatio := float64(strongCount) / float64(overview.TotalStocks)
	return overview, strongRatio, nil
}

// fetchLeadingSectors 获取领涨板块（涨幅前三且为正）
func (a *AKShareAdapter) fetchLeadingSectors(ctx context.Context) ([]string, error) {
	rows, err := a.getJSON(ctx, "/api/public/stock_board_industry_name_em")
	if err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		return toFloat64(rows[i]["涨跌幅"]) > toFloat64(rows[j]["涨跌幅"])
	})

	var leading []string
	for _, row := range rows {
		if toFloat64(row["涨跌幅"]) <= 0 {
			break
		}
		if name, ok := row["板块名称"].(string); ok {
			leading = append(leading, name)
		}
		if len(leading) >= 3 {
			break
		}
	}
	return leading, nil
}

// getJSON 请求AKShare桥接口并解析为行列表
func (a *AKShareAdapter) getJSON(ctx context.Context, path string) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("执行HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API返回非200状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return rows, nil
}

// deriveMarketStatus 根据指数平均涨跌幅推断大盘趋势标签
func deriveMarketStatus(indices map[string]model.IndexQuote) string {
	if len(indices) == 0 {
		return "震荡"
	}

	var sum float64
	for _, quote := range indices {
		sum += quote.ChangePercent
	}
	avg := sum / float64(len(indices))

	switch {
	case avg > 1.0:
		return "上涨"
	case avg > 0.3:
		return "震荡上涨"
	case avg > -0.3:
		return "震荡"
	case avg > -1.0:
		return "震荡下跌"
	default:
		return "下跌"
	}
}

// deriveSentimentLabel 根据上涨家数占比推断情绪标签
func deriveSentimentLabel(overview *model.MarketOverview) string {
	if overview.TotalStocks == 0 {
		return "震荡"
	}
	ratio := float64(overview.UpStocks) / float64(overview.TotalStocks)
	switch {
	case ratio > 0.65:
		return "强势"
	case ratio > 0.45:
		return "震荡"
	default:
		return "弱势"
	}
}

// toFloat64 宽松地把接口值转换为float64
func toFloat64(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case json.Number:
		f, _ := value.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(value, 64)
		return f
	default:
		return 0
	}
}
