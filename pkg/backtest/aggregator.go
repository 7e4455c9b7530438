package backtest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"EntryRadar/pkg/model"
)

// ErrNoSignals 回测窗口内没有信号
var ErrNoSignals = errors.New("没有可回测的信号")

// ErrNoRealizedReturns 信号缺少匹配的已实现收益。
// 已实现收益是回测的硬性前置条件，缺失时不做任何估算或合成。
var ErrNoRealizedReturns = errors.New("缺少已实现收益数据")

// 无风险收益率（年化），夏普计算用
const riskFreeRate = 0.03

// 信号分类阈值：评分≥60为看多，<40为看空，其余中性
const (
	positiveThreshold = 60.0
	negativeThreshold = 40.0
	// 中性信号的容忍区间：持有期收益绝对值不超过1%视为判断正确
	neutralBand = 0.01
)

// RealizedReturn 一条信号对应的已实现前向收益
type RealizedReturn struct {
	SignalID     uint      `json:"signal_id"`
	EntryDate    time.Time `json:"entry_date"`
	ExitDate     time.Time `json:"exit_date"`
	HoldingDays  int       `json:"holding_days"`
	MarketReturn float64   `json:"market_return"` // 持有期市场收益率（小数）
}

// AccuracyStats 命中率统计
type AccuracyStats struct {
	OverallAccuracy   float64 `json:"overall_accuracy"`
	PositiveAccuracy  float64 `json:"positive_accuracy"`
	NegativeAccuracy  float64 `json:"negative_accuracy"`
	NeutralAccuracy   float64 `json:"neutral_accuracy"`
	WinRate           float64 `json:"win_rate"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
}

// PerformanceMetrics 收益指标
type PerformanceMetrics struct {
	TotalReturn    float64 `json:"total_return"`
	MarketReturn   float64 `json:"market_return"`
	ExcessReturn   float64 `json:"excess_return"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	AvgHoldingDays float64 `json:"avg_holding_days"`
}

// SignalDistribution 信号分布
type SignalDistribution struct {
	Positive      int `json:"positive"`
	Negative      int `json:"negative"`
	Neutral       int `json:"neutral"`
	VetoTriggered int `json:"veto_triggered"`
}

// RiskMetrics 风险指标
type RiskMetrics struct {
	VaR95             float64 `json:"var_95"`
	VaR99             float64 `json:"var_99"`
	DownsideDeviation float64 `json:"downside_deviation"`
	CalmarRatio       float64 `json:"calmar_ratio"`
	MarketCorrelation float64 `json:"market_correlation"`
}

// Result 回测汇总，随时可以从信号窗口重算，本身不是事实来源
type Result struct {
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
	SampleSize   int                `json:"sample_size"`
	Accuracy     AccuracyStats      `json:"accuracy"`
	Performance  PerformanceMetrics `json:"performance"`
	Distribution SignalDistribution `json:"distribution"`
	Risk         RiskMetrics        `json:"risk"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// Aggregator 信号回测聚合器
type Aggregator struct{}

// NewAggregator 创建回测聚合器
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate 对一个信号窗口和匹配的已实现收益计算四组统计。
// 每条信号都必须有对应的收益记录，否则整体报错。
func (a *Aggregator) Aggregate(signals []*model.HistoricalSignal, returns []RealizedReturn) (*Result, error) {
	if len(signals) == 0 {
		return nil, ErrNoSignals
	}

	matched := make(map[uint]RealizedReturn, len(returns))
	for _, r := range returns {
		matched[r.SignalID] = r
	}
	for _, signal := range signals {
		if _, ok := matched[signal.ID]; !ok {
			return nil, fmt.Errorf("%w: 信号id=%d", ErrNoRealizedReturns, signal.ID)
		}
	}

	result := &Result{
		SampleSize:  len(signals),
		GeneratedAt: time.Now(),
	}

	// 策略收益 = 建议仓位 × 市场收益
	strategyReturns := make([]float64, 0, len(signals))
	marketReturns := make([]float64, 0, len(signals))
	var totalHoldingDays int

	var correct, wins int
	var posCount, posCorrect, negCount, negCorrect, neuCount, neuCorrect int
	var falsePositives int

	for _, signal := range signals {
		realized := matched[signal.ID]

		if result.StartDate.IsZero() || signal.SignalDate.Before(result.StartDate) {
			result.StartDate = signal.SignalDate
		}
		if signal.SignalDate.After(result.EndDate) {
			result.EndDate = signal.SignalDate
		}

		strategyReturns = append(strategyReturns, signal.PositionSize*realized.MarketReturn)
		marketReturns = append(marketReturns, realized.MarketReturn)
		totalHoldingDays += realized.HoldingDays

		if signal.VetoTriggered {
			result.Distribution.VetoTriggered++
		}

		switch {
		case signal.OverallScore >= positiveThreshold:
			posCount++
			result.Distribution.Positive++
			if realized.MarketReturn > 0 {
				posCorrect++
				correct++
				wins++
			} else {
				falsePositives++
			}
		case signal.OverallScore < negativeThreshold:
			negCount++
			result.Distribution.Negative++
			if realized.MarketReturn < 0 {
				negCorrect++
				correct++
			}
		default:
			neuCount++
			result.Distribution.Neutral++
			if math.Abs(realized.MarketReturn) <= neutralBand {
				neuCorrect++
				correct++
			}
		}
	}

	result.Accuracy = AccuracyStats{
		OverallAccuracy:   ratio(correct, len(signals)),
		PositiveAccuracy:  ratio(posCorrect, posCount),
		NegativeAccuracy:  ratio(negCorrect, negCount),
		NeutralAccuracy:   ratio(neuCorrect, neuCount),
		WinRate:           ratio(wins, posCount),
		FalsePositiveRate: ratio(falsePositives, posCount),
	}

	avgHolding := float64(totalHoldingDays) / float64(len(signals))
	result.Performance = a.computePerformance(strategyReturns, marketReturns, totalHoldingDays, avgHolding)
	result.Risk = a.computeRisk(strategyReturns, marketReturns, result.Performance)

	return result, nil
}

// computePerformance 收益指标
func (a *Aggregator) computePerformance(strategy, market []float64, totalDays int, avgHolding float64) PerformanceMetrics {
	perf := PerformanceMetrics{
		TotalReturn:    compound(strategy),
		MarketReturn:   compound(market),
		AvgHoldingDays: avgHolding,
	}
	perf.ExcessReturn = perf.TotalReturn - perf.MarketReturn
	perf.MaxDrawdown = maxDrawdown(strategy)

	if totalDays > 0 && len(strategy) >= 2 {
		annualReturn := math.Pow(1.0+perf.TotalReturn, 252.0/float64(totalDays)) - 1.0
		periodsPerYear := 252.0 / avgHolding
		vol := stddev(strategy) * math.Sqrt(periodsPerYear)
		if vol > 0 {
			perf.SharpeRatio = (annualReturn - riskFreeRate) / vol
		}
	}

	return perf
}

// computeRisk 风险指标
func (a *Aggregator) computeRisk(strategy, market []float64, perf PerformanceMetrics) RiskMetrics {
	risk := RiskMetrics{
		VaR95:             valueAtRisk(strategy, 0.95),
		VaR99:             valueAtRisk(strategy, 0.99),
		DownsideDeviation: downsideDeviation(strategy),
		MarketCorrelation: correlation(strategy, market),
	}

	if perf.MaxDrawdown < 0 {
		annualReturn := perf.TotalReturn
		risk.CalmarRatio = annualReturn / math.Abs(perf.MaxDrawdown)
	}

	return risk
}

// compound 累计复合收益
func compound(returns []float64) float64 {
	cum := 1.0
	for _, r := range returns {
		cum *= 1.0 + r
	}
	return cum - 1.0
}

// maxDrawdown 按收益序列计算最大回撤（负数）
func maxDrawdown(returns []float64) float64 {
	cum := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range returns {
		cum *= 1.0 + r
		if cum > peak {
			peak = cum
		}
		dd := (cum - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// valueAtRisk 历史法VaR，返回给定置信度下的损失（正数）
func valueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor(float64(len(sorted)) * (1 - confidence)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	loss := -sorted[idx]
	if loss < 0 {
		return 0
	}
	return loss
}

// downsideDeviation 下行偏差（只计负收益）
func downsideDeviation(returns []float64) float64 {
	var sumSq float64
	var count int
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count))
}

// stddev 样本标准差
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		diff := v - mean
		sq += diff * diff
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

// correlation 皮尔逊相关系数
func correlation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// ratio 安全除法
func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
