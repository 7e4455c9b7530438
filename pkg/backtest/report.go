package backtest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Render 生成回测汇总的文本报告
func Render(result *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "========== 入场信号回测报告 ==========\n")
	fmt.Fprintf(&b, "报告编号: %s\n", uuid.New().String())
	fmt.Fprintf(&b, "统计区间: %s ~ %s，样本%d条\n",
		result.StartDate.Format("2006-01-02"),
		result.EndDate.Format("2006-01-02"),
		result.SampleSize)

	b.WriteString("\n【命中率】\n")
	fmt.Fprintf(&b, "  总体命中率: %.1f%%\n", result.Accuracy.OverallAccuracy*100)
	fmt.Fprintf(&b, "  看多命中率: %.1f%%  看空命中率: %.1f%%  中性命中率: %.1f%%\n",
		result.Accuracy.PositiveAccuracy*100,
		result.Accuracy.NegativeAccuracy*100,
		result.Accuracy.NeutralAccuracy*100)
	fmt.Fprintf(&b, "  胜率: %.1f%%  误报率: %.1f%%\n",
		result.Accuracy.WinRate*100,
		result.Accuracy.FalsePositiveRate*100)

	b.WriteString("\n【收益表现】\n")
	fmt.Fprintf(&b, "  策略收益: %+.2f%%  市场收益: %+.2f%%  超额收益: %+.2f%%\n",
		result.Performance.TotalReturn*100,
		result.Performance.MarketReturn*100,
		result.Performance.ExcessReturn*100)
	fmt.Fprintf(&b, "  夏普比率: %.2f  最大回撤: %.2f%%  平均持有: %.1f天\n",
		result.Performance.SharpeRatio,
		result.Performance.MaxDrawdown*100,
		result.Performance.AvgHoldingDays)

	b.WriteString("\n【信号分布】\n")
	fmt.Fprintf(&b, "  看多%d条  看空%d条  中性%d条  触发否决%d条\n",
		result.Distribution.Positive,
		result.Distribution.Negative,
		result.Distribution.Neutral,
		result.Distribution.VetoTriggered)

	b.WriteString("\n【风险指标】\n")
	fmt.Fprintf(&b, "  VaR(95%%): %.2f%%  VaR(99%%): %.2f%%\n",
		result.Risk.VaR95*100, result.Risk.VaR99*100)
	fmt.Fprintf(&b, "  下行偏差: %.4f  卡玛比率: %.2f  市场相关性: %.2f\n",
		result.Risk.DownsideDeviation,
		result.Risk.CalmarRatio,
		result.Risk.MarketCorrelation)

	b.WriteString("=====================================\n")
	return b.String()
}
