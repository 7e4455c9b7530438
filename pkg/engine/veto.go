package engine

import (
	"fmt"

	"EntryRadar/pkg/model"
)

// VetoConfig 一票否决阈值。MaxIndexDrop 为负数（跌幅下限）。
type VetoConfig struct {
	LimitDownRatio float64
	MinTurnover    float64 // 绝对成交额（亿元），见配置中的说明
	MaxIndexDrop   float64
}

// DefaultVetoConfig 默认否决阈值
func DefaultVetoConfig() VetoConfig {
	return VetoConfig{
		LimitDownRatio: 0.05,
		MinTurnover:    5000,
		MaxIndexDrop:   -3.0,
	}
}

// EvaluateVeto 对快照做三项独立的熔断检查，按检查顺序收集原因。
// 指数跌幅检查按代码排序遍历，命中第一个即停止。
func EvaluateVeto(s *model.MarketSnapshot, cfg VetoConfig) model.VetoCheck {
	check := model.VetoCheck{Reasons: []string{}}

	if s.HasOverview() {
		ratio := float64(s.Overview.LimitDownStocks) / float64(s.Overview.TotalStocks)
		if ratio > cfg.LimitDownRatio {
			check.Triggered = true
			check.Reasons = append(check.Reasons,
				fmt.Sprintf("跌停家数占比过高: %.1f%%", ratio*100))
		}
	}

	if s.Overview != nil && s.Overview.TotalTurnover > 0 && s.Overview.TotalTurnover < cfg.MinTurnover {
		check.Triggered = true
		check.Reasons = append(check.Reasons,
			fmt.Sprintf("成交额严重萎缩: %.0f亿", s.Overview.TotalTurnover))
	}

	for _, key := range sortedIndexKeys(s.Indices) {
		quote := s.Indices[key]
		if quote.ChangePercent < cfg.MaxIndexDrop {
			check.Triggered = true
			name := quote.Name
			if name == "" {
				name = key
			}
			check.Reasons = append(check.Reasons,
				fmt.Sprintf("%s跌幅过大: %.2f%%", name, quote.ChangePercent))
			break
		}
	}

	return check
}
