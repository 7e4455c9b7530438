package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"EntryRadar/pkg/collector"
	"EntryRadar/pkg/config"
	"EntryRadar/pkg/logger"
	"EntryRadar/pkg/model"
)

// DecisionEngine 多维入场信号决策引擎。每次Evaluate都是无状态的
// 同步计算，唯一的共享可变状态是快照缓存和权重快照。
type DecisionEngine struct {
	fetcher collector.SnapshotFetcher
	cache   *collector.SnapshotCache
	vetoCfg VetoConfig

	// 权重以不可变快照整体换入换出，并发评估不会读到半更新的向量
	weights atomic.Pointer[Weights]
}

// NewDecisionEngine 创建决策引擎。配置中的权重不合法时回退默认值。
func NewDecisionEngine(fetcher collector.SnapshotFetcher, cfg *config.Config) *DecisionEngine {
	e := &DecisionEngine{
		fetcher: fetcher,
		cache:   collector.NewSnapshotCache(cfg.Engine.CacheTTL),
		vetoCfg: VetoConfig{
			LimitDownRatio: cfg.Engine.Veto.LimitDownRatio,
			MinTurnover:    cfg.Engine.Veto.MinTurnover,
			MaxIndexDrop:   cfg.Engine.Veto.MaxIndexDrop,
		},
	}

	weights := DefaultWeights()
	if len(cfg.Engine.Weights) > 0 {
		configured := Weights(cfg.Engine.Weights).Clone()
		if err := configured.Validate(); err != nil {
			logger.Warn("配置中的权重不合法，使用默认权重", zap.Error(err))
		} else {
			weights = configured
		}
	}
	e.weights.Store(&weights)

	return e
}

// Evaluate 执行一次完整评估：取快照（带缓存）、五维评分、否决检查、
// 加权聚合、建议映射。快照获取失败返回"数据异常"的中性默认结果。
func (e *DecisionEngine) Evaluate(ctx context.Context) *model.SignalResult {
	snapshot, err := e.cache.GetOrFetch(ctx, collector.SnapshotKey, e.fetcher.FetchSnapshot)
	if err != nil {
		logger.Error("获取市场快照失败", zap.Error(err))
		return unavailableResult()
	}

	// 评分与否决检查针对同一份快照实例，期间不会重新获取
	scores := ScoreDimensions(snapshot)
	veto := EvaluateVeto(snapshot, e.vetoCfg)

	weights := e.Weights()
	overall := round1(WeightedScore(scores, weights))

	result := &model.SignalResult{
		Timestamp:       time.Now(),
		OverallScore:    overall,
		DimensionScores: scores,
		VetoCheck:       veto,
		Recommendation:  MapRecommendation(overall, veto),
		MarketSummary:   summarize(snapshot),
		ConfidenceLevel: EstimateConfidence(snapshot, scores),
	}

	logger.Info("入场信号评估完成",
		zap.Float64("overall_score", result.OverallScore),
		zap.String("action", result.Recommendation.Action),
		zap.Bool("veto", veto.Triggered))

	return result
}

// Weights 当前生效的权重快照
func (e *DecisionEngine) Weights() Weights {
	return *e.weights.Load()
}

// UpdateWeights 校验并原子替换权重。校验失败时现有权重保持不变。
func (e *DecisionEngine) UpdateWeights(weights Weights) error {
	candidate := weights.Clone()
	if err := candidate.Validate(); err != nil {
		return err
	}

	e.weights.Store(&candidate)
	logger.Info("权重已更新", zap.Any("weights", candidate))
	return nil
}

// VetoConfig 当前否决阈值
func (e *DecisionEngine) VetoConfig() VetoConfig {
	return e.vetoCfg
}

// InvalidateCache 作废快照缓存，下次评估强制回源
func (e *DecisionEngine) InvalidateCache() {
	e.cache.Invalidate(collector.SnapshotKey)
}

// unavailableResult 数据不可用时的中性默认结果
func unavailableResult() *model.SignalResult {
	scores := model.DimensionScores{}
	for _, key := range model.DimensionKeys {
		scores[key] = NeutralScore
	}

	return &model.SignalResult{
		Timestamp:       time.Now(),
		OverallScore:    NeutralScore,
		DimensionScores: scores,
		VetoCheck:       model.VetoCheck{Reasons: []string{}},
		Recommendation: model.Recommendation{
			Action:       model.ActionDataAnomaly,
			Reason:       "市场数据获取失败，建议确认数据源后重试",
			PositionSize: 0,
			Confidence:   0,
		},
		MarketSummary:   "市场数据暂不可用",
		ConfidenceLevel: 0,
		DataUnavailable: true,
	}
}

// summarize 生成人类可读的市况摘要
func summarize(s *model.MarketSnapshot) string {
	var parts []string

	for _, key := range sortedIndexKeys(s.Indices) {
		quote := s.Indices[key]
		if quote.Name == "上证指数" {
			parts = append(parts, fmt.Sprintf("%s%.2f点(%+.2f%%)",
				quote.Name, quote.CurrentValue, quote.ChangePercent))
			break
		}
	}

	if s.HasOverview() {
		ov := s.Overview
		parts = append(parts, fmt.Sprintf("上涨%d家/下跌%d家", ov.UpStocks, ov.DownStocks))
		parts = append(parts, fmt.Sprintf("涨停%d家", ov.LimitUpStocks))
		if ov.TotalTurnover > 0 {
			parts = append(parts, fmt.Sprintf("两市成交%.0f亿", ov.TotalTurnover))
		}
		if ov.MarketSentiment != "" {
			parts = append(parts, "市场情绪"+ov.MarketSentiment)
		}
	} else if s.MarketStatus != "" {
		parts = append(parts, "大盘趋势"+s.MarketStatus)
	}

	if len(parts) == 0 {
		return "市场数据有限"
	}
	return strings.Join(parts, "，")
}

// round1 保留一位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
