package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"EntryRadar/pkg/database"
	"EntryRadar/pkg/engine"
	"EntryRadar/pkg/logger"
	"EntryRadar/pkg/messaging"
)

// Scheduler 每日信号任务调度器
type Scheduler struct {
	cron      *cron.Cron
	engine    *engine.DecisionEngine
	store     *database.Store
	publisher *messaging.SignalPublisher // 可为nil（未配置NATS）
	dailySpec string
}

// NewScheduler 创建任务调度器
func NewScheduler(e *engine.DecisionEngine, store *database.Store, publisher *messaging.SignalPublisher, dailySpec string) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		engine:    e,
		store:     store,
		publisher: publisher,
		dailySpec: dailySpec,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	// 交易日收盘后生成并持久化当日信号
	if _, err := s.cron.AddFunc(s.dailySpec, s.runDailySignal); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("调度器已启动", zap.String("daily_spec", s.dailySpec))
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Info("调度器已停止")
}

// runDailySignal 执行一次每日信号任务：评估、入库、发布
func (s *Scheduler) runDailySignal() {
	logger.Info("开始生成每日入场信号...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 收盘信号必须基于收盘后的快照，不复用盘中缓存
	s.engine.InvalidateCache()
	result := s.engine.Evaluate(ctx)

	id, err := s.store.Signals().Save(result)
	if err != nil {
		logger.Error("保存每日信号失败", zap.Error(err))
		return
	}
	logger.Info("每日信号已入库",
		zap.Uint("signal_id", id),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("action", result.Recommendation.Action))

	if s.publisher != nil {
		if err := s.publisher.PublishSignal(result); err != nil {
			logger.Error("发布每日信号失败", zap.Error(err))
		}
	}
}
