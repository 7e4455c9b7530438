package main

import (
	"os"

	"go.uber.org/zap"

	"EntryRadar/pkg/api"
	"EntryRadar/pkg/collector"
	"EntryRadar/pkg/config"
	"EntryRadar/pkg/database"
	"EntryRadar/pkg/engine"
	"EntryRadar/pkg/logger"
	"EntryRadar/pkg/messaging"
	"EntryRadar/pkg/scheduler"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		// 没有配置文件时按内置默认值运行
		cfg = config.Default()
	}

	logger.Init(cfg.App.Env)
	defer logger.Sync()
	logger.Info("启动入场信号服务...", zap.String("env", cfg.App.Env))

	// 连接数据库
	store, err := database.NewStore(cfg)
	if err != nil {
		logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer store.Close()

	// 市场快照数据源
	fetcher := collector.NewAKShareAdapter(
		cfg.DataSources.AKShare.BaseURL,
		cfg.DataSources.AKShare.Timeout,
	)

	// 决策引擎
	decisionEngine := engine.NewDecisionEngine(fetcher, cfg)

	// NATS信号发布（未配置时跳过）
	var publisher *messaging.SignalPublisher
	if cfg.NATS.URL != "" {
		publisher, err = messaging.NewSignalPublisher(cfg.NATS.URL, cfg.NATS.ClientID)
		if err != nil {
			logger.Warn("连接NATS失败，信号发布已禁用", zap.Error(err))
		} else {
			defer publisher.Close()
		}
	}

	// 每日信号任务
	sched := scheduler.NewScheduler(decisionEngine, store, publisher, cfg.Scheduler.DailySpec)
	if err := sched.Start(); err != nil {
		logger.Fatal("启动调度器失败", zap.Error(err))
	}
	defer sched.Stop()

	// API服务器（阻塞直到收到中断信号）
	handlers := api.NewHandlers(decisionEngine, store, cfg.Engine.CacheTTL)
	server := api.NewServer(cfg)
	server.SetupRoutes(handlers)
	server.Start()
}
