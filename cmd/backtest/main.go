package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"EntryRadar/pkg/backtest"
	"EntryRadar/pkg/config"
	"EntryRadar/pkg/database"
	"EntryRadar/pkg/logger"
)

func main() {
	days := flag.Int("days", 30, "统计窗口天数")
	returnsPath := flag.String("returns", "", "已实现收益JSON文件（必填）")
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		cfg = config.Default()
	}

	logger.Init(cfg.App.Env)
	defer logger.Sync()

	if *returnsPath == "" {
		logger.Fatal("必须通过 -returns 提供已实现收益文件，回测不合成收益数据")
	}

	returns, err := loadReturns(*returnsPath)
	if err != nil {
		logger.Fatal("读取已实现收益失败", zap.Error(err))
	}

	store, err := database.NewStore(cfg)
	if err != nil {
		logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer store.Close()

	signals, err := store.Signals().QueryRecent(*days)
	if err != nil {
		logger.Fatal("查询历史信号失败", zap.Error(err))
	}

	result, err := backtest.NewAggregator().Aggregate(signals, returns)
	if err != nil {
		logger.Fatal("回测聚合失败", zap.Error(err))
	}

	fmt.Print(backtest.Render(result))
}

// loadReturns 从JSON文件读取已实现收益列表
func loadReturns(path string) ([]backtest.RealizedReturn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	var returns []backtest.RealizedReturn
	if err := json.Unmarshal(data, &returns); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}
	return returns, nil
}
