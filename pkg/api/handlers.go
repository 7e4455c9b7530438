package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"EntryRadar/pkg/backtest"
	"EntryRadar/pkg/database"
	"EntryRadar/pkg/engine"
	"EntryRadar/pkg/logger"
	"EntryRadar/pkg/model"
)

// Handlers API处理程序
type Handlers struct {
	engine     *engine.DecisionEngine
	store      *database.Store
	aggregator *backtest.Aggregator
	cacheTTL   time.Duration
}

// NewHandlers 创建新的API处理程序
func NewHandlers(e *engine.DecisionEngine, store *database.Store, cacheTTL time.Duration) *Handlers {
	return &Handlers{
		engine:     e,
		store:      store,
		aggregator: backtest.NewAggregator(),
		cacheTTL:   cacheTTL,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GetEntrySignal 获取入场信号。save=true时同步持久化，
// 持久化失败不影响评估结果，单独用save_error字段报告。
func (h *Handlers) GetEntrySignal(c *gin.Context) {
	result := h.engine.Evaluate(c.Request.Context())

	response := gin.H{
		"success":   true,
		"data":      result,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	// 数据源不可用属于可恢复的分析失败，仍返回200
	if result.DataUnavailable {
		response["success"] = false
		response["error"] = "市场数据获取失败"
		c.JSON(http.StatusOK, response)
		return
	}

	if c.Query("save") == "true" {
		id, err := h.store.Signals().Save(result)
		if err != nil {
			logger.Error("保存信号失败", zap.Error(err))
			response["saved"] = false
			response["save_error"] = err.Error()
		} else {
			response["saved"] = true
			response["signal_id"] = id
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetConfig 获取引擎配置
func (h *Handlers) GetConfig(c *gin.Context) {
	veto := h.engine.VetoConfig()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config": gin.H{
			"weights": h.engine.Weights(),
			"veto_conditions": gin.H{
				"limit_down_ratio": veto.LimitDownRatio,
				"min_turnover":     veto.MinTurnover,
				"max_index_drop":   veto.MaxIndexDrop,
			},
			"cache_duration_seconds": int(h.cacheTTL.Seconds()),
		},
	})
}

// UpdateWeights 更新权重。校验失败返回400，原权重保持生效。
// 更新只影响当前进程，不跨重启持久化。
func (h *Handlers) UpdateWeights(c *gin.Context) {
	var weights engine.Weights
	if err := c.ShouldBindJSON(&weights); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "无效的请求参数: " + err.Error(),
		})
		return
	}

	if err := h.engine.UpdateWeights(weights); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"weights": h.engine.Weights(),
	})
}

// GetHistory 查询最近N天的历史信号
func (h *Handlers) GetHistory(c *gin.Context) {
	days := 30
	if param := c.Query("days"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "days参数必须为正整数",
			})
			return
		}
		days = parsed
	}

	signals, err := h.store.Signals().QueryRecent(days)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    signals,
		"count":   len(signals),
	})
}

// BacktestRequest 回测请求：统计窗口和逐信号的已实现收益
type BacktestRequest struct {
	Days    int                       `json:"days"`
	Returns []backtest.RealizedReturn `json:"returns" binding:"required"`
}

// RunBacktest 对最近的信号窗口执行回测并持久化结果
func (h *Handlers) RunBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "无效的请求参数: " + err.Error(),
		})
		return
	}
	if req.Days <= 0 {
		req.Days = 30
	}

	signals, err := h.store.Signals().QueryRecent(req.Days)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.aggregator.Aggregate(signals, req.Returns)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	records := buildBacktestRecords(signals, req.Returns, result)
	if err := h.store.Backtests().SaveAll(records); err != nil {
		logger.Error("保存回测结果失败", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"data":       result,
			"saved":      false,
			"save_error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
		"saved":   true,
		"report":  backtest.Render(result),
	})
}

// buildBacktestRecords 为每条信号生成一行回测结果
func buildBacktestRecords(signals []*model.HistoricalSignal, returns []backtest.RealizedReturn, result *backtest.Result) []*model.BacktestRecord {
	matched := make(map[uint]backtest.RealizedReturn, len(returns))
	for _, r := range returns {
		matched[r.SignalID] = r
	}

	records := make([]*model.BacktestRecord, 0, len(signals))
	for _, signal := range signals {
		realized := matched[signal.ID]
		records = append(records, &model.BacktestRecord{
			SignalID:       signal.ID,
			EntryDate:      realized.EntryDate,
			ExitDate:       realized.ExitDate,
			HoldingDays:    realized.HoldingDays,
			MarketReturn:   realized.MarketReturn,
			SignalAccuracy: result.Accuracy.OverallAccuracy,
			WinRate:        result.Accuracy.WinRate,
			MaxDrawdown:    result.Performance.MaxDrawdown,
			SharpeRatio:    result.Performance.SharpeRatio,
			Notes:          signal.RecommendationAction,
		})
	}
	return records
}
