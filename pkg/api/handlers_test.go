package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EntryRadar/pkg/config"
	"EntryRadar/pkg/database"
	"EntryRadar/pkg/engine"
	"EntryRadar/pkg/model"
)

// stubFetcher 可编程的快照数据源
type stubFetcher struct {
	snapshot *model.MarketSnapshot
	err      error
}

func (s *stubFetcher) FetchSnapshot(ctx context.Context) (*model.MarketSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func healthySnapshot() *model.MarketSnapshot {
	return &model.MarketSnapshot{
		Indices: map[string]model.IndexQuote{
			"000001": {Name: "上证指数", CurrentValue: 3150.25, ChangePercent: 0.52},
			"399001": {Name: "深证成指", CurrentValue: 10200.10, ChangePercent: 0.80},
		},
		Overview: &model.MarketOverview{
			UpStocks:        2850,
			DownStocks:      2100,
			TotalStocks:     5000,
			LimitUpStocks:   45,
			LimitDownStocks: 8,
			TotalTurnover:   9800,
			TurnoverRate:    1.3,
			UpDownRatio:     1.36,
			MarketSentiment: "震荡",
		},
		MarketStatus: "震荡上涨",
		Sectors: model.SectorPerformance{
			LeadingSectors:   []string{"半导体", "券商"},
			StrongStockRatio: 0.45,
		},
	}
}

func newTestRouter(t *testing.T, fetcher *stubFetcher) (*gin.Engine, *database.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "api_test.db")

	store, err := database.NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e := engine.NewDecisionEngine(fetcher, cfg)
	handlers := NewHandlers(e, store, cfg.Engine.CacheTTL)

	router := gin.New()
	router.GET("/health", handlers.HealthCheck)
	api := router.Group("/api")
	api.GET("/entry-signal", handlers.GetEntrySignal)
	api.GET("/entry-signal/config", handlers.GetConfig)
	api.POST("/entry-signal/weights", handlers.UpdateWeights)
	api.GET("/entry-signal/history", handlers.GetHistory)
	api.POST("/entry-signal/backtest", handlers.RunBacktest)
	return router, store
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	w := doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestGetEntrySignal(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	w := doRequest(router, http.MethodGet, "/api/entry-signal", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	scores := data["dimension_scores"].(map[string]interface{})
	assert.Len(t, scores, 5)
	assert.NotEmpty(t, data["recommendation"].(map[string]interface{})["action"])
}

func TestGetEntrySignalDataAnomaly(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{err: errors.New("数据桥不可达")})

	w := doRequest(router, http.MethodGet, "/api/entry-signal", nil)
	// 数据源故障不是HTTP错误，返回200加失败标记
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "市场数据获取失败", body["error"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["data_unavailable"])
	rec := data["recommendation"].(map[string]interface{})
	assert.Equal(t, model.ActionDataAnomaly, rec["action"])
}

func TestGetEntrySignalSave(t *testing.T) {
	router, store := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	w := doRequest(router, http.MethodGet, "/api/entry-signal?save=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["saved"])
	assert.Greater(t, body["signal_id"].(float64), 0.0)

	count, err := store.Signals().Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetEntrySignalSaveFailure(t *testing.T) {
	router, store := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})
	require.NoError(t, store.Close())

	w := doRequest(router, http.MethodGet, "/api/entry-signal?save=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 入库失败不拖垮评估结果，单独用save_error报告
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["saved"])
	assert.NotEmpty(t, body["save_error"])

	data := body["data"].(map[string]interface{})
	assert.Len(t, data["dimension_scores"].(map[string]interface{}), 5)
}

func TestGetConfig(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	w := doRequest(router, http.MethodGet, "/api/entry-signal/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	cfg := decodeBody(t, w)["config"].(map[string]interface{})
	weights := cfg["weights"].(map[string]interface{})
	assert.InDelta(t, 0.30, weights[model.DimMarketSentiment].(float64), 1e-9)

	veto := cfg["veto_conditions"].(map[string]interface{})
	assert.InDelta(t, 0.05, veto["limit_down_ratio"].(float64), 1e-9)
	assert.InDelta(t, 5000.0, veto["min_turnover"].(float64), 1e-9)
	assert.InDelta(t, -3.0, veto["max_index_drop"].(float64), 1e-9)
	assert.InDelta(t, 60.0, cfg["cache_duration_seconds"].(float64), 1e-9)
}

func TestUpdateWeights(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	valid := map[string]float64{
		model.DimMarketSentiment:  0.20,
		model.DimCapitalFlow:      0.20,
		model.DimTechnicalPattern: 0.20,
		model.DimVolatilityRisk:   0.20,
		model.DimStockQuality:     0.20,
	}
	w := doRequest(router, http.MethodPost, "/api/entry-signal/weights", valid)
	require.Equal(t, http.StatusOK, w.Code)
	weights := decodeBody(t, w)["weights"].(map[string]interface{})
	assert.InDelta(t, 0.20, weights[model.DimMarketSentiment].(float64), 1e-9)
}

func TestUpdateWeightsInvalidSum(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	invalid := map[string]float64{
		model.DimMarketSentiment:  0.50,
		model.DimCapitalFlow:      0.30,
		model.DimTechnicalPattern: 0.20,
		model.DimVolatilityRisk:   0.15,
		model.DimStockQuality:     0.10,
	}
	w := doRequest(router, http.MethodPost, "/api/entry-signal/weights", invalid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])

	// 原权重保持生效
	w = doRequest(router, http.MethodGet, "/api/entry-signal/config", nil)
	cfg := decodeBody(t, w)["config"].(map[string]interface{})
	weights := cfg["weights"].(map[string]interface{})
	assert.InDelta(t, 0.30, weights[model.DimMarketSentiment].(float64), 1e-9)
}

func TestUpdateWeightsBadJSON(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	req := httptest.NewRequest(http.MethodPost, "/api/entry-signal/weights", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistory(t *testing.T) {
	router, store := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	result := &model.SignalResult{
		Timestamp:    time.Now().AddDate(0, 0, -2),
		OverallScore: 68.0,
		DimensionScores: model.DimensionScores{
			model.DimMarketSentiment: 70,
		},
		Recommendation: model.Recommendation{Action: model.ActionCautious, PositionSize: 0.5},
	}
	_, err := store.Signals().Save(result)
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/api/entry-signal/history?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.InDelta(t, 1.0, body["count"].(float64), 1e-9)
}

func TestGetHistoryBadDays(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	for _, query := range []string{"days=0", "days=-3", "days=abc"} {
		w := doRequest(router, http.MethodGet, "/api/entry-signal/history?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestRunBacktest(t *testing.T) {
	router, store := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	result := &model.SignalResult{
		Timestamp:       time.Now().AddDate(0, 0, -5),
		OverallScore:    75.0,
		DimensionScores: model.DimensionScores{},
		Recommendation:  model.Recommendation{Action: model.ActionAggressive, PositionSize: 0.8},
	}
	signalID, err := store.Signals().Save(result)
	require.NoError(t, err)

	req := map[string]interface{}{
		"days": 30,
		"returns": []map[string]interface{}{
			{
				"signal_id":     signalID,
				"holding_days":  5,
				"market_return": 0.04,
			},
		},
	}
	w := doRequest(router, http.MethodPost, "/api/entry-signal/backtest", req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["saved"])
	assert.NotEmpty(t, body["report"])

	records, err := store.Backtests().GetBySignalID(signalID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 0.04, records[0].MarketReturn, 1e-9)
}

func TestRunBacktestMissingReturns(t *testing.T) {
	router, store := newTestRouter(t, &stubFetcher{snapshot: healthySnapshot()})

	_, err := store.Signals().Save(&model.SignalResult{
		Timestamp:       time.Now(),
		OverallScore:    50,
		DimensionScores: model.DimensionScores{},
		Recommendation:  model.Recommendation{Action: model.ActionStandAside},
	})
	require.NoError(t, err)

	// returns 为必填字段
	w := doRequest(router, http.MethodPost, "/api/entry-signal/backtest", map[string]interface{}{"days": 30})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 收益与信号不匹配时报错但不是HTTP错误
	w = doRequest(router, http.MethodPost, "/api/entry-signal/backtest", map[string]interface{}{
		"days":    30,
		"returns": []map[string]interface{}{{"signal_id": 99999, "market_return": 0.01}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])
}
