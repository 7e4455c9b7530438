package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EntryRadar/pkg/config"
	"EntryRadar/pkg/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "radar_test.db")

	store, err := NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(date time.Time, score float64) *model.SignalResult {
	return &model.SignalResult{
		Timestamp:    date,
		OverallScore: score,
		DimensionScores: model.DimensionScores{
			model.DimMarketSentiment:  70,
			model.DimCapitalFlow:      65,
			model.DimTechnicalPattern: 60,
			model.DimVolatilityRisk:   80,
			model.DimStockQuality:     55,
		},
		VetoCheck: model.VetoCheck{Triggered: false},
		Recommendation: model.Recommendation{
			Action:       model.ActionCautious,
			PositionSize: 0.5,
			Confidence:   0.70,
		},
		ConfidenceLevel: 0.9,
	}
}

func TestSignalSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	signals := store.Signals()

	id, err := signals.Save(sampleResult(time.Now(), 66.5))
	require.NoError(t, err)
	assert.Greater(t, id, uint(0))

	row, err := signals.GetByID(id)
	require.NoError(t, err)
	assert.InDelta(t, 66.5, row.OverallScore, 1e-9)
	assert.Equal(t, model.ActionCautious, row.RecommendationAction)
	assert.InDelta(t, 0.5, row.PositionSize, 1e-9)
	assert.InDelta(t, 70, row.SentimentScore, 1e-9)
	assert.InDelta(t, 55, row.QualityScore, 1e-9)
	assert.False(t, row.VetoTriggered)

	count, err := signals.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSignalVetoReasonsRoundtrip(t *testing.T) {
	store := newTestStore(t)
	signals := store.Signals()

	result := sampleResult(time.Now(), 12.0)
	result.VetoCheck = model.VetoCheck{
		Triggered: true,
		Reasons:   []string{"跌停家数占比过高: 8.0%", "成交额严重萎缩: 4200亿"},
	}
	result.Recommendation.Action = model.ActionStrongAvoid

	id, err := signals.Save(result)
	require.NoError(t, err)

	row, err := signals.GetByID(id)
	require.NoError(t, err)
	assert.True(t, row.VetoTriggered)
	assert.Equal(t,
		[]string{"跌停家数占比过高: 8.0%", "成交额严重萎缩: 4200亿"},
		row.ParseVetoReasons())
}

func TestSignalQueryRecent(t *testing.T) {
	store := newTestStore(t)
	signals := store.Signals()

	now := time.Now()
	dates := []time.Time{
		now.AddDate(0, 0, -45), // 窗口之外
		now.AddDate(0, 0, -10),
		now.AddDate(0, 0, -1),
	}
	for i, d := range dates {
		_, err := signals.Save(sampleResult(d, float64(50+i)))
		require.NoError(t, err)
	}

	recent, err := signals.QueryRecent(30)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// 日期倒序
	assert.InDelta(t, 52, recent[0].OverallScore, 1e-9)
	assert.InDelta(t, 51, recent[1].OverallScore, 1e-9)
}

func TestBacktestSaveAllAndQuery(t *testing.T) {
	store := newTestStore(t)

	signalID, err := store.Signals().Save(sampleResult(time.Now(), 72.5))
	require.NoError(t, err)

	backtests := store.Backtests()
	require.NoError(t, backtests.SaveAll(nil)) // 空批次直接成功

	records := []*model.BacktestRecord{
		{
			SignalID:     signalID,
			EntryDate:    time.Now().AddDate(0, 0, -5),
			ExitDate:     time.Now(),
			HoldingDays:  5,
			MarketReturn: 0.032,
			WinRate:      1.0,
		},
	}
	require.NoError(t, backtests.SaveAll(records))

	got, err := backtests.GetBySignalID(signalID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.032, got[0].MarketReturn, 1e-9)
	assert.Equal(t, 5, got[0].HoldingDays)

	recent, err := backtests.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
