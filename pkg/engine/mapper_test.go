package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"EntryRadar/pkg/model"
)

func TestMapRecommendationBands(t *testing.T) {
	tests := []struct {
		score        float64
		wantAction   string
		wantPosition float64
		wantConf     float64
	}{
		{80.0, model.ActionAggressive, 0.8, 0.85},
		{75.0, model.ActionAggressive, 0.8, 0.85},
		{74.9, model.ActionCautious, 0.5, 0.70},
		{60.0, model.ActionCautious, 0.5, 0.70},
		{59.9, model.ActionLightProbe, 0.2, 0.50},
		{40.0, model.ActionLightProbe, 0.2, 0.50},
		{39.9, model.ActionStandAside, 0, 0.80},
		{10.0, model.ActionStandAside, 0, 0.80},
	}

	noVeto := model.VetoCheck{}
	for _, tt := range tests {
		rec := MapRecommendation(tt.score, noVeto)
		assert.Equal(t, tt.wantAction, rec.Action, "score=%v", tt.score)
		assert.InDelta(t, tt.wantPosition, rec.PositionSize, 1e-9, "score=%v", tt.score)
		assert.InDelta(t, tt.wantConf, rec.Confidence, 1e-9, "score=%v", tt.score)
		assert.Contains(t, rec.Reason, "综合评分")
	}
}

func TestMapRecommendationVetoOverride(t *testing.T) {
	veto := model.VetoCheck{
		Triggered: true,
		Reasons:   []string{"跌停家数占比过高: 6.0%"},
	}

	// 否决优先于任何评分档位
	for _, score := range []float64{10, 50, 72.5, 95} {
		rec := MapRecommendation(score, veto)
		assert.Equal(t, model.ActionStrongAvoid, rec.Action)
		assert.InDelta(t, 0.0, rec.PositionSize, 1e-9)
		assert.InDelta(t, 0.9, rec.Confidence, 1e-9)
		assert.Contains(t, rec.Reason, "跌停家数占比过高")
	}
}
