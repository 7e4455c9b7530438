package engine

import (
	"fmt"
	"strings"

	"EntryRadar/pkg/model"
)

// MapRecommendation 把综合评分和否决结果映射到入场建议。
// 否决优先于所有评分档位：仓位归零，置信度固定0.9。
func MapRecommendation(score float64, veto model.VetoCheck) model.Recommendation {
	if veto.Triggered {
		return model.Recommendation{
			Action:       model.ActionStrongAvoid,
			Reason:       "触发一票否决: " + strings.Join(veto.Reasons, "；"),
			PositionSize: 0,
			Confidence:   0.9,
		}
	}

	switch {
	case score >= 75:
		return model.Recommendation{
			Action:       model.ActionAggressive,
			Reason:       fmt.Sprintf("综合评分%.1f，市场环境优越，可积极布局", score),
			PositionSize: 0.8,
			Confidence:   0.85,
		}
	case score >= 60:
		return model.Recommendation{
			Action:       model.ActionCautious,
			Reason:       fmt.Sprintf("综合评分%.1f，市场环境尚可，建议谨慎参与", score),
			PositionSize: 0.5,
			Confidence:   0.70,
		}
	case score >= 40:
		return model.Recommendation{
			Action:       model.ActionLightProbe,
			Reason:       fmt.Sprintf("综合评分%.1f，市场方向不明，仅轻仓试探", score),
			PositionSize: 0.2,
			Confidence:   0.50,
		}
	default:
		return model.Recommendation{
			Action:       model.ActionStandAside,
			Reason:       fmt.Sprintf("综合评分%.1f，市场环境偏弱，建议观望", score),
			PositionSize: 0,
			Confidence:   0.80,
		}
	}
}
