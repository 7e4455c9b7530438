package collector

import (
	"context"

	"EntryRadar/pkg/model"
)

// SnapshotFetcher 市场快照获取接口
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) (*model.MarketSnapshot, error)
}
