package database

import (
	"fmt"

	"gorm.io/gorm"

	"EntryRadar/pkg/model"
)

// BacktestDB 回测结果子存储，与信号记录同样只增不改
type BacktestDB struct {
	store *Store
}

// SaveAll 在一个事务里写入一批回测结果行
func (b *BacktestDB) SaveAll(records []*model.BacktestRecord) error {
	if len(records) == 0 {
		return nil
	}

	b.store.writeMu.Lock()
	defer b.store.writeMu.Unlock()

	return b.store.db.Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("保存回测结果失败: %w", err)
			}
		}
		return nil
	})
}

// GetBySignalID 查询某条信号的全部回测结果
func (b *BacktestDB) GetBySignalID(signalID uint) ([]*model.BacktestRecord, error) {
	var records []*model.BacktestRecord
	err := b.store.db.
		Where("signal_id = ?", signalID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询回测结果失败: %w", err)
	}
	return records, nil
}

// Recent 最近的回测结果
func (b *BacktestDB) Recent(limit int) ([]*model.BacktestRecord, error) {
	var records []*model.BacktestRecord
	err := b.store.db.
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询回测结果失败: %w", err)
	}
	return records, nil
}
