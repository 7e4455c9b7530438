package database

import (
	"fmt"
	"time"

	"EntryRadar/pkg/model"
)

// SignalDB 每日信号的只增存储，不提供更新和删除，修正以新行写入
type SignalDB struct {
	store *Store
}

// Save 写入一条信号记录并返回自增id
func (s *SignalDB) Save(result *model.SignalResult) (uint, error) {
	row := model.NewHistoricalSignal(result)

	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	if err := s.store.db.Create(row).Error; err != nil {
		return 0, fmt.Errorf("保存信号记录失败: %w", err)
	}
	return row.ID, nil
}

// QueryRecent 查询最近days天的信号，按日期倒序
func (s *SignalDB) QueryRecent(days int) ([]*model.HistoricalSignal, error) {
	since := time.Now().AddDate(0, 0, -days)

	var signals []*model.HistoricalSignal
	err := s.store.db.
		Where("signal_date >= ?", since).
		Order("signal_date DESC, id DESC").
		Find(&signals).Error
	if err != nil {
		return nil, fmt.Errorf("查询历史信号失败: %w", err)
	}
	return signals, nil
}

// GetByID 按id读取信号记录
func (s *SignalDB) GetByID(id uint) (*model.HistoricalSignal, error) {
	var signal model.HistoricalSignal
	if err := s.store.db.First(&signal, id).Error; err != nil {
		return nil, fmt.Errorf("读取信号记录失败: %w", err)
	}
	return &signal, nil
}

// Count 信号记录总数
func (s *SignalDB) Count() (int64, error) {
	var count int64
	err := s.store.db.Model(&model.HistoricalSignal{}).Count(&count).Error
	return count, err
}
