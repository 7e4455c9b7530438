package database

import (
	"fmt"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"EntryRadar/pkg/config"
	"EntryRadar/pkg/model"
)

// Store 信号存储。写操作统一经过单写锁串行化，
// sqlite下写写并发会直接报锁冲突。
type Store struct {
	db      *gorm.DB
	writeMu sync.Mutex
}

// NewStore 按配置打开数据库并执行增量迁移。
// 默认使用sqlite数据库文件，生产环境可切换postgres。
func NewStore(cfg *config.Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		pg := cfg.Database.Postgres
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(cfg.Database.Path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 增量迁移：只允许新增可空列，保证旧行可读
	if err := db.AutoMigrate(&model.HistoricalSignal{}, &model.BacktestRecord{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Signals 信号记录子存储
func (s *Store) Signals() *SignalDB {
	return &SignalDB{store: s}
}

// Backtests 回测结果子存储
func (s *Store) Backtests() *BacktestDB {
	return &BacktestDB{store: s}
}
