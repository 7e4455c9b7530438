package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	DataSources struct {
		AKShare struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"akshare"`
	} `yaml:"data_sources"`

	Engine struct {
		// 五维权重，和必须为 1.0±0.01
		Weights map[string]float64 `yaml:"weights"`
		Veto    struct {
			LimitDownRatio float64 `yaml:"limit_down_ratio"`
			// volume_drought_ratio 为历史遗留的比例阈值，当前检查
			// 使用 min_turnover 绝对值，该项暂不生效，待产品确认
			VolumeDroughtRatio float64 `yaml:"volume_drought_ratio"`
			MinTurnover        float64 `yaml:"min_turnover"`
			MaxIndexDrop       float64 `yaml:"max_index_drop"`
		} `yaml:"veto"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"engine"`

	Database struct {
		Driver   string `yaml:"driver"` // sqlite 或 postgres
		Path     string `yaml:"path"`   // sqlite 数据库文件
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	NATS struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"nats"`

	API struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"api"`

	Scheduler struct {
		// 每日信号任务的cron表达式（带秒字段）
		DailySpec string `yaml:"daily_spec"`
	} `yaml:"scheduler"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(&config)

	applyDefaults(&config)

	return &config, nil
}

// Default 返回内置默认配置（无配置文件时使用）
func Default() *Config {
	var config Config
	overrideFromEnv(&config)
	applyDefaults(&config)
	return &config
}

// applyDefaults 填充缺省值
func applyDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "entry-radar"
	}
	if config.App.Env == "" {
		config.App.Env = "dev"
	}
	if config.DataSources.AKShare.BaseURL == "" {
		config.DataSources.AKShare.BaseURL = "http://127.0.0.1:8080"
	}
	if config.DataSources.AKShare.Timeout <= 0 {
		config.DataSources.AKShare.Timeout = 10 * time.Second
	}
	if config.Engine.Veto.LimitDownRatio <= 0 {
		config.Engine.Veto.LimitDownRatio = 0.05
	}
	if config.Engine.Veto.VolumeDroughtRatio <= 0 {
		config.Engine.Veto.VolumeDroughtRatio = 0.3
	}
	if config.Engine.Veto.MinTurnover <= 0 {
		config.Engine.Veto.MinTurnover = 5000
	}
	if config.Engine.Veto.MaxIndexDrop >= 0 {
		config.Engine.Veto.MaxIndexDrop = -3.0
	}
	if config.Engine.CacheTTL <= 0 {
		config.Engine.CacheTTL = 60 * time.Second
	}
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite"
	}
	if config.Database.Path == "" {
		config.Database.Path = "entry_signals.db"
	}
	if config.API.Port == "" {
		config.API.Port = "5009"
	}
	if config.Scheduler.DailySpec == "" {
		config.Scheduler.DailySpec = "0 5 15 * * 1-5"
	}
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	if env := os.Getenv("AKSHARE_BASE_URL"); env != "" {
		config.DataSources.AKShare.BaseURL = env
	}

	if env := os.Getenv("DB_DRIVER"); env != "" {
		config.Database.Driver = env
	}
	if env := os.Getenv("DB_PATH"); env != "" {
		config.Database.Path = env
	}
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		var port int
		fmt.Sscanf(env, "%d", &port)
		if port > 0 {
			config.Database.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.Postgres.DBName = env
	}

	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("NATS_CLIENT_ID"); env != "" {
		config.NATS.ClientID = env
	}

	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
