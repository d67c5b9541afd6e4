package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
)

// LedgerEngine 帳本實作
type LedgerEngine string

const (
	// Level 0: 直接讀寫 MySQL
	EngineMySQL LedgerEngine = "mysql"
	// Level 1: 記憶體 + 帳戶鎖
	EngineMutex LedgerEngine = "mutex"
	// Level 2: 記憶體 + 單一寫入 goroutine
	EngineLMAX LedgerEngine = "lmax"
)

type (
	// Config 應用程式設定
	Config struct {
		Server Server        `yaml:"server"`
		Ledger Ledger        `yaml:"ledger"`
		MySQL  mysql.Config  `yaml:"mysql"`
		Logger logger.Config `yaml:"logger"`
	}

	// Server gRPC 伺服器設定
	Server struct {
		Address string `yaml:"address" env:"LEDGER_GRPC_ADDR" env-default:":50051"`
		// 是否註冊 gRPC reflection
		Reflection bool `yaml:"reflection" env:"LEDGER_GRPC_REFLECTION"`
	}

	// Ledger 帳本設定
	Ledger struct {
		Engine LedgerEngine `yaml:"engine" env:"LEDGER_ENGINE" env-default:"mutex"`
		// 帳戶數上限，0 代表不限制
		MaxAccounts int `yaml:"max_accounts" env:"LEDGER_MAX_ACCOUNTS"`
		// WAL 路徑，空字串代表不持久化 (僅記憶體引擎)
		WALPath string `yaml:"wal_path" env:"LEDGER_WAL_PATH"`
		// LMAX 輸送帶容量
		QueueSize int `yaml:"queue_size" env:"LEDGER_QUEUE_SIZE" env-default:"1000"`
		// 記憶體引擎啟動時是否從 MySQL 載入帳戶
		LoadFromMySQL bool `yaml:"load_from_mysql" env:"LEDGER_LOAD_FROM_MYSQL"`
	}
)

// Load 讀取設定
// 先解析 YAML 檔 (path 為空則略過)，再以環境變數覆寫並補上預設值
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 檢查設定是否合理
func (c *Config) Validate() error {
	switch c.Ledger.Engine {
	case EngineMySQL, EngineMutex, EngineLMAX:
	default:
		return fmt.Errorf("unknown ledger engine %q", c.Ledger.Engine)
	}
	if c.Ledger.MaxAccounts < 0 {
		return fmt.Errorf("ledger.max_accounts must not be negative: %d", c.Ledger.MaxAccounts)
	}
	if c.Ledger.Engine == EngineMySQL && c.Ledger.WALPath != "" {
		return fmt.Errorf("ledger.wal_path is not supported by the %s engine", EngineMySQL)
	}
	return nil
}

// NeedsMySQL 是否需要建立 MySQL 連線
func (c *Config) NeedsMySQL() bool {
	return c.Ledger.Engine == EngineMySQL || c.Ledger.LoadFromMySQL
}
