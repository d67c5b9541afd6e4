package mysql

import (
	"fmt"
	"time"
)

// Config 定義 MySQL 連線與連線池的配置
type Config struct {
	// 資料庫主機地址
	Host string `yaml:"host" env:"MYSQL_HOST" env-default:"127.0.0.1"`
	// 資料庫埠號
	Port int `yaml:"port" env:"MYSQL_PORT" env-default:"3306"`
	// 使用者名稱
	User string `yaml:"user" env:"MYSQL_USER"`
	// 密碼
	Password string `yaml:"password" env:"MYSQL_PASSWORD"`
	// 資料庫名稱
	DBName string `yaml:"dbname" env:"MYSQL_DBNAME" env-default:"ledger"`

	// 連線池設定 (Connection Pool)
	// 參考: https://github.com/go-sql-driver/mysql#important-settings
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"100"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`

	// 連線重試
	MaxRetries    int           `yaml:"max_retries" env-default:"10"`
	RetryInterval time.Duration `yaml:"retry_interval" env-default:"2s"`

	// GORM Log 等級: "silent", "error", "warn", "info"
	LogLevel string `yaml:"log_level" env:"MYSQL_LOG_LEVEL" env-default:"error"`
}

// DSN (Data Source Name) 產生連線字串
// 格式: user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
	)
}
