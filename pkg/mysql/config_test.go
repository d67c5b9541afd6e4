package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{
		Host:     "db.internal",
		Port:     3307,
		User:     "ledger",
		Password: "s3cret",
		DBName:   "bank",
	}
	assert.Equal(t,
		"ledger:s3cret@tcp(db.internal:3307)/bank?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DSN(),
	)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"info":    logger.Info,
		"warn":    logger.Warn,
		"error":   logger.Error,
		"silent":  logger.Silent,
		"verbose": logger.Error,
		"":        logger.Error,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}
