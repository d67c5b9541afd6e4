package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定義 Logger 的配置
type Config struct {
	// Log 等級: debug, info, warn, error
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	// 輸出格式: json 或 console
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"console"`
	// 檔案路徑，空字串代表只輸出到 stderr
	Path string `yaml:"path" env:"LOG_PATH"`
	// 檔案輪替設定
	MaxSizeMB  int `yaml:"max_size_mb" env-default:"100"`
	MaxBackups int `yaml:"max_backups" env-default:"3"`
	MaxAgeDays int `yaml:"max_age_days" env-default:"28"`
}

// New 建立 zap Logger
// 設定 Path 時同時寫入 stderr 與輪替檔案 (lumberjack)
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console", "":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("unknown log encoding %q", cfg.Encoding)
	}

	sink := zapcore.Lock(os.Stderr)
	if cfg.Path != "" {
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
