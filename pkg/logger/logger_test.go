package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	log, err := logger.New(logger.Config{Level: "debug", Encoding: "json", Path: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Debug("hello")
	log.Info("deposit applied")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"msg":"deposit applied"`)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := logger.New(logger.Config{Level: "loud"})
	assert.Error(t, err)

	_, err = logger.New(logger.Config{Level: "info", Encoding: "xml"})
	assert.Error(t, err)
}
