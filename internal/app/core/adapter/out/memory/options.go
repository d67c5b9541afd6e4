package memory

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// defaultQueueSize LMAX 輸送帶預設容量
const defaultQueueSize = 1000

// Option 記憶體帳本的配置選項
type Option func(*options)

type options struct {
	wal         *wal.WAL
	maxAccounts int
	queueSize   int
	logger      *zap.Logger
	now         func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		queueSize: defaultQueueSize,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWAL 啟用 Write-Ahead Log，建立時會先重放既有記錄
func WithWAL(w *wal.WAL) Option {
	return func(o *options) {
		o.wal = w
	}
}

// WithMaxAccounts 設定帳戶數上限，0 代表不限制
func WithMaxAccounts(n int) Option {
	return func(o *options) {
		o.maxAccounts = n
	}
}

// WithQueueSize 設定 LMAX 輸送帶容量 (MutexLedger 忽略此選項)
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithLogger 設定 Logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// withClock 測試用，固定建立時間
func withClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// replayWAL 依檔案順序重放 WAL，回傳最大的序號
// 只有建構函式呼叫，無需 Lock (單執行緒)
func replayWAL(w *wal.WAL, apply func(e *domain.Entry) error) (uint64, error) {
	if w == nil {
		return 0, nil
	}
	var lastSeq uint64
	err := w.Replay(func(raw json.RawMessage) error {
		var entry domain.Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		if err := apply(&entry); err != nil {
			return fmt.Errorf("entry %d (%s account %d): %w", entry.Sequence, entry.Type, entry.AccountID, err)
		}
		lastSeq = max(lastSeq, entry.Sequence)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("recover from wal: %w", err)
	}
	return lastSeq, nil
}

// journalError 將 WAL 錯誤包成 ErrWALWriteFailed
func journalError(op domain.Op, id int64, err error) error {
	return domain.NewOperationError(op, id, fmt.Errorf("%w: %w", domain.ErrWALWriteFailed, err))
}
