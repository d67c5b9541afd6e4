package usecase

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// Ledger 是帳務系統的介面
//
// 所有實作都必須保證:
//   - 同一帳戶同時最多只有一筆存提款在進行
//   - 餘額在任何時刻都不會是負數
//   - 失敗的操作不留下任何部分效果
type Ledger interface {
	// CreateAccount 開戶
	CreateAccount(ctx context.Context, id int64, owner string, initialBalance decimal.Decimal) (domain.Account, error)
	// Deposit 存款，回傳新餘額
	Deposit(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error)
	// Withdraw 提款，回傳新餘額
	Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error)
	// Get 取得帳戶快照
	Get(ctx context.Context, id int64) (domain.Account, error)
	// ListAll 依建立順序列出帳戶快照；每次 range 都會重新讀取帳本
	ListAll(ctx context.Context) iter.Seq2[domain.Account, error]
}
