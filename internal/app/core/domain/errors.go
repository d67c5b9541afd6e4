package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount 金額不合法 (存提款需大於 0，開戶餘額不可為負，超出 MaxAmount 或小數位數過多)
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance 餘額不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateID 帳戶已存在
	ErrDuplicateID = errors.New("account already exists")

	// ErrLedgerFull 帳本已達設定的帳戶上限
	ErrLedgerFull = errors.New("ledger is full")

	// ErrLedgerClosed 帳本引擎已停止
	ErrLedgerClosed = errors.New("ledger is closed")

	// ErrWALWriteFailed 寫入 WAL 失敗
	ErrWALWriteFailed = errors.New("wal write failed")
)

// Op 帳本操作名稱，用於錯誤訊息與日誌
type Op string

const (
	OpCreateAccount Op = "create account"
	OpDeposit       Op = "deposit"
	OpWithdraw      Op = "withdraw"
	OpGet           Op = "get"
	OpListAll       Op = "list all"
)

// OperationError 包裝帳本操作失敗的原因
// 呼叫端以 errors.Is 比對上方的 sentinel error
type OperationError struct {
	Op        Op
	AccountID int64
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s account %d: %v", e.Op, e.AccountID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError 建立 OperationError
func NewOperationError(op Op, accountID int64, err error) error {
	return &OperationError{Op: op, AccountID: accountID, Err: err}
}

// IsBusinessError 判斷是否為業務規則拒絕 (而非基礎設施錯誤)
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrLedgerFull)
}
