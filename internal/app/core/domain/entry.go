package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType 日誌類型
// 為了節省記憶體，使用 uint8
type EntryType uint8

const (
	// 開戶
	EntryTypeOpen EntryType = 1
	// 存款
	EntryTypeDeposit EntryType = 2
	// 提款
	EntryTypeWithdraw EntryType = 3
)

func (t EntryType) String() string {
	switch t {
	case EntryTypeOpen:
		return "open"
	case EntryTypeDeposit:
		return "deposit"
	case EntryTypeWithdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}

// Entry 帳本日誌，每筆成功的變更產生一筆
// 只記錄成功的操作，因此 WAL 重放不會因業務規則失敗
type Entry struct {
	// Sequence: 引擎分配的遞增序號，WAL 重放時確保順序一致
	Sequence uint64 `json:"seq"`
	// AccountID: 帳戶 ID
	AccountID int64 `json:"account_id"`
	// Amount: 開戶時為初始餘額，其餘為存提款金額
	Amount decimal.Decimal `json:"amount"`
	// CreatedAt: 寫入時間 (unix milli)
	CreatedAt int64 `json:"created_at"`
	// RefID: 外部追蹤號
	RefID uuid.UUID `json:"ref_id"`
	// Owner: 只有開戶時填寫
	Owner string `json:"owner,omitempty"`
	// Type: 開戶 / 存款 / 提款
	Type EntryType `json:"type"`
}

// NewEntry 建立一筆日誌，RefID 自動產生
func NewEntry(seq uint64, typ EntryType, accountID int64, owner string, amount decimal.Decimal, createdAt int64) *Entry {
	return &Entry{
		Sequence:  seq,
		AccountID: accountID,
		Amount:    amount,
		CreatedAt: createdAt,
		RefID:     uuid.New(),
		Owner:     owner,
		Type:      typ,
	}
}
