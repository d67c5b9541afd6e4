package domain

import (
	"github.com/shopspring/decimal"
)

const (
	// AmountScale 金額最多小數位數，與資料庫 decimal(20,4) 一致
	AmountScale = 4

	// 指數超出範圍的輸入直接拒絕，運算時才不會把係數放大成天文數字
	maxAmountExponent = 16
	minAmountExponent = -32
)

// MaxAmount 金額與餘額的上限 (不含)，decimal(20,4) 整數部分最多 16 位
var MaxAmount = decimal.New(1, 16)

// InRange 金額是否落在可表示範圍：|v| < MaxAmount 且最多 AmountScale 位小數
func InRange(v decimal.Decimal) bool {
	if exp := v.Exponent(); exp > maxAmountExponent || exp < minAmountExponent {
		return false
	}
	return v.Abs().LessThan(MaxAmount) && v.Equal(v.Truncate(AmountScale))
}

// Account 帳戶快照
//
// Account 為值型別，從帳本取出後即與帳本狀態脫鉤。
// 帳本內部以鎖保護同一帳戶的 Deposit / Withdraw。
type Account struct {
	// ID: 建立時由呼叫端指定，之後不可變
	ID int64
	// Owner: 戶名，建立後不可變
	Owner string
	// Balance: 餘額，永遠 >= 0
	Balance decimal.Decimal
	// CreatedAt: 建立時間 (unix milli)
	CreatedAt int64
}

// NewAccount 建立一個新帳戶
//
// 參數:
//
//	id: 帳戶 ID
//	owner: 戶名
//	balance: 初始餘額 (不可為負，需在 InRange 範圍內)
//	createdAt: 建立時間 (unix milli)
//
// 回傳:
//
//	*Account: 帳戶
//	error: ErrInvalidAmount
func NewAccount(id int64, owner string, balance decimal.Decimal, createdAt int64) (*Account, error) {
	if balance.IsNegative() || !InRange(balance) {
		return nil, ErrInvalidAmount
	}
	return &Account{
		ID:        id,
		Owner:     owner,
		Balance:   balance,
		CreatedAt: createdAt,
	}, nil
}

// ValidateAmount 存提款金額必須大於 0 且在 InRange 範圍內
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !InRange(amount) {
		return ErrInvalidAmount
	}
	return nil
}

// CanWithdraw 檢查提款後餘額是否仍 >= 0
func (a *Account) CanWithdraw(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// CanDeposit 檢查存款後餘額不會超過 MaxAmount
func (a *Account) CanDeposit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if a.Balance.Add(amount).GreaterThanOrEqual(MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// Deposit 存款
func (a *Account) Deposit(amount decimal.Decimal) error {
	if err := a.CanDeposit(amount); err != nil {
		return err
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw 提款，餘額不足時不做任何變更
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if err := a.CanWithdraw(amount); err != nil {
		return err
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}
