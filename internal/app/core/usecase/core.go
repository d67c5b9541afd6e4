package usecase

import (
	"context"
	"fmt"
	"iter"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層
type CoreUseCase struct {
	ledger Ledger
	logger *zap.Logger
}

func NewCoreUseCase(ledger Ledger, logger *zap.Logger) *CoreUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoreUseCase{
		ledger: ledger,
		logger: logger.Named("core"),
	}
}

// CreateAccount 開戶
func (c *CoreUseCase) CreateAccount(ctx context.Context, id int64, owner string, initialBalance decimal.Decimal) (domain.Account, error) {
	acc, err := c.ledger.CreateAccount(ctx, id, owner, initialBalance)
	c.logResult(domain.OpCreateAccount, id, err, zap.String("owner", owner), amountField("initial_balance", initialBalance))
	return acc, err
}

// Deposit 存款
func (c *CoreUseCase) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	balance, err := c.ledger.Deposit(ctx, id, amount)
	c.logResult(domain.OpDeposit, id, err, amountField("amount", amount), zap.Stringer("balance", balance))
	return balance, err
}

// Withdraw 提款
func (c *CoreUseCase) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	balance, err := c.ledger.Withdraw(ctx, id, amount)
	c.logResult(domain.OpWithdraw, id, err, amountField("amount", amount), zap.Stringer("balance", balance))
	return balance, err
}

// GetAccount 取得帳戶
func (c *CoreUseCase) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	return c.ledger.Get(ctx, id)
}

// ListAccounts 列出所有帳戶
func (c *CoreUseCase) ListAccounts(ctx context.Context) iter.Seq2[domain.Account, error] {
	return c.ledger.ListAll(ctx)
}

// logResult 業務拒絕記 Info，其餘錯誤記 Error
func (c *CoreUseCase) logResult(op domain.Op, id int64, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", string(op)), zap.Int64("account_id", id))
	switch {
	case err == nil:
		c.logger.Debug("operation applied", fields...)
	case domain.IsBusinessError(err):
		c.logger.Info("operation rejected", append(fields, zap.Error(err))...)
	default:
		c.logger.Error("operation failed", append(fields, zap.Error(err))...)
	}
}

// amountField 超出範圍的金額以「係數e指數」記錄，不展開成完整字串
func amountField(key string, v decimal.Decimal) zap.Field {
	if domain.InRange(v) {
		return zap.Stringer(key, v)
	}
	return zap.String(key, fmt.Sprintf("%de%d", v.Coefficient(), v.Exponent()))
}
