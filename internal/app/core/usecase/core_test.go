package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

func TestCoreUseCaseLogsByOutcome(t *testing.T) {
	ctx := context.Background()
	ledger, err := memory_adapter.NewMutexLedger(nil)
	require.NoError(t, err)

	zcore, logs := observer.New(zapcore.DebugLevel)
	core := usecase.NewCoreUseCase(ledger, zap.New(zcore))

	_, err = core.CreateAccount(ctx, 1, "Alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	balance, err := core.Deposit(ctx, 1, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(150)))
	_, err = core.Withdraw(ctx, 1, decimal.NewFromInt(200))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	applied := logs.FilterMessage("operation applied").All()
	require.Len(t, applied, 2)
	assert.Equal(t, "create account", applied[0].ContextMap()["op"])
	assert.Equal(t, "deposit", applied[1].ContextMap()["op"])

	rejected := logs.FilterMessage("operation rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.InfoLevel, rejected[0].Level)
	assert.Equal(t, int64(1), rejected[0].ContextMap()["account_id"])
	assert.Equal(t, "core", rejected[0].LoggerName)
}

func TestCoreUseCaseReads(t *testing.T) {
	ctx := context.Background()
	ledger, err := memory_adapter.NewMutexLedger([]domain.Account{
		{ID: 2, Owner: "Bob", Balance: decimal.NewFromInt(2)},
		{ID: 1, Owner: "Alice", Balance: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)
	core := usecase.NewCoreUseCase(ledger, nil)

	acc, err := core.GetAccount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Bob", acc.Owner)

	_, err = core.GetAccount(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	var owners []string
	for acc, err := range core.ListAccounts(ctx) {
		require.NoError(t, err)
		owners = append(owners, acc.Owner)
	}
	assert.Equal(t, []string{"Bob", "Alice"}, owners)
}

func TestCoreUseCaseLogsOutOfRangeAmountCompactly(t *testing.T) {
	ctx := context.Background()
	ledger, err := memory_adapter.NewMutexLedger(nil)
	require.NoError(t, err)

	zcore, logs := observer.New(zapcore.DebugLevel)
	core := usecase.NewCoreUseCase(ledger, zap.New(zcore))

	_, err = core.CreateAccount(ctx, 1, "Alice", decimal.Zero)
	require.NoError(t, err)
	_, err = core.Deposit(ctx, 1, decimal.RequireFromString("1e2000000000"))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	rejected := logs.FilterMessage("operation rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, "1e2000000000", rejected[0].ContextMap()["amount"])
}
