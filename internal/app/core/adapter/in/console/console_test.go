package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, input string, opts ...memory_adapter.Option) string {
	t.Helper()
	ledger, err := memory_adapter.NewMutexLedger(nil, opts...)
	require.NoError(t, err)

	var out bytes.Buffer
	c := New(usecase.NewCoreUseCase(ledger, zap.NewNop()), strings.NewReader(input), &out, WithoutPrompt())
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func TestConsoleSession(t *testing.T) {
	input := `
1 1 Alice 100.0
1 2 Bob 0
2 1 50.0
3 1 200.0
3 2 1.0
3 1 25.5
4
5
1 3 Never 1
`
	want := strings.Join([]string{
		"Account Created.",
		"Account Created.",
		"Amount Deposited.",
		"Insufficient Balance.",
		"Insufficient Balance.",
		"Amount Withdrawn.",
		"1  Alice  Balance: 124.5",
		"2  Bob  Balance: 0",
		"",
	}, "\n")
	assert.Equal(t, want, run(t, input))
}

func TestConsoleErrorsKeepLoopRunning(t *testing.T) {
	input := `
2 9
1 1 Alice 10
1 1 Alice 10
1 2 Bob -5
2 1 0
2 1 ten
7
4
`
	want := strings.Join([]string{
		"Account Not Found.",
		"Account Created.",
		"Account Already Exists.",
		"Invalid Amount.",
		"Invalid Amount.",
		"Invalid Input.",
		"Invalid Choice.",
		"1  Alice  Balance: 10",
		"",
	}, "\n")
	assert.Equal(t, want, run(t, input))
}

func TestConsoleShowsExactBalance(t *testing.T) {
	input := `
1 1 Alice 0.005
2 1 0.00001
2 1 1e2000000000
4
`
	want := strings.Join([]string{
		"Account Created.",
		"Invalid Amount.",
		"Invalid Amount.",
		"1  Alice  Balance: 0.005",
		"",
	}, "\n")
	assert.Equal(t, want, run(t, input))
}

func TestConsoleBankFull(t *testing.T) {
	var input strings.Builder
	for i := range 6 {
		input.WriteString("1 ")
		input.WriteString(string(rune('1' + i)))
		input.WriteString(" user 1\n")
	}
	out := run(t, input.String(), memory_adapter.WithMaxAccounts(5))
	assert.Equal(t, 5, strings.Count(out, "Account Created."))
	assert.Equal(t, 1, strings.Count(out, "Bank Full."))
}

func TestConsolePrompts(t *testing.T) {
	ledger, err := memory_adapter.NewMutexLedger(nil)
	require.NoError(t, err)

	var out bytes.Buffer
	c := New(usecase.NewCoreUseCase(ledger, nil), strings.NewReader("1 1 Alice 5\n"), &out)
	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "1.Create Account")
	assert.Contains(t, out.String(), "Enter AccNo Name Balance: Account Created.")
}

func TestConsoleStopsOnCancelledContext(t *testing.T) {
	ledger, err := memory_adapter.NewMutexLedger(nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(usecase.NewCoreUseCase(ledger, nil), strings.NewReader("4\n"), &bytes.Buffer{})
	assert.ErrorIs(t, c.Run(ctx), context.Canceled)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Insufficient Balance.", Message(domain.NewOperationError(domain.OpWithdraw, 1, domain.ErrInsufficientBalance)))
	assert.Equal(t, "Error: ledger is closed", Message(domain.ErrLedgerClosed))
	assert.Equal(t, "Error: boom", Message(errors.New("boom")))
}
