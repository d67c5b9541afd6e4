package grpc_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	pb "github.com/JoeShih716/go-bank-ledger/proto"
)

func newTestClient(t *testing.T) *pb.LedgerClient {
	t.Helper()
	conn, _ := newTestConn(t)
	return pb.NewLedgerClient(conn)
}

func newTestConn(t *testing.T) (*grpc.ClientConn, *grpc.Server) {
	t.Helper()

	ledger, err := memory_adapter.NewMutexLedger(nil)
	require.NoError(t, err)
	core := usecase.NewCoreUseCase(ledger, zap.NewNop())

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_adapter.UnaryLoggingInterceptor(zap.NewNop())),
		grpc.StreamInterceptor(grpc_adapter.StreamLoggingInterceptor(zap.NewNop())),
	)
	pb.RegisterLedgerServiceServer(s, grpc_adapter.NewGrpcServer(core, zap.NewNop()))
	go func() {
		_ = s.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		s.Stop()
	})
	return conn, s
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedgerServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	created, err := c.CreateAccount(ctx, 1, "Alice", d("100.0"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.AccountID)
	assert.Equal(t, "Alice", created.Owner)
	assert.True(t, created.Balance.Equal(d("100")))

	dep, err := c.Deposit(ctx, 1, d("50.0"))
	require.NoError(t, err)
	assert.True(t, dep.Balance.Equal(d("150")), "balance %s", dep.Balance)
	assert.Equal(t, "Alice", dep.Owner)

	_, err = c.Withdraw(ctx, 1, d("200.0"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Contains(t, err.Error(), "insufficient balance")

	got, err := c.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("150")))

	wd, err := c.Withdraw(ctx, 1, d("0.5"))
	require.NoError(t, err)
	assert.True(t, wd.Balance.Equal(d("149.5")))
}

func TestLedgerServiceErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.GetAccount(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.CreateAccount(ctx, 2, "Bob", d("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = c.CreateAccount(ctx, 2, "Bob", decimal.Zero)
	require.NoError(t, err)
	_, err = c.CreateAccount(ctx, 2, "Bob", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = c.Deposit(ctx, 2, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = c.Withdraw(ctx, 2, d("1.0"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestLedgerServiceConcurrentDeposits(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	_, err := c.CreateAccount(ctx, 3, "Carol", decimal.Zero)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Deposit(ctx, 3, d("10.0"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := c.GetAccount(ctx, 3)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("200")), "balance %s", got.Balance)
}

func TestLedgerServiceListAccounts(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	for acc, err := range c.ListAccounts(ctx) {
		t.Fatalf("expected empty ledger, got %v %v", acc, err)
	}

	for _, id := range []int64{9, 4, 6} {
		_, err := c.CreateAccount(ctx, id, "owner", d("1.25"))
		require.NoError(t, err)
	}

	var ids []int64
	for acc, err := range c.ListAccounts(ctx) {
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(d("1.25")))
		ids = append(ids, acc.AccountID)
	}
	assert.Equal(t, []int64{9, 4, 6}, ids)

	// 提早結束串流後仍可再次列出
	for range c.ListAccounts(ctx) {
		break
	}
	n := 0
	for _, err := range c.ListAccounts(ctx) {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 3, n)
}

func TestLedgerServiceNonDomainErrorsStayStatuses(t *testing.T) {
	ctx := context.Background()
	conn, s := newTestConn(t)

	// account_id 格式錯誤是請求錯誤，不是金額錯誤
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"account_id": structpb.NewStringValue("abc"),
	}}
	err := conn.Invoke(ctx, pb.LedgerService_GetAccount_FullMethodName, req, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.False(t, errors.Is(pb.FromStatus(err), domain.ErrInvalidAmount))

	// 伺服器停止後的連線錯誤不等於帳本關閉
	s.Stop()
	_, err = pb.NewLedgerClient(conn).GetAccount(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.False(t, errors.Is(err, domain.ErrLedgerClosed))
}
