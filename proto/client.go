package proto

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// LedgerClient ledger.v1.LedgerService 的客戶端
// 回傳的錯誤可用 errors.Is 比對 domain 的 sentinel error
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

func (c *LedgerClient) invoke(ctx context.Context, method string, req *AccountRequest, opts ...grpc.CallOption) (*AccountReply, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req.ToStruct(), out, opts...); err != nil {
		return nil, FromStatus(err)
	}
	return AccountReplyFromStruct(out)
}

// CreateAccount 開戶
func (c *LedgerClient) CreateAccount(ctx context.Context, id int64, owner string, initialBalance decimal.Decimal, opts ...grpc.CallOption) (*AccountReply, error) {
	return c.invoke(ctx, LedgerService_CreateAccount_FullMethodName, &AccountRequest{AccountID: id, Owner: owner, Amount: initialBalance}, opts...)
}

// Deposit 存款，回應中的 Balance 為新餘額
func (c *LedgerClient) Deposit(ctx context.Context, id int64, amount decimal.Decimal, opts ...grpc.CallOption) (*AccountReply, error) {
	return c.invoke(ctx, LedgerService_Deposit_FullMethodName, &AccountRequest{AccountID: id, Amount: amount}, opts...)
}

// Withdraw 提款，回應中的 Balance 為新餘額
func (c *LedgerClient) Withdraw(ctx context.Context, id int64, amount decimal.Decimal, opts ...grpc.CallOption) (*AccountReply, error) {
	return c.invoke(ctx, LedgerService_Withdraw_FullMethodName, &AccountRequest{AccountID: id, Amount: amount}, opts...)
}

// GetAccount 取得帳戶
func (c *LedgerClient) GetAccount(ctx context.Context, id int64, opts ...grpc.CallOption) (*AccountReply, error) {
	return c.invoke(ctx, LedgerService_GetAccount_FullMethodName, &AccountRequest{AccountID: id}, opts...)
}

// ListAccounts 以串流逐筆取得帳戶；每次 range 開一條新的串流，提早結束時會取消串流
func (c *LedgerClient) ListAccounts(ctx context.Context, opts ...grpc.CallOption) iter.Seq2[*AccountReply, error] {
	return func(yield func(*AccountReply, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := c.cc.NewStream(ctx, &LedgerService_ServiceDesc.Streams[0], LedgerService_ListAccounts_FullMethodName, opts...)
		if err != nil {
			yield(nil, FromStatus(err))
			return
		}
		if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
			yield(nil, FromStatus(err))
			return
		}
		if err := stream.CloseSend(); err != nil {
			yield(nil, FromStatus(err))
			return
		}
		for {
			out := new(structpb.Struct)
			if err := stream.RecvMsg(out); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(nil, FromStatus(err))
				return
			}
			reply, err := AccountReplyFromStruct(out)
			if !yield(reply, err) || err != nil {
				return
			}
		}
	}
}
