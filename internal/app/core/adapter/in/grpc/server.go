package grpc

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	pb "github.com/JoeShih716/go-bank-ledger/proto"
)

type GrpcServer struct {
	pb.UnimplementedLedgerServiceServer
	core   *usecase.CoreUseCase
	logger *zap.Logger
}

func NewGrpcServer(core *usecase.CoreUseCase, logger *zap.Logger) *GrpcServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrpcServer{
		core:   core,
		logger: logger.Named("grpc"),
	}
}

func (s *GrpcServer) CreateAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := pb.AccountRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	acc, err := s.core.CreateAccount(ctx, req.AccountID, req.Owner, req.Amount)
	if err != nil {
		return nil, toStatus(err)
	}
	return accountReply(acc), nil
}

func (s *GrpcServer) Deposit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := pb.AccountRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	balance, err := s.core.Deposit(ctx, req.AccountID, req.Amount)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.accountWithBalance(ctx, req.AccountID, balance)
}

func (s *GrpcServer) Withdraw(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := pb.AccountRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	balance, err := s.core.Withdraw(ctx, req.AccountID, req.Amount)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.accountWithBalance(ctx, req.AccountID, balance)
}

func (s *GrpcServer) GetAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := pb.AccountRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	acc, err := s.core.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, toStatus(err)
	}
	return accountReply(acc), nil
}

func (s *GrpcServer) ListAccounts(_ *emptypb.Empty, stream pb.LedgerService_ListAccountsServer) error {
	for acc, err := range s.core.ListAccounts(stream.Context()) {
		if err != nil {
			return toStatus(err)
		}
		if err := stream.Send(accountReply(acc)); err != nil {
			s.logger.Debug("list accounts stream aborted", zap.Error(err))
			return err
		}
	}
	return nil
}

// accountWithBalance 存提款成功後回傳帳戶，Balance 為本次操作後的餘額
func (s *GrpcServer) accountWithBalance(ctx context.Context, id int64, balance decimal.Decimal) (*structpb.Struct, error) {
	acc, err := s.core.GetAccount(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	acc.Balance = balance
	return accountReply(acc), nil
}

func accountReply(acc domain.Account) *structpb.Struct {
	reply := pb.AccountReply{
		AccountID: acc.ID,
		Owner:     acc.Owner,
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt,
	}
	return reply.ToStruct()
}

// toStatus 將 domain error 轉成 gRPC 狀態碼
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrDuplicateID):
		code = codes.AlreadyExists
	case errors.Is(err, domain.ErrInvalidAmount):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrInsufficientBalance):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrLedgerFull):
		code = codes.ResourceExhausted
	case errors.Is(err, domain.ErrLedgerClosed):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return pb.Status(code, err)
}
