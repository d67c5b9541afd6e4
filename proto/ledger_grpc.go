package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "ledger.v1.LedgerService"

const (
	LedgerService_CreateAccount_FullMethodName = "/" + ServiceName + "/CreateAccount"
	LedgerService_Deposit_FullMethodName       = "/" + ServiceName + "/Deposit"
	LedgerService_Withdraw_FullMethodName      = "/" + ServiceName + "/Withdraw"
	LedgerService_GetAccount_FullMethodName    = "/" + ServiceName + "/GetAccount"
	LedgerService_ListAccounts_FullMethodName  = "/" + ServiceName + "/ListAccounts"
)

// LedgerServiceServer 伺服器端需實作的介面
type LedgerServiceServer interface {
	CreateAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccounts(*emptypb.Empty, LedgerService_ListAccountsServer) error
}

// LedgerService_ListAccountsServer ListAccounts 的伺服器串流
type LedgerService_ListAccountsServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

// UnimplementedLedgerServiceServer 嵌入後未實作的方法回傳 Unimplemented
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) CreateAccount(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateAccount not implemented")
}

func (UnimplementedLedgerServiceServer) Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Deposit not implemented")
}

func (UnimplementedLedgerServiceServer) Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Withdraw not implemented")
}

func (UnimplementedLedgerServiceServer) GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAccount not implemented")
}

func (UnimplementedLedgerServiceServer) ListAccounts(*emptypb.Empty, LedgerService_ListAccountsServer) error {
	return status.Error(codes.Unimplemented, "method ListAccounts not implemented")
}

// RegisterLedgerServiceServer 註冊服務
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

type unaryCall func(srv LedgerServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// unaryHandler 產生 unary method handler，與 protoc-gen-go-grpc 產生的 handler 行為相同
func unaryHandler(fullMethod string, call unaryCall) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _LedgerService_ListAccounts_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(LedgerServiceServer).ListAccounts(m, &ledgerServiceListAccountsServer{stream})
}

type ledgerServiceListAccountsServer struct {
	grpc.ServerStream
}

func (x *ledgerServiceListAccountsServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// LedgerService_ServiceDesc ledger.v1.LedgerService 的服務描述
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateAccount",
			Handler: unaryHandler(LedgerService_CreateAccount_FullMethodName, func(srv LedgerServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.CreateAccount(ctx, in)
			}),
		},
		{
			MethodName: "Deposit",
			Handler: unaryHandler(LedgerService_Deposit_FullMethodName, func(srv LedgerServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Deposit(ctx, in)
			}),
		},
		{
			MethodName: "Withdraw",
			Handler: unaryHandler(LedgerService_Withdraw_FullMethodName, func(srv LedgerServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Withdraw(ctx, in)
			}),
		},
		{
			MethodName: "GetAccount",
			Handler: unaryHandler(LedgerService_GetAccount_FullMethodName, func(srv LedgerServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetAccount(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ListAccounts",
			Handler:       _LedgerService_ListAccounts_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "ledger/v1/ledger.proto",
}
