package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/internal/config"
	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
	pb "github.com/JoeShih716/go-bank-ledger/proto"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	// 1. 載入設定
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zl, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 初始化帳本
	ledger, closeLedger, err := newLedger(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeLedger()

	// 3. 初始化 UseCase 與 gRPC Adapter
	coreUseCase := usecase.NewCoreUseCase(ledger, zl)
	grpcServer := grpc_adapter.NewGrpcServer(coreUseCase, zl)

	lis, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Address, err)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpc_adapter.UnaryLoggingInterceptor(zl.Named("rpc"))),
		grpc.ChainStreamInterceptor(grpc_adapter.StreamLoggingInterceptor(zl.Named("rpc"))),
	)
	pb.RegisterLedgerServiceServer(s, grpcServer)
	if cfg.Server.Reflection {
		reflection.Register(s)
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("starting gRPC server",
			zap.String("address", cfg.Server.Address),
			zap.String("engine", string(cfg.Ledger.Engine)),
		)
		serveErr <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		zl.Info("shutting down server")
		s.GracefulStop()
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
	}
	zl.Info("server exited")
	return nil
}

// newLedger 依設定建立帳本，回傳的 close 函式負責釋放 WAL / MySQL 等資源
func newLedger(ctx context.Context, cfg *config.Config, zl *zap.Logger) (usecase.Ledger, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (usecase.Ledger, func(), error) {
		closeAll()
		return nil, nil, err
	}

	var mysqlLedger *mysql_adapter.MySQLLedger
	if cfg.NeedsMySQL() {
		dbClient, err := mysql.NewClient(cfg.MySQL, zl.Named("mysql"))
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() {
			if err := dbClient.Close(); err != nil {
				zl.Error("close mysql", zap.Error(err))
			}
		})
		zl.Info("connected to mysql", zap.String("host", cfg.MySQL.Host), zap.String("db", cfg.MySQL.DBName))

		mysqlLedger = mysql_adapter.NewMySQLLedger(dbClient,
			mysql_adapter.WithMaxAccounts(cfg.Ledger.MaxAccounts),
			mysql_adapter.WithLogger(zl),
		)
		if err := mysqlLedger.Migrate(ctx); err != nil {
			return fail(err)
		}
	}

	if cfg.Ledger.Engine == config.EngineMySQL {
		return mysqlLedger, closeAll, nil
	}

	var accounts []domain.Account
	if mysqlLedger != nil {
		loaded, err := mysqlLedger.LoadAllAccounts(ctx)
		if err != nil {
			return fail(fmt.Errorf("failed to load all accounts: %w", err))
		}
		accounts = loaded
		zl.Info("loaded accounts from mysql", zap.Int("count", len(accounts)))
	}

	opts := []memory_adapter.Option{
		memory_adapter.WithMaxAccounts(cfg.Ledger.MaxAccounts),
		memory_adapter.WithQueueSize(cfg.Ledger.QueueSize),
		memory_adapter.WithLogger(zl),
	}
	if cfg.Ledger.WALPath != "" {
		walFile, err := wal.Open(cfg.Ledger.WALPath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() {
			if err := walFile.Close(); err != nil {
				zl.Error("close wal", zap.Error(err))
			}
		})
		opts = append(opts, memory_adapter.WithWAL(walFile))
	}

	switch cfg.Ledger.Engine {
	case config.EngineMutex:
		ledger, err := memory_adapter.NewMutexLedger(accounts, opts...)
		if err != nil {
			return fail(fmt.Errorf("failed to init MutexLedger: %w", err))
		}
		return ledger, closeAll, nil
	case config.EngineLMAX:
		ledger, err := memory_adapter.NewLMAXLedger(accounts, opts...)
		if err != nil {
			return fail(fmt.Errorf("failed to init LMAXLedger: %w", err))
		}
		engineCtx, cancel := context.WithCancel(context.Background())
		ledger.Start(engineCtx)
		// 先停引擎 (處理完輸送帶) 再關閉 WAL
		closers = append(closers, func() {
			cancel()
			<-ledger.Done()
		})
		return ledger, closeAll, nil
	}
	return fail(fmt.Errorf("invalid ledger engine: %s", cfg.Ledger.Engine))
}
