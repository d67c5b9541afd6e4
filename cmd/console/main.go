package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/console"
	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

func main() {
	maxAccounts := flag.Int("max-accounts", 0, "maximum number of accounts (0 = unlimited)")
	walPath := flag.String("wal", "", "write-ahead log path (empty = keep everything in memory)")
	logLevel := flag.String("log-level", "warn", "log level")
	quiet := flag.Bool("quiet", false, "do not print the menu and prompts")
	flag.Parse()

	zl, err := logger.New(logger.Config{Level: *logLevel})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	opts := []memory_adapter.Option{
		memory_adapter.WithMaxAccounts(*maxAccounts),
		memory_adapter.WithLogger(zl),
	}
	if *walPath != "" {
		walFile, err := wal.Open(*walPath)
		if err != nil {
			log.Fatal(err)
		}
		defer walFile.Close()
		opts = append(opts, memory_adapter.WithWAL(walFile))
	}

	ledger, err := memory_adapter.NewMutexLedger(nil, opts...)
	if err != nil {
		log.Fatalf("Failed to init ledger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var consoleOpts []console.Option
	if *quiet {
		consoleOpts = append(consoleOpts, console.WithoutPrompt())
	}
	c := console.New(usecase.NewCoreUseCase(ledger, zl), os.Stdin, os.Stdout, consoleOpts...)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
