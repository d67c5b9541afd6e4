package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/pkg/grpc"
	pb "github.com/JoeShih716/go-bank-ledger/proto"
)

func main() {
	target := flag.String("target", "localhost:50051", "ledger server address")
	totalCount := flag.Int("n", 100000, "total requests")
	concurrency := flag.Int("c", 1000, "concurrent requests")
	accountID := flag.Int64("account", 1, "account to hammer")
	flag.Parse()

	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	pool := grpc.NewPool(grpc.WithInterceptor(grpc.LoggingInterceptor(zl)))
	defer pool.Close()

	conn, err := pool.GetConnection(*target)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	c := pb.NewLedgerClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	// 帳戶已存在時沿用
	if _, err := c.CreateAccount(ctx, *accountID, "load-test", decimal.Zero); err != nil && !errors.Is(err, domain.ErrDuplicateID) {
		log.Fatalf("create account: %v", err)
	}
	before, err := c.GetAccount(ctx, *accountID)
	if err != nil {
		log.Fatalf("get account: %v", err)
	}

	var (
		wg       sync.WaitGroup
		failures = atomic.NewInt64(0)
		sem      = make(chan struct{}, *concurrency)
		amount   = decimal.NewFromInt(1)
	)
	startTime := time.Now()
	for i := 0; i < *totalCount; i++ {
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			var err error
			if idx%2 == 0 {
				_, err = c.Deposit(ctx, *accountID, amount)
			} else {
				_, err = c.Withdraw(ctx, *accountID, amount)
			}
			if err != nil && !errors.Is(err, domain.ErrInsufficientBalance) {
				if failures.Inc()%10000 == 1 {
					log.Printf("request %d failed: %v", idx, err)
				}
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	after, err := c.GetAccount(ctx, *accountID)
	if err != nil {
		log.Fatalf("get account: %v", err)
	}
	fmt.Printf("Completed %d requests in %v (%d failed)\n", *totalCount, elapsed, failures.Load())
	fmt.Printf("TPS: %.2f\n", float64(*totalCount)/elapsed.Seconds())
	fmt.Printf("Balance: %s -> %s\n", before.Balance, after.Balance)
}
