package memory

import (
	"context"
	"iter"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// ledgerRequest 請求包裝 channel，讓呼叫端可以等待結果
type ledgerRequest struct {
	op     domain.Op
	id     int64
	owner  string
	amount decimal.Decimal
	result chan ledgerResponse // 呼叫端等這個 channel
}

type ledgerResponse struct {
	account  domain.Account
	accounts []domain.Account
	err      error
}

// LMAXLedger 單一 goroutine 持有全部狀態的帳本
//
// 所有操作 (含讀取) 都經由輸送帶送進 run loop 依序處理，
// 狀態本身不需要任何鎖
type LMAXLedger struct {
	accounts map[int64]*domain.Account
	order    []*domain.Account
	seq      uint64
	opts     options
	logger   *zap.Logger
	// 輸送帶 負責接收請求
	requests chan *ledgerRequest
	// Pool 減少 GC 壓力
	requestPool sync.Pool
	started     *atomic.Bool
	// run loop 結束後關閉
	done chan struct{}
}

// NewLMAXLedger 建立一個新的 LMAXLedger 實例，需呼叫 Start 後才能使用
//
// 參數:
//
//	accounts: 初始帳戶，依傳入順序視為建立順序
//	opts: WithWAL / WithMaxAccounts / WithQueueSize / WithLogger
//
// 回傳:
//
//	*LMAXLedger: LMAXLedger 實例
//	error: 初始化錯誤
func NewLMAXLedger(accounts []domain.Account, opts ...Option) (*LMAXLedger, error) {
	o := newOptions(opts)
	ledger := &LMAXLedger{
		accounts: make(map[int64]*domain.Account, len(accounts)),
		order:    make([]*domain.Account, 0, len(accounts)),
		opts:     o,
		logger:   o.logger.Named("lmax_ledger"),
		requests: make(chan *ledgerRequest, o.queueSize),
		requestPool: sync.Pool{
			New: func() interface{} {
				return &ledgerRequest{
					result: make(chan ledgerResponse, 1),
				}
			},
		},
		started: atomic.NewBool(false),
		done:    make(chan struct{}),
	}
	for _, acc := range accounts {
		if err := ledger.insert(acc); err != nil {
			return nil, err
		}
	}

	// 在啟動前先恢復資料
	lastSeq, err := replayWAL(o.wal, ledger.applyRecoverEntry)
	if err != nil {
		return nil, err
	}
	ledger.seq = lastSeq
	return ledger, nil
}

func (l *LMAXLedger) insert(acc domain.Account) error {
	if _, ok := l.accounts[acc.ID]; ok {
		return domain.NewOperationError(domain.OpCreateAccount, acc.ID, domain.ErrDuplicateID)
	}
	a := acc
	l.accounts[acc.ID] = &a
	l.order = append(l.order, &a)
	return nil
}

// applyRecoverEntry 恢復單筆日誌 (不寫 WAL，不透過 Channel)
func (l *LMAXLedger) applyRecoverEntry(e *domain.Entry) error {
	switch e.Type {
	case domain.EntryTypeOpen:
		acc, err := domain.NewAccount(e.AccountID, e.Owner, e.Amount, e.CreatedAt)
		if err != nil {
			return err
		}
		return l.insert(*acc)
	case domain.EntryTypeDeposit, domain.EntryTypeWithdraw:
		acc, ok := l.accounts[e.AccountID]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if e.Type == domain.EntryTypeDeposit {
			return acc.Deposit(e.Amount)
		}
		return acc.Withdraw(e.Amount)
	}
	return nil
}

// Start 啟動核心引擎 (非同步)
// ctx 取消後會先處理完輸送帶上剩下的請求，之後的請求回傳 ErrLedgerClosed
func (l *LMAXLedger) Start(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.run(ctx)
}

// Done 回傳 run loop 結束時關閉的 channel
func (l *LMAXLedger) Done() <-chan struct{} {
	return l.done
}

func (l *LMAXLedger) run(ctx context.Context) {
	defer close(l.done)
	l.logger.Info("engine started", zap.Int("accounts", len(l.order)), zap.Uint64("last_seq", l.seq))
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.drain()
			l.logger.Info("engine stopped")
			return
		case req := <-l.requests:
			l.process(req)
		}
	}
}

func (l *LMAXLedger) drain() {
	for {
		select {
		case req := <-l.requests:
			l.process(req)
		default:
			return
		}
	}
}

// submit 送出請求並等待結果
//
// PostRequest(等待) -> Channel -> Run Loop (核心) -> WAL -> Map Update -> Result Channel -> 呼叫端(收到結果)
func (l *LMAXLedger) submit(ctx context.Context, op domain.Op, id int64, owner string, amount decimal.Decimal) ledgerResponse {
	if !l.started.Load() {
		return ledgerResponse{err: domain.NewOperationError(op, id, domain.ErrLedgerClosed)}
	}

	req := l.requestPool.Get().(*ledgerRequest)
	req.op, req.id, req.owner, req.amount = op, id, owner, amount
	// 清空 Channel
	select {
	case <-req.result:
	default:
	}

	closed := ledgerResponse{err: domain.NewOperationError(op, id, domain.ErrLedgerClosed)}
	select {
	case l.requests <- req:
	case <-l.done:
		return closed
	case <-ctx.Done():
		l.requestPool.Put(req)
		return ledgerResponse{err: ctx.Err()}
	}

	select {
	case res := <-req.result:
		l.requestPool.Put(req)
		return res
	case <-l.done:
		// loop 已結束：若結果已送達就採用，否則此請求不會再被處理
		select {
		case res := <-req.result:
			l.requestPool.Put(req)
			return res
		default:
			return closed
		}
	}
}

// process 處理單筆請求並回傳結果 (只在 run loop 中執行)
func (l *LMAXLedger) process(req *ledgerRequest) {
	var res ledgerResponse
	switch req.op {
	case domain.OpCreateAccount:
		res.account, res.err = l.handleCreate(req)
	case domain.OpDeposit:
		res.account, res.err = l.handleDeposit(req)
	case domain.OpWithdraw:
		res.account, res.err = l.handleWithdraw(req)
	case domain.OpGet:
		acc, ok := l.accounts[req.id]
		if !ok {
			res.err = domain.NewOperationError(domain.OpGet, req.id, domain.ErrAccountNotFound)
		} else {
			res.account = *acc
		}
	case domain.OpListAll:
		res.accounts = make([]domain.Account, len(l.order))
		for i, acc := range l.order {
			res.accounts[i] = *acc
		}
	}
	req.result <- res
}

func (l *LMAXLedger) journal(typ domain.EntryType, id int64, owner string, amount decimal.Decimal) error {
	if l.opts.wal == nil {
		return nil
	}
	l.seq++
	return l.opts.wal.Append(domain.NewEntry(l.seq, typ, id, owner, amount, l.opts.now().UnixMilli()))
}

func (l *LMAXLedger) handleCreate(req *ledgerRequest) (domain.Account, error) {
	if _, ok := l.accounts[req.id]; ok {
		return domain.Account{}, domain.NewOperationError(domain.OpCreateAccount, req.id, domain.ErrDuplicateID)
	}
	acc, err := domain.NewAccount(req.id, req.owner, req.amount, l.opts.now().UnixMilli())
	if err != nil {
		return domain.Account{}, domain.NewOperationError(domain.OpCreateAccount, req.id, err)
	}
	if l.opts.maxAccounts > 0 && len(l.order) >= l.opts.maxAccounts {
		return domain.Account{}, domain.NewOperationError(domain.OpCreateAccount, req.id, domain.ErrLedgerFull)
	}
	if err := l.journal(domain.EntryTypeOpen, req.id, req.owner, req.amount); err != nil {
		return domain.Account{}, journalError(domain.OpCreateAccount, req.id, err)
	}
	if err := l.insert(*acc); err != nil {
		return domain.Account{}, err
	}
	return *acc, nil
}

func (l *LMAXLedger) handleDeposit(req *ledgerRequest) (domain.Account, error) {
	if err := domain.ValidateAmount(req.amount); err != nil {
		return domain.Account{}, domain.NewOperationError(domain.OpDeposit, req.id, err)
	}
	acc, ok := l.accounts[req.id]
	if !ok {
		return domain.Account{}, domain.NewOperationError(domain.OpDeposit, req.id, domain.ErrAccountNotFound)
	}
	if err := acc.CanDeposit(req.amount); err != nil {
		return *acc, domain.NewOperationError(domain.OpDeposit, req.id, err)
	}
	if err := l.journal(domain.EntryTypeDeposit, req.id, "", req.amount); err != nil {
		return *acc, journalError(domain.OpDeposit, req.id, err)
	}
	if err := acc.Deposit(req.amount); err != nil {
		return *acc, domain.NewOperationError(domain.OpDeposit, req.id, err)
	}
	return *acc, nil
}

func (l *LMAXLedger) handleWithdraw(req *ledgerRequest) (domain.Account, error) {
	if err := domain.ValidateAmount(req.amount); err != nil {
		return domain.Account{}, domain.NewOperationError(domain.OpWithdraw, req.id, err)
	}
	acc, ok := l.accounts[req.id]
	if !ok {
		return domain.Account{}, domain.NewOperationError(domain.OpWithdraw, req.id, domain.ErrAccountNotFound)
	}
	if err := acc.CanWithdraw(req.amount); err != nil {
		return *acc, domain.NewOperationError(domain.OpWithdraw, req.id, err)
	}
	if err := l.journal(domain.EntryTypeWithdraw, req.id, "", req.amount); err != nil {
		return *acc, journalError(domain.OpWithdraw, req.id, err)
	}
	if err := acc.Withdraw(req.amount); err != nil {
		return *acc, domain.NewOperationError(domain.OpWithdraw, req.id, err)
	}
	return *acc, nil
}

// CreateAccount implements usecase.Ledger.
func (l *LMAXLedger) CreateAccount(ctx context.Context, id int64, owner string, initialBalance decimal.Decimal) (domain.Account, error) {
	res := l.submit(ctx, domain.OpCreateAccount, id, owner, initialBalance)
	return res.account, res.err
}

// Deposit implements usecase.Ledger.
func (l *LMAXLedger) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	res := l.submit(ctx, domain.OpDeposit, id, "", amount)
	return res.account.Balance, res.err
}

// Withdraw implements usecase.Ledger.
func (l *LMAXLedger) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	res := l.submit(ctx, domain.OpWithdraw, id, "", amount)
	return res.account.Balance, res.err
}

// Get implements usecase.Ledger.
func (l *LMAXLedger) Get(ctx context.Context, id int64) (domain.Account, error) {
	res := l.submit(ctx, domain.OpGet, id, "", decimal.Zero)
	return res.account, res.err
}

// ListAll 每次 range 向 run loop 取一次快照，再逐筆回傳
func (l *LMAXLedger) ListAll(ctx context.Context) iter.Seq2[domain.Account, error] {
	return func(yield func(domain.Account, error) bool) {
		res := l.submit(ctx, domain.OpListAll, 0, "", decimal.Zero)
		if res.err != nil {
			yield(domain.Account{}, res.err)
			return
		}
		for _, acc := range res.accounts {
			if !yield(acc, nil) {
				return
			}
		}
	}
}

var _ usecase.Ledger = (*LMAXLedger)(nil)
