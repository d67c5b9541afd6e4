package memory

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// accountSlot 單一帳戶與其專屬的鎖
type accountSlot struct {
	mu      sync.RWMutex
	account domain.Account
}

func (s *accountSlot) snapshot() domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// MutexLedger 是一個使用 Mutex 實現的帳本
//
// 結構:
//
//	accounts: 帳戶目錄 (ID -> slot)，由 mu 保護
//	order: 依建立順序排列的 slot，由 mu 保護
//	每個 slot 自帶鎖，存提款只鎖單一帳戶，不同帳戶互不阻塞
type MutexLedger struct {
	accounts map[int64]*accountSlot
	order    []*accountSlot
	mu       sync.RWMutex
	seq      *atomic.Uint64
	opts     options
	logger   *zap.Logger
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
//
// 參數:
//
//	accounts: 初始帳戶 (例如從 MySQL 載入)，依傳入順序視為建立順序
//	opts: WithWAL / WithMaxAccounts / WithLogger
//
// 回傳:
//
//	*MutexLedger: MutexLedger 實例
//	error: 初始化錯誤 (如初始帳戶重複、WAL 恢復失敗)
func NewMutexLedger(accounts []domain.Account, opts ...Option) (*MutexLedger, error) {
	o := newOptions(opts)
	ledger := &MutexLedger{
		accounts: make(map[int64]*accountSlot, len(accounts)),
		order:    make([]*accountSlot, 0, len(accounts)),
		seq:      atomic.NewUint64(0),
		opts:     o,
		logger:   o.logger.Named("mutex_ledger"),
	}
	for _, acc := range accounts {
		if err := ledger.insert(acc); err != nil {
			return nil, err
		}
	}

	lastSeq, err := replayWAL(o.wal, ledger.applyRecoverEntry)
	if err != nil {
		return nil, err
	}
	ledger.seq.Store(lastSeq)
	ledger.logger.Info("ledger ready", zap.Int("accounts", len(ledger.order)), zap.Uint64("last_seq", lastSeq))
	return ledger, nil
}

// insert 將帳戶放入目錄，呼叫端需持有 mu (或處於建構階段)
func (m *MutexLedger) insert(acc domain.Account) error {
	if _, ok := m.accounts[acc.ID]; ok {
		return domain.NewOperationError(domain.OpCreateAccount, acc.ID, domain.ErrDuplicateID)
	}
	slot := &accountSlot{account: acc}
	m.accounts[acc.ID] = slot
	m.order = append(m.order, slot)
	return nil
}

// applyRecoverEntry 恢復單筆日誌至記憶體 (不寫入 WAL)
func (m *MutexLedger) applyRecoverEntry(e *domain.Entry) error {
	switch e.Type {
	case domain.EntryTypeOpen:
		acc, err := domain.NewAccount(e.AccountID, e.Owner, e.Amount, e.CreatedAt)
		if err != nil {
			return err
		}
		return m.insert(*acc)
	case domain.EntryTypeDeposit:
		slot, ok := m.accounts[e.AccountID]
		if !ok {
			return domain.ErrAccountNotFound
		}
		return slot.account.Deposit(e.Amount)
	case domain.EntryTypeWithdraw:
		slot, ok := m.accounts[e.AccountID]
		if !ok {
			return domain.ErrAccountNotFound
		}
		return slot.account.Withdraw(e.Amount)
	}
	return nil
}

// journal 寫入 WAL；未設定 WAL 時不做事
func (m *MutexLedger) journal(typ domain.EntryType, id int64, owner string, amount decimal.Decimal) error {
	if m.opts.wal == nil {
		return nil
	}
	entry := domain.NewEntry(m.seq.Inc(), typ, id, owner, amount, m.opts.now().UnixMilli())
	return m.opts.wal.Append(entry)
}

// lookup 在目錄中尋找帳戶 (只持有目錄讀鎖)
func (m *MutexLedger) lookup(op domain.Op, id int64) (*accountSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot, ok := m.accounts[id]
	if !ok {
		return nil, domain.NewOperationError(op, id, domain.ErrAccountNotFound)
	}
	return slot, nil
}

// CreateAccount 開戶
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//	owner: 戶名
//	initialBalance: 初始餘額
//
// 回傳:
//
//	domain.Account: 新帳戶快照
//	error: ErrDuplicateID / ErrInvalidAmount / ErrLedgerFull / ErrWALWriteFailed
func (m *MutexLedger) CreateAccount(ctx context.Context, id int64, owner string, initialBalance decimal.Decimal) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 重複 ID 優先回報，保證重複開戶一定得到 ErrDuplicateID
	if _, ok := m.accounts[id]; ok {
		return domain.Account{}, domain.NewOperationError(domain.OpCreateAccount, id, domain.ErrDuplicateID)
	}
	acc, err := domain.NewAccount(id, owner, initialBalance, m.opts.now().UnixMilli())
	if err != nil {
		return domain.Account{}, domain.NewOperationError(domain.OpCreateAccount, id, err)
	}
	if m.opts.maxAccounts > 0 && len(m.order) >= m.opts.maxAccounts {
		return domain.Account{}, domain.NewOperationError(domain.OpCreateAccount, id, domain.ErrLedgerFull)
	}

	if err := m.journal(domain.EntryTypeOpen, id, owner, initialBalance); err != nil {
		return domain.Account{}, journalError(domain.OpCreateAccount, id, err)
	}
	if err := m.insert(*acc); err != nil {
		return domain.Account{}, err
	}
	return *acc, nil
}

// Deposit 存款
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//	amount: 金額 (> 0)
//
// 回傳:
//
//	decimal.Decimal: 新餘額
//	error: ErrInvalidAmount / ErrAccountNotFound / ErrWALWriteFailed
func (m *MutexLedger) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, domain.NewOperationError(domain.OpDeposit, id, err)
	}
	slot, err := m.lookup(domain.OpDeposit, id)
	if err != nil {
		return decimal.Zero, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	// 先檢查餘額上限再寫 WAL
	if err := slot.account.CanDeposit(amount); err != nil {
		return slot.account.Balance, domain.NewOperationError(domain.OpDeposit, id, err)
	}
	if err := m.journal(domain.EntryTypeDeposit, id, "", amount); err != nil {
		return slot.account.Balance, journalError(domain.OpDeposit, id, err)
	}
	if err := slot.account.Deposit(amount); err != nil {
		return slot.account.Balance, domain.NewOperationError(domain.OpDeposit, id, err)
	}
	return slot.account.Balance, nil
}

// Withdraw 提款
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//	amount: 金額 (> 0 且 <= 餘額)
//
// 回傳:
//
//	decimal.Decimal: 新餘額 (失敗時為目前餘額)
//	error: ErrInvalidAmount / ErrAccountNotFound / ErrInsufficientBalance / ErrWALWriteFailed
func (m *MutexLedger) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, domain.NewOperationError(domain.OpWithdraw, id, err)
	}
	slot, err := m.lookup(domain.OpWithdraw, id)
	if err != nil {
		return decimal.Zero, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	// 先檢查再寫 WAL，失敗的提款不進日誌
	if err := slot.account.CanWithdraw(amount); err != nil {
		return slot.account.Balance, domain.NewOperationError(domain.OpWithdraw, id, err)
	}
	if err := m.journal(domain.EntryTypeWithdraw, id, "", amount); err != nil {
		return slot.account.Balance, journalError(domain.OpWithdraw, id, err)
	}
	if err := slot.account.Withdraw(amount); err != nil {
		return slot.account.Balance, domain.NewOperationError(domain.OpWithdraw, id, err)
	}
	return slot.account.Balance, nil
}

// Get 取得帳戶快照
func (m *MutexLedger) Get(ctx context.Context, id int64) (domain.Account, error) {
	slot, err := m.lookup(domain.OpGet, id)
	if err != nil {
		return domain.Account{}, err
	}
	return slot.snapshot(), nil
}

// ListAll 依建立順序逐一回傳帳戶快照
// 每次 range 都會重新取得目錄，之後建立的帳戶不影響進行中的走訪
func (m *MutexLedger) ListAll(ctx context.Context) iter.Seq2[domain.Account, error] {
	return func(yield func(domain.Account, error) bool) {
		m.mu.RLock()
		slots := slices.Clone(m.order)
		m.mu.RUnlock()

		for _, slot := range slots {
			if err := ctx.Err(); err != nil {
				yield(domain.Account{}, err)
				return
			}
			if !yield(slot.snapshot(), nil) {
				return
			}
		}
	}
}

// Len 目前帳戶數
func (m *MutexLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

var _ usecase.Ledger = (*MutexLedger)(nil)
