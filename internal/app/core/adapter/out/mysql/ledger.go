package mysql

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID int64 `gorm:"primaryKey;autoIncrement:false"`
	// Seq: 開戶序號，由 ledger_counters 在鎖內配發，ListAll 依此排序
	Seq       int64           `gorm:"not null;uniqueIndex"`
	Owner     string          `gorm:"size:255;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedAt int64           `gorm:"autoCreateTime:milli"` // 自動寫入時間
	UpdatedAt int64           `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

func (a *sqlAccount) toDomain() domain.Account {
	return domain.Account{
		ID:        a.ID,
		Owner:     a.Owner,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

// sqlCounter 對應 ledger_counters 表
// 開戶時以 SELECT ... FOR UPDATE 鎖住這一列，開戶因此依序進行，
// 帳戶上限的計數與開戶序號都在同一把鎖內決定
type sqlCounter struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value int64  `gorm:"not null"`
}

func (*sqlCounter) TableName() string {
	return "ledger_counters"
}

// accountCounter 開戶序號使用的計數器名稱
const accountCounter = "accounts"

// errCounterMissing 尚未執行 Migrate
var errCounterMissing = errors.New("account counter row missing, run Migrate first")

// sqlEntry 對應資料庫的 entries 表 (帳本日誌)
type sqlEntry struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	RefID     []byte          `gorm:"column:ref_id;type:binary(16);uniqueIndex"` // 對應 domain.Entry.RefID
	AccountID int64           `gorm:"index"`
	Owner     string          `gorm:"size:255"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Type      uint8
	CreatedAt int64 `gorm:"autoCreateTime:milli"`
}

func (*sqlEntry) TableName() string {
	return "entries"
}

func newSQLEntry(typ domain.EntryType, accountID int64, owner string, amount decimal.Decimal) *sqlEntry {
	ref := uuid.New()
	return &sqlEntry{
		RefID:     ref[:],
		AccountID: accountID,
		Owner:     owner,
		Amount:    amount,
		Type:      uint8(typ),
	}
}

func (e *sqlEntry) toDomain() (domain.Entry, error) {
	ref, err := uuid.FromBytes(e.RefID)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("entry %d: invalid ref_id: %w", e.ID, err)
	}
	return domain.Entry{
		Sequence:  uint64(e.ID),
		AccountID: e.AccountID,
		Amount:    e.Amount,
		CreatedAt: e.CreatedAt,
		RefID:     ref,
		Owner:     e.Owner,
		Type:      domain.EntryType(e.Type),
	}, nil
}

// MySQLLedger 以 MySQL 為儲存的帳本
// 每筆變更在 Transaction 中以悲觀鎖 (SELECT ... FOR UPDATE) 鎖定單一帳戶
type MySQLLedger struct {
	client      *mysql.Client
	maxAccounts int
	logger      *zap.Logger
}

// Option MySQLLedger 配置選項
type Option func(*MySQLLedger)

// WithMaxAccounts 設定帳戶數上限，0 代表不限制
func WithMaxAccounts(n int) Option {
	return func(l *MySQLLedger) {
		l.maxAccounts = n
	}
}

// WithLogger 設定 Logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *MySQLLedger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewMySQLLedger(client *mysql.Client, opts ...Option) *MySQLLedger {
	ledger := &MySQLLedger{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ledger)
	}
	ledger.logger = ledger.logger.Named("mysql_ledger")
	return ledger
}

// Migrate 建立或更新 accounts / entries / ledger_counters 表，並建立開戶計數器
func (l *MySQLLedger) Migrate(ctx context.Context) error {
	db := l.client.DB().WithContext(ctx)
	if err := db.AutoMigrate(&sqlAccount{}, &sqlEntry{}, &sqlCounter{}); err != nil {
		return fmt.Errorf("migrate ledger tables: %w", err)
	}
	// 計數器從現有最大序號起算，已存在則不動
	var maxSeq int64
	if err := db.Model(&sqlAccount{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return fmt.Errorf("read max account seq: %w", err)
	}
	counter := sqlCounter{Name: accountCounter, Value: maxSeq}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
		return fmt.Errorf("init account counter: %w", err)
	}
	return nil
}

// CreateAccount 開戶
//
// 先鎖定開戶計數器，重複檢查、金額檢查、帳戶上限與序號配發依序在鎖內完成
func (l *MySQLLedger) CreateAccount(ctx context.Context, id int64, owner string, initialBalance decimal.Decimal) (domain.Account, error) {
	var created sqlAccount
	err := l.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter sqlCounter
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", accountCounter).
			First(&counter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errCounterMissing
			}
			return err
		}

		var count int64
		if err := tx.Model(&sqlAccount{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateID
		}
		acc, err := domain.NewAccount(id, owner, initialBalance, 0)
		if err != nil {
			return err
		}
		if l.maxAccounts > 0 {
			if err := tx.Model(&sqlAccount{}).Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(l.maxAccounts) {
				return domain.ErrLedgerFull
			}
		}

		created = sqlAccount{ID: id, Seq: counter.Value + 1, Owner: acc.Owner, Balance: acc.Balance}
		if err := tx.Create(&created).Error; err != nil {
			// 主鍵仍是最後一道防線
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateID
			}
			return err
		}
		if err := tx.Model(&counter).Update("value", created.Seq).Error; err != nil {
			return err
		}
		return tx.Create(newSQLEntry(domain.EntryTypeOpen, id, owner, initialBalance)).Error
	})
	if err != nil {
		return domain.Account{}, l.wrapError(domain.OpCreateAccount, id, err)
	}
	return created.toDomain(), nil
}

// Deposit 存款
func (l *MySQLLedger) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, domain.OpDeposit, id, amount)
}

// Withdraw 提款
func (l *MySQLLedger) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, domain.OpWithdraw, id, amount)
}

// mutate 鎖定帳戶後套用存提款並寫入日誌
//
// 參數:
//
//	ctx: 上下文
//	op: OpDeposit 或 OpWithdraw
//	id: 帳戶 ID
//	amount: 金額
//
// 回傳:
//
//	decimal.Decimal: 新餘額
//	error: 處理錯誤
func (l *MySQLLedger) mutate(ctx context.Context, op domain.Op, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, domain.NewOperationError(op, id, err)
	}

	var balance decimal.Decimal
	err := l.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sqlAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&row).Error; err != nil {
			return err
		}

		acc := row.toDomain()
		entryType := domain.EntryTypeDeposit
		if op == domain.OpWithdraw {
			entryType = domain.EntryTypeWithdraw
			if err := acc.Withdraw(amount); err != nil {
				balance = row.Balance
				return err
			}
		} else if err := acc.Deposit(amount); err != nil {
			return err
		}

		if err := tx.Model(&row).Update("balance", acc.Balance).Error; err != nil {
			return err
		}
		if err := tx.Create(newSQLEntry(entryType, id, "", amount)).Error; err != nil {
			return err
		}
		balance = acc.Balance
		return nil
	})
	if err != nil {
		return balance, l.wrapError(op, id, err)
	}
	return balance, nil
}

// Get 取得帳戶
func (l *MySQLLedger) Get(ctx context.Context, id int64) (domain.Account, error) {
	var row sqlAccount
	if err := l.client.DB().WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return domain.Account{}, l.wrapError(domain.OpGet, id, err)
	}
	return row.toDomain(), nil
}

// ListAll 以資料庫游標逐筆讀取帳戶，依開戶序號排序
func (l *MySQLLedger) ListAll(ctx context.Context) iter.Seq2[domain.Account, error] {
	return func(yield func(domain.Account, error) bool) {
		db := l.client.DB().WithContext(ctx)
		rows, err := db.Model(&sqlAccount{}).Order("seq").Rows()
		if err != nil {
			yield(domain.Account{}, l.wrapError(domain.OpListAll, 0, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row sqlAccount
			if err := db.ScanRows(rows, &row); err != nil {
				yield(domain.Account{}, l.wrapError(domain.OpListAll, 0, err))
				return
			}
			if !yield(row.toDomain(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Account{}, l.wrapError(domain.OpListAll, 0, err))
		}
	}
}

// LoadAllAccounts 載入所有帳戶，用於啟動記憶體帳本
func (l *MySQLLedger) LoadAllAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0)
	for acc, err := range l.ListAll(ctx) {
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// Entries 回傳指定帳戶的日誌，依寫入順序排列
func (l *MySQLLedger) Entries(ctx context.Context, accountID int64) ([]domain.Entry, error) {
	var rows []sqlEntry
	if err := l.client.DB().WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, l.wrapError(domain.OpGet, accountID, err)
	}
	entries := make([]domain.Entry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// wrapError 將 gorm 與業務錯誤轉成 domain.OperationError
func (l *MySQLLedger) wrapError(op domain.Op, id int64, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = domain.ErrAccountNotFound
	}
	if domain.IsBusinessError(err) {
		return domain.NewOperationError(op, id, err)
	}
	l.logger.Error("mysql ledger failure", zap.String("op", string(op)), zap.Int64("account_id", id), zap.Error(err))
	return domain.NewOperationError(op, id, fmt.Errorf("mysql: %w", err))
}

var _ usecase.Ledger = (*MySQLLedger)(nil)
