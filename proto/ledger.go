// Package proto 定義 ledger.v1.LedgerService 的訊息與服務描述
//
// 訊息以 google.protobuf.Struct 傳輸，int64 與金額一律以字串表示 (與 protojson 相同)，
// 避免 Struct 的 number (float64) 造成精度遺失
package proto

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	fieldAccountID = "account_id"
	fieldOwner     = "owner"
	fieldAmount    = "amount"
	fieldBalance   = "balance"
	fieldCreatedAt = "created_at"
)

// AccountRequest CreateAccount / Deposit / Withdraw / GetAccount 共用的請求
type AccountRequest struct {
	AccountID int64
	// Owner: 只有 CreateAccount 使用
	Owner string
	// Amount: CreateAccount 為初始餘額，Deposit / Withdraw 為金額
	Amount decimal.Decimal
}

// ToStruct 轉成線上格式
func (r *AccountRequest) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAccountID: structpb.NewStringValue(strconv.FormatInt(r.AccountID, 10)),
		fieldOwner:     structpb.NewStringValue(r.Owner),
		fieldAmount:    structpb.NewStringValue(r.Amount.String()),
	}}
}

// AccountRequestFromStruct 解析請求，缺少的欄位視為零值
func AccountRequestFromStruct(s *structpb.Struct) (*AccountRequest, error) {
	id, err := int64Field(s, fieldAccountID)
	if err != nil {
		return nil, err
	}
	amount, err := decimalField(s, fieldAmount)
	if err != nil {
		return nil, err
	}
	return &AccountRequest{
		AccountID: id,
		Owner:     stringField(s, fieldOwner),
		Amount:    amount,
	}, nil
}

// AccountReply 帳戶快照回應，ListAccounts 的每則串流訊息也是此格式
type AccountReply struct {
	AccountID int64
	Owner     string
	Balance   decimal.Decimal
	CreatedAt int64
}

// ToStruct 轉成線上格式
func (r *AccountReply) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAccountID: structpb.NewStringValue(strconv.FormatInt(r.AccountID, 10)),
		fieldOwner:     structpb.NewStringValue(r.Owner),
		fieldBalance:   structpb.NewStringValue(r.Balance.String()),
		fieldCreatedAt: structpb.NewStringValue(strconv.FormatInt(r.CreatedAt, 10)),
	}}
}

// AccountReplyFromStruct 解析回應
func AccountReplyFromStruct(s *structpb.Struct) (*AccountReply, error) {
	id, err := int64Field(s, fieldAccountID)
	if err != nil {
		return nil, err
	}
	balance, err := decimalField(s, fieldBalance)
	if err != nil {
		return nil, err
	}
	createdAt, err := int64Field(s, fieldCreatedAt)
	if err != nil {
		return nil, err
	}
	return &AccountReply{
		AccountID: id,
		Owner:     stringField(s, fieldOwner),
		Balance:   balance,
		CreatedAt: createdAt,
	}, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func int64Field(s *structpb.Struct, key string) (int64, error) {
	raw := stringField(s, key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return v, nil
}

func decimalField(s *structpb.Struct, key string) (decimal.Decimal, error) {
	raw := stringField(s, key)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %q: %w", key, err)
	}
	return v, nil
}
