package proto

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// ErrorDomain google.rpc.ErrorInfo 的 domain，標示錯誤由帳本服務本身產生
const ErrorDomain = ServiceName

// errorReasons ErrorInfo.Reason 與 domain error 的對應
var errorReasons = []struct {
	reason string
	err    error
}{
	{"ACCOUNT_NOT_FOUND", domain.ErrAccountNotFound},
	{"DUPLICATE_ID", domain.ErrDuplicateID},
	{"INVALID_AMOUNT", domain.ErrInvalidAmount},
	{"INSUFFICIENT_BALANCE", domain.ErrInsufficientBalance},
	{"LEDGER_FULL", domain.ErrLedgerFull},
	{"LEDGER_CLOSED", domain.ErrLedgerClosed},
}

// Status 建立 gRPC 錯誤；err 為 domain error 時附上 ErrorInfo，客戶端據此還原
func Status(code codes.Code, err error) error {
	st := status.New(code, err.Error())
	for _, r := range errorReasons {
		if !errors.Is(err, r.err) {
			continue
		}
		withInfo, detailErr := st.WithDetails(&errdetails.ErrorInfo{Reason: r.reason, Domain: ErrorDomain})
		if detailErr != nil {
			return st.Err()
		}
		return withInfo.Err()
	}
	return st.Err()
}

// remoteError 保留伺服器訊息，同時可用 errors.Is 比對 domain error
type remoteError struct {
	st  *status.Status
	err error
}

func (e *remoteError) Error() string {
	return e.st.Message()
}

func (e *remoteError) Unwrap() error {
	return e.err
}

// GRPCStatus 讓 status.Code / status.FromError 仍可取得原始狀態
func (e *remoteError) GRPCStatus() *status.Status {
	return e.st
}

// FromStatus 將帳本服務回傳的錯誤轉回 domain error
// 只認帶有本服務 ErrorInfo 的狀態；連線失敗等傳輸層錯誤原樣回傳
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		for _, r := range errorReasons {
			if r.reason == info.GetReason() {
				return &remoteError{st: st, err: r.err}
			}
		}
	}
	return err
}
