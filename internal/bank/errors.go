// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 分三類：
//   - FormatError：帳號或戶名格式錯誤，建立時即拒絕，不改變任何狀態。
//   - ValidationError：金額非正、缺少對手帳戶等，在建立任何 Transaction 之前拒絕。
//   - DuplicateError：同一筆交易重複登錄到帳戶歷史。
//
// 餘額不足不是錯誤，而是 CANCELED 終態（見 status.go）。
// 每個型別錯誤都可 Unwrap 回對應的 sentinel，上層以 errors.Is / errors.As 判斷。

package bank

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound 代表帳戶不存在或不屬於本銀行。
	// 對應 HTTP 狀態碼 404 Not Found。
	ErrNotFound = errors.New("account not found")

	// ErrBadAmount 代表金額非法（<= 0）。
	ErrBadAmount = errors.New("amount must be > 0")

	// ErrMissingAccount 代表必要的來源帳戶為 nil。
	ErrMissingAccount = errors.New("account is required")

	// ErrMissingTransaction 代表要登錄的交易為 nil。
	ErrMissingTransaction = errors.New("transaction is required")

	// ErrMissingCounterparty 代表 CREDIT / TRANSFER 缺少對手帳戶。
	ErrMissingCounterparty = errors.New("counterparty account is required")

	// ErrUnexpectedCounterparty 代表 DEPOSIT / WITHDRAW 帶了對手帳戶。
	ErrUnexpectedCounterparty = errors.New("counterparty account is not allowed for this type")

	// ErrSameAccount 代表轉帳來源與目標帳戶相同。
	ErrSameAccount = errors.New("from and to are same")

	// ErrUnknownType 代表交易類型不在政策表內。
	ErrUnknownType = errors.New("unknown transaction type")

	// ErrUnknownStatus 代表交易狀態字串無法解析。
	ErrUnknownStatus = errors.New("unknown transaction status")

	// ErrHolderName 代表戶名不符合「姓 + 空白 + 單一字母」。
	ErrHolderName = errors.New("holder name must be a surname and a single initial")

	// ErrAccountNumber 代表帳號超出 [100000000, 999999999) 範圍。
	ErrAccountNumber = errors.New("account number out of range")

	// ErrAccountExists 代表帳號已被使用。
	ErrAccountExists = errors.New("account number already in use")

	// ErrDuplicateTransaction 代表交易已存在於帳戶歷史中。
	ErrDuplicateTransaction = errors.New("transaction already registered")

	// ErrMissingID 代表還原的交易缺少識別碼。
	ErrMissingID = errors.New("transaction id is required")

	// ErrStatusTransition 代表狀態只能由 UNCOMMITTED 轉為終態一次。
	ErrStatusTransition = errors.New("invalid transaction status transition")
)

// FormatError 描述格式錯誤的欄位與原始輸入值。
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValidationError 描述被拒絕的交易請求欄位。
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DuplicateError 指出重複登錄的交易 ID。
type DuplicateError struct {
	TransactionID uuid.UUID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.TransactionID, ErrDuplicateTransaction)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateTransaction }

// IsFormatError 回報 err 鏈中是否含 *FormatError。
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsValidationError 回報 err 鏈中是否含 *ValidationError。
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDuplicateError 回報 err 鏈中是否含 *DuplicateError。
func IsDuplicateError(err error) bool {
	var de *DuplicateError
	return errors.As(err, &de)
}
