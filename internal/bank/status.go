// internal/bank/status.go
//
// 交易狀態：UNCOMMITTED 只能轉為 COMMITTED 或 CANCELED 其中之一，兩者皆為終態。
// 只有 COMMITTED 會計入餘額。

package bank

import "strings"

// TransactionStatus 為交易結果標記。
type TransactionStatus string

const (
	StatusUncommitted TransactionStatus = "UNCOMMITTED"
	StatusCommitted   TransactionStatus = "COMMITTED"
	StatusCanceled    TransactionStatus = "CANCELED"
)

// IsCommitted 僅 COMMITTED 為 true。
func (s TransactionStatus) IsCommitted() bool { return s == StatusCommitted }

// IsTerminal 對 COMMITTED 與 CANCELED 為 true。
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCommitted || s == StatusCanceled
}

func (s TransactionStatus) String() string { return string(s) }

// ParseTransactionStatus 不分大小寫解析狀態字串。
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	st := TransactionStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusUncommitted, StatusCommitted, StatusCanceled:
		return st, nil
	}
	return "", &FormatError{Field: "transaction status", Value: s, Err: ErrUnknownStatus}
}
