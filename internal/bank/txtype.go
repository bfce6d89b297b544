// internal/bank/txtype.go
//
// 交易類型政策表：每種類型是否「增加」持有人餘額、是否需要對手帳戶。
// 以 map 查表取代繼承，新增類型只需在 policies 補一列。

package bank

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement.
type TransactionType string

const (
	Deposit  TransactionType = "DEPOSIT"
	Withdraw TransactionType = "WITHDRAW"
	Credit   TransactionType = "CREDIT"
	Transfer TransactionType = "TRANSFER"
)

type typePolicy struct {
	addition     bool
	hasToAccount bool
}

var policies = map[TransactionType]typePolicy{
	Deposit:  {addition: true, hasToAccount: false},
	Withdraw: {addition: false, hasToAccount: false},
	Credit:   {addition: true, hasToAccount: true},
	Transfer: {addition: false, hasToAccount: true},
}

// TransactionTypes 依固定順序回傳所有類型。
func TransactionTypes() []TransactionType {
	return []TransactionType{Deposit, Withdraw, Credit, Transfer}
}

// ParseTransactionType 不分大小寫解析類型字串。
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &FormatError{Field: "transaction type", Value: s, Err: ErrUnknownType}
	}
	return t, nil
}

// Valid 回報類型是否在政策表內。
func (t TransactionType) Valid() bool {
	_, ok := policies[t]
	return ok
}

// IsAddition 為 true 時，已提交交易會增加持有人餘額。
func (t TransactionType) IsAddition() bool {
	return policies[t].addition
}

// HasToAccount 為 true 時，交易必須帶對手帳戶。
func (t TransactionType) HasToAccount() bool {
	return policies[t].hasToAccount
}

func (t TransactionType) String() string { return string(t) }

// signed 依類型方向回傳 +amount 或 -amount。
func (t TransactionType) signed(amount decimal.Decimal) decimal.Decimal {
	if t.IsAddition() {
		return amount
	}
	return amount.Neg()
}
