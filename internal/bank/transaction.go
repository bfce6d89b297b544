// internal/bank/transaction.go
//
// Transaction 為一次資金移動嘗試的不可變紀錄，外加一個可變的結果狀態。
// 只有 Ledger 會建立 Transaction 並決定其狀態；進入任何帳戶歷史前狀態必為終態。

package bank

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction represents one money movement attempt.
type Transaction struct {
	id        uuid.UUID
	createdAt time.Time
	from      *Account
	txType    TransactionType
	amount    decimal.Decimal
	to        *Account
	status    TransactionStatus
}

// validateRequest 檢查建構交易所需的全部欄位；任何帳戶都尚未被觸碰。
func validateRequest(t TransactionType, from *Account, amount decimal.Decimal, to *Account) error {
	if !t.Valid() {
		return &ValidationError{Field: "type", Err: ErrUnknownType}
	}
	if from == nil {
		return &ValidationError{Field: "from", Err: ErrMissingAccount}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrBadAmount}
	}
	if t.HasToAccount() {
		if to == nil {
			return &ValidationError{Field: "to", Err: ErrMissingCounterparty}
		}
		if to == from || to.number == from.number {
			return &ValidationError{Field: "to", Err: ErrSameAccount}
		}
	} else if to != nil {
		return &ValidationError{Field: "to", Err: ErrUnexpectedCounterparty}
	}
	return nil
}

// newTransaction 建立狀態為 UNCOMMITTED 的新交易。
func newTransaction(t TransactionType, from *Account, amount decimal.Decimal, to *Account, now time.Time) (*Transaction, error) {
	if err := validateRequest(t, from, amount, to); err != nil {
		return nil, err
	}
	return &Transaction{
		id:        uuid.New(),
		createdAt: now,
		from:      from,
		txType:    t,
		amount:    amount,
		to:        to,
		status:    StatusUncommitted,
	}, nil
}

// ID 回傳交易唯一識別碼。
func (t *Transaction) ID() uuid.UUID { return t.id }

// CreatedAt 回傳建立時間。
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }

// From 回傳記錄此交易的帳戶。
func (t *Transaction) From() *Account { return t.from }

// To 回傳對手帳戶；DEPOSIT / WITHDRAW 為 nil。
func (t *Transaction) To() *Account { return t.to }

// Type 回傳交易類型。
func (t *Transaction) Type() TransactionType { return t.txType }

// Amount 回傳正數金額。
func (t *Transaction) Amount() decimal.Decimal { return t.amount }

// Status 回傳目前狀態。
func (t *Transaction) Status() TransactionStatus { return t.status }

// setStatus 只允許 UNCOMMITTED 轉為終態一次。
func (t *Transaction) setStatus(s TransactionStatus) error {
	if t.status != StatusUncommitted || !s.IsTerminal() {
		return ErrStatusTransition
	}
	t.status = s
	return nil
}

// effect 回傳此交易對 from 帳戶餘額的影響；未提交者為 0。
func (t *Transaction) effect() decimal.Decimal {
	if !t.status.IsCommitted() {
		return decimal.Zero
	}
	return t.txType.signed(t.amount)
}

// transactionView 為 JSON 輸出格式，帳戶以帳號表示避免循環參照。
type transactionView struct {
	ID        uuid.UUID         `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Type      TransactionType   `json:"type"`
	Amount    decimal.Decimal   `json:"amount"`
	From      int64             `json:"from_account"`
	To        *int64            `json:"to_account,omitempty"`
	Status    TransactionStatus `json:"status"`
}

// MarshalJSON implements json.Marshaler.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	v := transactionView{
		ID:        t.id,
		CreatedAt: t.createdAt,
		Type:      t.txType,
		Amount:    t.amount,
		From:      t.from.Number(),
		Status:    t.status,
	}
	if t.to != nil {
		n := t.to.Number()
		v.To = &n
	}
	return json.Marshal(v)
}
