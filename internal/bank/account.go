// internal/bank/account.go
//
// Account：擁有依建立順序排列、只增不減的交易歷史與餘額快取，不含任何 HTTP 或儲存細節。

package bank

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a bank account.
// mu 保護 holderName、transactions、ids 與 balance；number 建立後不變。
type Account struct {
	mu           sync.Mutex
	number       int64
	holderName   string
	transactions []*Transaction
	ids          map[uuid.UUID]struct{}
	balance      balanceCache
}

// NewAccount 以戶名建立帳戶並隨機產生帳號。
// 產生的帳號不與既有帳戶比對；需要唯一性請透過 Bank.CreateAccount。
func NewAccount(holderName string) (*Account, error) {
	return NewAccountWithNumber(holderName, generateAccountNumber())
}

// NewAccountWithNumber 以指定帳號建立帳戶；帳號超出範圍或戶名格式錯誤回傳 *FormatError。
func NewAccountWithNumber(holderName string, number int64) (*Account, error) {
	name, err := NormalizeHolderName(holderName)
	if err != nil {
		return nil, err
	}
	if err := ValidateAccountNumber(number); err != nil {
		return nil, err
	}
	return &Account{
		number:     number,
		holderName: name,
		ids:        make(map[uuid.UUID]struct{}),
	}, nil
}

// Number 回傳 9 位數帳號。
func (a *Account) Number() int64 { return a.number }

// HolderName 回傳正規化後的戶名。
func (a *Account) HolderName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holderName
}

// SetHolderName 重新驗證並正規化戶名；失敗時保留原值。
func (a *Account) SetHolderName(name string) error {
	normalized, err := NormalizeHolderName(name)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.holderName = normalized
	a.mu.Unlock()
	return nil
}

// Balance 回傳已提交交易的加總；快取有效時 O(1)。
func (a *Account) Balance() decimal.Decimal {
	v, _ := a.lookupBalance()
	return v
}

// Transactions 回傳歷史的淺拷貝，呼叫端修改切片不影響帳戶。
func (a *Account) Transactions() []*Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Transaction, len(a.transactions))
	copy(out, a.transactions)
	return out
}

// AddTransaction 追加一筆交易並使餘額快取失效。
// t 為 nil 時回傳 *ValidationError；已存在（同一 ID）時回傳 *DuplicateError，歷史不變。
func (a *Account) AddTransaction(t *Transaction) error {
	if t == nil {
		return &ValidationError{Field: "transaction", Err: ErrMissingTransaction}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addLocked(t)
}

func (a *Account) lookupBalance() (decimal.Decimal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balanceLocked()
}

// 以下 *Locked 方法要求呼叫端已持有 a.mu。

func (a *Account) balanceLocked() (decimal.Decimal, bool) {
	return a.balance.get(func() decimal.Decimal {
		return foldBalance(a.transactions)
	})
}

func (a *Account) addLocked(t *Transaction) error {
	if _, ok := a.ids[t.id]; ok {
		return &DuplicateError{TransactionID: t.id}
	}
	a.ids[t.id] = struct{}{}
	a.transactions = append(a.transactions, t)
	a.balance.invalidate()
	return nil
}

// accountView 為 JSON 輸出格式；交易歷史另由 /transactions 提供。
type accountView struct {
	Number     int64           `json:"number"`
	HolderName string          `json:"holder_name"`
	Balance    decimal.Decimal `json:"balance"`
	TxCount    int             `json:"transaction_count"`
}

// MarshalJSON implements json.Marshaler.
func (a *Account) MarshalJSON() ([]byte, error) {
	a.mu.Lock()
	bal, _ := a.balanceLocked()
	v := accountView{
		Number:     a.number,
		HolderName: a.holderName,
		Balance:    bal,
		TxCount:    len(a.transactions),
	}
	a.mu.Unlock()
	return json.Marshal(v)
}
