// internal/bank/bank.go

// Package bank 定義核心商業邏輯：開戶、交易（存款、提款、入帳、轉帳）、查詢歷史與餘額。
// 每個帳戶自帶互斥鎖；跨帳戶操作由 Ledger 依帳號順序上鎖，確保原子完成。
// 金額使用 decimal.Decimal，避免浮點誤差。
package bank

import (
	"fmt"
	"sync"

	"ledger/internal/logging"
	"ledger/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxNumberAttempts 為開戶時帳號碰撞的重試上限。
const maxNumberAttempts = 16

// Bank 為聚合根：管理全部帳戶並把交易轉交 Ledger。
// - mu：保護 accounts 與 order；不在持有 mu 時對帳戶上鎖以外的長時間操作。
// - order：依開戶順序保存帳號，列表輸出維持穩定。
type Bank struct {
	mu       sync.RWMutex
	accounts map[int64]*Account
	order    []int64

	ledger    *Ledger
	logger    *logging.Logger
	metrics   metrics.Recorder
	newNumber func() int64
}

// New 建立空白銀行實例。
func New(opts ...Option) *Bank {
	o := buildOptions(opts)
	return &Bank{
		accounts:  make(map[int64]*Account),
		ledger:    NewLedger(opts...),
		logger:    o.logger.Named("bank"),
		metrics:   o.metrics,
		newNumber: o.newNumber,
	}
}

// CreateAccount 以戶名開戶，帳號隨機產生且保證在本銀行內唯一。
// 連續 maxNumberAttempts 次碰撞時回傳 ErrAccountExists。
func (b *Bank) CreateAccount(holderName string) (*Account, error) {
	name, err := NormalizeHolderName(holderName)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < maxNumberAttempts; i++ {
		n := b.newNumber()
		if _, taken := b.accounts[n]; taken {
			continue
		}
		a, err := NewAccountWithNumber(name, n)
		if err != nil {
			return nil, err
		}
		b.insertLocked(a)
		b.metrics.RecordAccountCreated()
		b.logger.Info("account created", zap.Int64("number", n), zap.String("holder", name))
		return a, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxNumberAttempts, ErrAccountExists)
}

// AddAccount 登錄外部建立的帳戶；帳號已存在時回傳 ErrAccountExists。
func (b *Bank) AddAccount(a *Account) error {
	if a == nil {
		return ErrMissingAccount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.accounts[a.number]; taken {
		return fmt.Errorf("account %d: %w", a.number, ErrAccountExists)
	}
	b.insertLocked(a)
	b.metrics.RecordAccountCreated()
	return nil
}

func (b *Bank) insertLocked(a *Account) {
	b.accounts[a.number] = a
	b.order = append(b.order, a.number)
}

// Account 依帳號取得帳戶；不存在回傳 ErrNotFound。
func (b *Bank) Account(number int64) (*Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.accounts[number]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", number, ErrNotFound)
	}
	return a, nil
}

// Accounts 依開戶順序回傳所有帳戶。
func (b *Bank) Accounts() []*Account {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Account, 0, len(b.order))
	for _, n := range b.order {
		out = append(out, b.accounts[n])
	}
	return out
}

// Len 回傳帳戶數量。
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.accounts)
}

// owns 檢查帳戶是否為本銀行登錄的同一個實例。
func (b *Bank) owns(a *Account) bool {
	if a == nil {
		return true
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accounts[a.number] == a
}

// PerformTransaction 對本銀行的帳戶執行交易；to 僅 CREDIT / TRANSFER 需要。
// 帳戶不屬於本銀行時回傳 ErrNotFound。
func (b *Bank) PerformTransaction(t TransactionType, from *Account, amount decimal.Decimal, to *Account) (*Transaction, error) {
	if from != nil && !b.owns(from) {
		return nil, fmt.Errorf("account %d: %w", from.number, ErrNotFound)
	}
	if to != nil && !b.owns(to) {
		return nil, fmt.Errorf("account %d: %w", to.number, ErrNotFound)
	}
	return b.ledger.Perform(t, from, amount, to)
}

// Request 為以帳號描述的交易請求；To 為 0 代表沒有對手帳戶。
type Request struct {
	Type   TransactionType
	From   int64
	Amount decimal.Decimal
	To     int64
}

// Execute 解析帳號後執行交易。
func (b *Bank) Execute(req Request) (*Transaction, error) {
	r, err := b.Apply(req)
	if err != nil {
		return nil, err
	}
	return r.Transaction, nil
}

// Apply 解析帳號後執行交易，回傳交易與完成當下的來源帳戶餘額。
func (b *Bank) Apply(req Request) (Receipt, error) {
	from, err := b.Account(req.From)
	if err != nil {
		return Receipt{}, err
	}
	var to *Account
	if req.To != 0 {
		if to, err = b.Account(req.To); err != nil {
			return Receipt{}, err
		}
	}
	return b.ledger.Apply(req.Type, from, req.Amount, to)
}

// Deposit 存款至指定帳號。
func (b *Bank) Deposit(number int64, amount decimal.Decimal) (*Transaction, error) {
	return b.Execute(Request{Type: Deposit, From: number, Amount: amount})
}

// Withdraw 自指定帳號提款；餘額不足時回傳 CANCELED 交易。
func (b *Bank) Withdraw(number int64, amount decimal.Decimal) (*Transaction, error) {
	return b.Execute(Request{Type: Withdraw, From: number, Amount: amount})
}

// Transfer 自 from 轉帳至 to。
func (b *Bank) Transfer(from, to int64, amount decimal.Decimal) (*Transaction, error) {
	return b.Execute(Request{Type: Transfer, From: from, Amount: amount, To: to})
}

// Transactions 回傳指定帳號的歷史（依建立順序）。
func (b *Bank) Transactions(number int64) ([]*Transaction, error) {
	a, err := b.Account(number)
	if err != nil {
		return nil, err
	}
	return a.Transactions(), nil
}

// Balance 回傳指定帳號的餘額並記錄快取命中情形。
func (b *Bank) Balance(number int64) (decimal.Decimal, error) {
	a, err := b.Account(number)
	if err != nil {
		return decimal.Zero, err
	}
	v, hit := a.lookupBalance()
	b.metrics.RecordBalanceLookup(hit)
	return v, nil
}
