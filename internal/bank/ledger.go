// internal/bank/ledger.go
//
// Ledger 是唯一決定交易結果並建立 Transaction 的元件。
//
// 規則：
//   - 增加型（DEPOSIT、CREDIT）：無條件 COMMITTED，追加至 from 歷史。
//   - 減少型（WITHDRAW、TRANSFER）：在任何變更之前檢查一次 balance(from) >= amount。
//     足夠則 COMMITTED；TRANSFER 另先在 to 追加一筆鏡像 CREDIT（from=to, to=原 from）。
//     不足則 CANCELED，兩邊餘額皆不變，但交易仍追加到 from 歷史。
//
// 鎖順序：一次操作觸及的所有帳戶依帳號遞增上鎖，檢查到最後一筆追加之間全程持有，
// 因此兩筆方向相反的轉帳不會互鎖，且檢查與扣款之間不會插入其他交易。
package bank

import (
	"errors"
	"slices"
	"sort"

	"ledger/internal/logging"
	"ledger/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger 為交易引擎；零值不可用，請以 NewLedger 建立。
type Ledger struct {
	opts    options
	logger  *logging.Logger
	metrics metrics.Recorder
}

// NewLedger 建立交易引擎。
func NewLedger(opts ...Option) *Ledger {
	o := buildOptions(opts)
	return &Ledger{
		opts:    o,
		logger:  o.logger.Named("ledger"),
		metrics: o.metrics,
	}
}

// Receipt 為交易結果：記錄於 from 歷史的交易，以及仍持有鎖時的 from 餘額。
type Receipt struct {
	Transaction *Transaction
	Balance     decimal.Decimal
}

// Perform 驗證請求、決定結果並追加紀錄，回傳記錄於 from 歷史中的交易。
// 驗證失敗回傳 *ValidationError，此時沒有任何帳戶被修改。
// 餘額不足不是錯誤：回傳的交易狀態為 CANCELED。
func (l *Ledger) Perform(t TransactionType, from *Account, amount decimal.Decimal, to *Account) (*Transaction, error) {
	r, err := l.Apply(t, from, amount, to)
	if err != nil {
		return nil, err
	}
	return r.Transaction, nil
}

// Apply 與 Perform 相同，另回傳本筆交易完成當下的 from 餘額，不受之後其他交易影響。
func (l *Ledger) Apply(t TransactionType, from *Account, amount decimal.Decimal, to *Account) (Receipt, error) {
	if err := validateRequest(t, from, amount, to); err != nil {
		l.reject(t, from, amount, err)
		return Receipt{}, err
	}

	unlock := lockAccounts(from, to)
	defer unlock()

	var (
		tx     *Transaction
		before decimal.Decimal
		err    error
	)
	if t.IsAddition() {
		before, _ = from.balanceLocked()
		tx, err = l.processIncreasing(t, from, amount, to)
	} else {
		tx, before, err = l.processReducing(t, from, amount, to)
	}
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Transaction: tx, Balance: before.Add(tx.effect())}, nil
}

// processIncreasing 呼叫端須已持有 from 與 to 的鎖。
func (l *Ledger) processIncreasing(t TransactionType, from *Account, amount decimal.Decimal, to *Account) (*Transaction, error) {
	tx, err := newTransaction(t, from, amount, to, l.opts.now())
	if err != nil {
		return nil, err
	}
	if err := l.record(tx, StatusCommitted); err != nil {
		return nil, err
	}
	return tx, nil
}

// processReducing 呼叫端須已持有 from 與 to 的鎖；另回傳檢查時的 from 餘額。
func (l *Ledger) processReducing(t TransactionType, from *Account, amount decimal.Decimal, to *Account) (*Transaction, decimal.Decimal, error) {
	tx, err := newTransaction(t, from, amount, to, l.opts.now())
	if err != nil {
		return nil, decimal.Zero, err
	}

	balance, hit := from.balanceLocked()
	l.metrics.RecordBalanceLookup(hit)

	status := StatusCanceled
	if balance.GreaterThanOrEqual(amount) {
		status = StatusCommitted
		if t.HasToAccount() {
			if _, err := l.processIncreasing(Credit, to, amount, from); err != nil {
				return nil, decimal.Zero, err
			}
		}
	}

	if err := l.record(tx, status); err != nil {
		return nil, decimal.Zero, err
	}
	if status == StatusCanceled {
		l.logger.Info("transaction canceled: insufficient funds",
			zap.String("id", tx.id.String()),
			zap.String("type", t.String()),
			zap.Int64("account", from.number),
			zap.Stringer("amount", amount),
			zap.Stringer("balance", balance),
		)
	}
	return tx, balance, nil
}

// record 設定終態並追加到持有人歷史。
func (l *Ledger) record(tx *Transaction, status TransactionStatus) error {
	if err := tx.setStatus(status); err != nil {
		return err
	}
	if err := tx.from.addLocked(tx); err != nil {
		return err
	}
	l.metrics.RecordTransaction(tx.txType.String(), status.String())
	fields := []zap.Field{
		zap.String("id", tx.id.String()),
		zap.String("type", tx.txType.String()),
		zap.Int64("account", tx.from.number),
		zap.Stringer("amount", tx.amount),
		zap.String("status", status.String()),
	}
	if tx.to != nil {
		fields = append(fields, zap.Int64("counterparty", tx.to.number))
	}
	l.logger.Debug("transaction recorded", fields...)
	return nil
}

func (l *Ledger) reject(t TransactionType, from *Account, amount decimal.Decimal, err error) {
	reason := "invalid"
	var ve *ValidationError
	if errors.As(err, &ve) {
		reason = ve.Field
	}
	l.metrics.RecordRejected(reason)

	fields := []zap.Field{
		zap.String("type", t.String()),
		zap.Stringer("amount", amount),
		zap.Error(err),
	}
	if from != nil {
		fields = append(fields, zap.Int64("account", from.number))
	}
	l.logger.Debug("transaction rejected", fields...)
}

// lockAccounts 依帳號遞增鎖住所有非 nil 且不重複的帳戶，回傳解鎖函式。
// 同一組內不同帳戶的帳號必須互異，由 validateRequest 與 Bank 的帳號唯一性保證。
func lockAccounts(accounts ...*Account) func() {
	locked := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		if a != nil {
			locked = append(locked, a)
		}
	}
	sort.Slice(locked, func(i, j int) bool { return locked[i].number < locked[j].number })
	locked = slices.Compact(locked)
	for _, a := range locked {
		a.mu.Lock()
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()
		}
	}
}
