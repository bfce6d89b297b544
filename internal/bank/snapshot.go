// internal/bank/snapshot.go
//
// Bank 與 storage.Snapshot 之間的轉換。
// 還原時先在暫存結構上重建並檢查全部帳戶與交易，全部通過才替換現有狀態；
// 任何問題都以 multierr 彙整回傳，Bank 保持原狀。

package bank

import (
	"context"
	"fmt"
	"time"

	"ledger/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Store 為 Bank 載入與保存快照所需的儲存協作者。
type Store interface {
	Load(ctx context.Context) (storage.Snapshot, error)
	Save(ctx context.Context, snap storage.Snapshot) error
}

// Snapshot 匯出所有帳戶（依開戶順序）與完整交易歷史。
// 複製期間依帳號順序持有全部帳戶鎖，轉帳的兩筆紀錄必定同時出現或同時不出現。
func (b *Bank) Snapshot() storage.Snapshot {
	accounts := b.Accounts()
	s := storage.Snapshot{
		Meta: storage.Meta{Version: storage.SchemaVersion},
	}
	s.Accounts = make([]storage.PersistAccount, 0, len(accounts))

	unlock := lockAccounts(accounts...)
	defer unlock()
	for _, a := range accounts {
		pa := storage.PersistAccount{
			Number:       a.number,
			HolderName:   a.holderName,
			Transactions: make([]storage.PersistTransaction, 0, len(a.transactions)),
		}
		for _, t := range a.transactions {
			pa.Transactions = append(pa.Transactions, persistTransaction(t))
		}
		s.Accounts = append(s.Accounts, pa)
	}
	return s
}

func persistTransaction(t *Transaction) storage.PersistTransaction {
	pt := storage.PersistTransaction{
		ID:        t.id,
		CreatedAt: t.createdAt,
		Type:      t.txType.String(),
		Amount:    t.amount,
		Status:    t.status.String(),
	}
	if t.to != nil {
		n := t.to.number
		pt.ToAccount = &n
	}
	return pt
}

// Restore 以快照取代目前所有帳戶。交易的 ID、時間戳與狀態原樣保留，對手帳戶依帳號解析。
// 快照有任何問題時回傳彙整錯誤，且不修改 Bank。
func (b *Bank) Restore(s storage.Snapshot) error {
	accounts := make(map[int64]*Account, len(s.Accounts))
	order := make([]int64, 0, len(s.Accounts))
	var errs error

	for _, pa := range s.Accounts {
		a, err := NewAccountWithNumber(pa.HolderName, pa.Number)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("account %d: %w", pa.Number, err))
			continue
		}
		if _, dup := accounts[a.number]; dup {
			errs = multierr.Append(errs, fmt.Errorf("account %d: %w", a.number, ErrAccountExists))
			continue
		}
		accounts[a.number] = a
		order = append(order, a.number)
	}

	for _, pa := range s.Accounts {
		owner, ok := accounts[pa.Number]
		if !ok {
			continue
		}
		for i, pt := range pa.Transactions {
			t, err := restoreTransaction(pt, owner, accounts)
			if err == nil {
				err = owner.addLocked(t)
			}
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("account %d transaction %d (%s): %w", pa.Number, i, pt.ID, err))
			}
		}
	}
	if errs != nil {
		return errs
	}

	b.mu.Lock()
	b.accounts = accounts
	b.order = order
	b.mu.Unlock()
	return nil
}

// restoreTransaction 依持久化欄位重建已決定狀態的交易；帳戶尚未對外公開，不需上鎖。
func restoreTransaction(pt storage.PersistTransaction, owner *Account, accounts map[int64]*Account) (*Transaction, error) {
	t, err := ParseTransactionType(pt.Type)
	if err != nil {
		return nil, err
	}
	status, err := ParseTransactionStatus(pt.Status)
	if err != nil {
		return nil, err
	}
	if !status.IsTerminal() {
		return nil, ErrStatusTransition
	}
	if pt.ID == uuid.Nil {
		return nil, &ValidationError{Field: "id", Err: ErrMissingID}
	}

	var to *Account
	if pt.ToAccount != nil {
		var ok bool
		if to, ok = accounts[*pt.ToAccount]; !ok {
			return nil, fmt.Errorf("counterparty %d: %w", *pt.ToAccount, ErrNotFound)
		}
	}
	if err := validateRequest(t, owner, pt.Amount, to); err != nil {
		return nil, err
	}
	return &Transaction{
		id:        pt.ID,
		createdAt: pt.CreatedAt,
		from:      owner,
		txType:    t,
		amount:    pt.Amount,
		to:        to,
		status:    status,
	}, nil
}

// Load 自 store 讀取快照並還原。
func (b *Bank) Load(ctx context.Context, store Store) error {
	start := time.Now()
	snap, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := b.Restore(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	b.logger.Info("bank restored",
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("transactions", snap.TransactionCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Save 將目前狀態寫入 store。
func (b *Bank) Save(ctx context.Context, store Store) error {
	snap := b.Snapshot()
	if err := store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	b.logger.Debug("bank saved",
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("transactions", snap.TransactionCount()),
	)
	return nil
}
