// internal/storage/sqlstore.go
//
// SQL 後端，支援 SQLite（modernc.org/sqlite，純 Go）與 PostgreSQL（lib/pq）。
// 資料表：
//   - accounts：帳號、戶名、position（開戶順序）
//   - transactions：交易，seq 保存帳戶歷史順序
//
// Save 為「整份取代」：在單一 SQL 交易內清空後重寫，失敗時整筆回滾。
// 金額以十進位字串保存，避免 NUMERIC 與浮點在兩種方言間的差異。
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLStore 以 database/sql 保存快照。
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// OpenSQL 開啟連線、確認可用並建立資料表。
// dialect 為 BackendSQLite 或 BackendPostgres；SQLite 的 source 為檔案路徑。
func OpenSQL(ctx context.Context, dialect, source string) (*SQLStore, error) {
	var driver string
	switch dialect {
	case BackendSQLite:
		driver = "sqlite"
	case BackendPostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, dialect)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == BackendSQLite {
		// SQLite 單一寫入者
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	s, err := NewSQLStore(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore 以既有連線建立後端並建立資料表，測試或外部連線池使用。
func NewSQLStore(ctx context.Context, db *sql.DB, dialect string) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return s, nil
}

func (s *SQLStore) Name() string { return s.dialect }

func (s *SQLStore) Close() error { return s.db.Close() }

// Migrations 回傳建表語句，每個字串為單一語句。
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			number      BIGINT PRIMARY KEY,
			holder_name TEXT NOT NULL,
			position    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id             TEXT PRIMARY KEY,
			account_number BIGINT NOT NULL REFERENCES accounts(number) ON DELETE CASCADE,
			seq            INTEGER NOT NULL,
			created_at     TEXT NOT NULL,
			type           TEXT NOT NULL,
			amount         TEXT NOT NULL,
			to_account     BIGINT,
			status         TEXT NOT NULL,
			UNIQUE(account_number, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_number, seq)`,
	}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, q := range Migrations() {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// rebind 將 ? 佔位符轉為 PostgreSQL 的 $n。
func (s *SQLStore) rebind(q string) string {
	if s.dialect != BackendPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Load 讀回所有帳戶（依 position）與交易（依 seq）。
func (s *SQLStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Meta: Meta{Storage: s.dialect, Version: SchemaVersion, Timestamp: time.Now().UTC()}}

	rows, err := s.db.QueryContext(ctx, `SELECT number, holder_name FROM accounts ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("query accounts: %w", err)
	}
	index := make(map[int64]int)
	for rows.Next() {
		var pa PersistAccount
		if err := rows.Scan(&pa.Number, &pa.HolderName); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan account: %w", err)
		}
		pa.Transactions = []PersistTransaction{}
		index[pa.Number] = len(snap.Accounts)
		snap.Accounts = append(snap.Accounts, pa)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return snap, err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT id, account_number, created_at, type, amount, to_account, status
		FROM transactions ORDER BY account_number, seq`)
	if err != nil {
		return snap, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, createdAt, txType, amount, status string
			owner                                 int64
			to                                    sql.NullInt64
		)
		if err := rows.Scan(&id, &owner, &createdAt, &txType, &amount, &to, &status); err != nil {
			return snap, fmt.Errorf("scan transaction: %w", err)
		}
		pt, err := decodeTransaction(id, createdAt, txType, amount, to, status)
		if err != nil {
			return snap, err
		}
		i, ok := index[owner]
		if !ok {
			return snap, fmt.Errorf("transaction %s: owner account %d missing", id, owner)
		}
		snap.Accounts[i].Transactions = append(snap.Accounts[i].Transactions, pt)
	}
	return snap, rows.Err()
}

func decodeTransaction(id, createdAt, txType, amount string, to sql.NullInt64, status string) (PersistTransaction, error) {
	pt := PersistTransaction{Type: txType, Status: status}
	var err error
	if pt.ID, err = uuid.Parse(id); err != nil {
		return pt, fmt.Errorf("transaction id %q: %w", id, err)
	}
	if pt.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return pt, fmt.Errorf("transaction %s created_at: %w", id, err)
	}
	if pt.Amount, err = decimal.NewFromString(amount); err != nil {
		return pt, fmt.Errorf("transaction %s amount: %w", id, err)
	}
	if to.Valid {
		n := to.Int64
		pt.ToAccount = &n
	}
	return pt, nil
}

// Save 在單一 SQL 交易內以快照取代全部資料。
func (s *SQLStore) Save(ctx context.Context, snap Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, q := range []string{`DELETE FROM transactions`, `DELETE FROM accounts`} {
		if _, err = tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}

	insAccount, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO accounts (number, holder_name, position) VALUES (?, ?, ?)`))
	if err != nil {
		return err
	}
	defer insAccount.Close()
	insTx, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO transactions (id, account_number, seq, created_at, type, amount, to_account, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer insTx.Close()

	for pos, pa := range snap.Accounts {
		if _, err = insAccount.ExecContext(ctx, pa.Number, pa.HolderName, pos); err != nil {
			return fmt.Errorf("insert account %d: %w", pa.Number, err)
		}
	}
	for _, pa := range snap.Accounts {
		for seq, pt := range pa.Transactions {
			var to sql.NullInt64
			if pt.ToAccount != nil {
				to = sql.NullInt64{Int64: *pt.ToAccount, Valid: true}
			}
			_, err = insTx.ExecContext(ctx,
				pt.ID.String(), pa.Number, seq,
				pt.CreatedAt.UTC().Format(time.RFC3339Nano),
				pt.Type, pt.Amount.String(), to, pt.Status,
			)
			if err != nil {
				return fmt.Errorf("insert transaction %s: %w", pt.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
