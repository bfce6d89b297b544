// internal/storage/store.go
//
// Store 為 Bank 的儲存協作者：整份快照載入與整份快照保存。
// 後端：JSON 快照檔、SQLite、PostgreSQL；Open 依設定建立並包上斷路器與逾時保護。
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger/internal/logging"
	"ledger/internal/metrics"
)

// 支援的後端名稱。
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var (
	// ErrUnknownBackend 代表設定的後端名稱不支援。
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrCircuitOpen 代表斷路器開啟，請求未送達後端。
	ErrCircuitOpen = errors.New("storage circuit breaker is open")

	// ErrTimeout 代表操作超過設定的逾時。
	ErrTimeout = errors.New("storage operation timed out")
)

// Store loads and saves whole-bank snapshots.
type Store interface {
	Name() string
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Config 為儲存層設定。
type Config struct {
	Backend string        // json | sqlite | postgres
	Path    string        // json 快照檔或 SQLite 資料庫檔路徑
	DSN     string        // PostgreSQL 連線字串
	Timeout time.Duration // 單次 Load / Save 逾時；0 表示不限

	// 斷路器：連續失敗 BreakerFailures 次後開啟，BreakerCooldown 後半開試探。
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Backends 回傳支援的後端名稱。
func Backends() []string {
	return []string{BackendJSON, BackendSQLite, BackendPostgres}
}

// ValidBackend 回報名稱是否為支援的後端。
func ValidBackend(name string) bool {
	for _, b := range Backends() {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}

// Open 依 cfg 建立後端並包上 Resilient。
func Open(ctx context.Context, cfg Config, logger *logging.Logger, rec metrics.Recorder) (Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if rec == nil {
		rec = metrics.NoOp{}
	}

	var (
		backend Store
		err     error
	)
	switch strings.ToLower(cfg.Backend) {
	case BackendJSON, "":
		backend = NewJSONStore(cfg.Path)
	case BackendSQLite:
		backend, err = OpenSQL(ctx, BackendSQLite, cfg.Path)
	case BackendPostgres:
		backend, err = OpenSQL(ctx, BackendPostgres, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewResilient(backend, ResilientConfig{
		Timeout:     cfg.Timeout,
		MaxFailures: cfg.BreakerFailures,
		Cooldown:    cfg.BreakerCooldown,
	}, logger, rec), nil
}
