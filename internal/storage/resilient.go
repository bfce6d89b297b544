// internal/storage/resilient.go
//
// Resilient 以斷路器與逾時包裝任一 Store。
// 後端持續失敗時斷路器開啟，後續請求直接回傳 ErrCircuitOpen，不再等待後端。
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger/internal/logging"
	"ledger/internal/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ResilientConfig 為斷路器與逾時設定；零值採用預設。
type ResilientConfig struct {
	Timeout     time.Duration
	MaxFailures uint32
	Cooldown    time.Duration
}

// Resilient wraps a Store with a circuit breaker and per-call timeout.
type Resilient struct {
	store   Store
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *logging.Logger
	metrics metrics.Recorder
}

// NewResilient 建立包裝後的 Store。
func NewResilient(store Store, cfg ResilientConfig, logger *logging.Logger, rec metrics.Recorder) *Resilient {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	r := &Resilient{
		store:   store,
		timeout: cfg.Timeout,
		logger:  logger.Named("storage").With(zap.String("backend", store.Name())),
		metrics: rec,
	}
	name := "storage." + store.Name()
	r.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			var state metrics.CircuitState
			switch to {
			case gobreaker.StateClosed:
				state = metrics.CircuitClosed
			case gobreaker.StateHalfOpen:
				state = metrics.CircuitHalfOpen
			case gobreaker.StateOpen:
				state = metrics.CircuitOpen
			}
			r.metrics.RecordCircuitState(name, state)
		},
	})
	return r
}

func (r *Resilient) Name() string { return r.store.Name() }

// Unwrap 回傳被包裝的後端。
func (r *Resilient) Unwrap() Store { return r.store }

// Load 經斷路器與逾時保護讀取快照。
func (r *Resilient) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.do(ctx, "load", func(ctx context.Context) error {
		var err error
		snap, err = r.store.Load(ctx)
		return err
	})
	if err == nil {
		r.logger.Debug("snapshot loaded",
			zap.Int("accounts", len(snap.Accounts)),
			zap.Int("transactions", snap.TransactionCount()),
		)
	}
	return snap, err
}

// Save 經斷路器與逾時保護寫入快照。
func (r *Resilient) Save(ctx context.Context, snap Snapshot) error {
	err := r.do(ctx, "save", func(ctx context.Context) error {
		return r.store.Save(ctx, snap)
	})
	if err == nil {
		r.logger.Debug("snapshot saved",
			zap.Int("accounts", len(snap.Accounts)),
			zap.Int("transactions", snap.TransactionCount()),
		)
	}
	return err
}

func (r *Resilient) Close() error { return r.store.Close() }

func (r *Resilient) do(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	elapsed := time.Since(start)
	r.metrics.RecordStorage(op, err == nil, elapsed)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		r.logger.Warn("circuit breaker open - request rejected", zap.String("operation", op))
		return fmt.Errorf("%s: %w", op, ErrCircuitOpen)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.logger.Warn("operation timeout",
			zap.String("operation", op),
			zap.Duration("timeout", r.timeout),
			zap.Duration("elapsed", elapsed),
		)
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	r.logger.Error("storage operation failed", zap.String("operation", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
