package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/logging"
	"ledger/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore 依 fail 決定成功或失敗，並記錄實際被呼叫的次數。
type flakyStore struct {
	fail  bool
	delay time.Duration
	calls int
}

func (f *flakyStore) Name() string { return "flaky" }

func (f *flakyStore) Load(ctx context.Context) (Snapshot, error) {
	return Snapshot{}, f.run(ctx)
}

func (f *flakyStore) Save(ctx context.Context, _ Snapshot) error { return f.run(ctx) }

func (f *flakyStore) Close() error { return nil }

func (f *flakyStore) run(ctx context.Context) error {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.fail {
		return errors.New("backend down")
	}
	return nil
}

type storageRecorder struct {
	metrics.NoOp
	ok, failed int
	states     []metrics.CircuitState
}

func (r *storageRecorder) RecordStorage(_ string, success bool, _ time.Duration) {
	if success {
		r.ok++
	} else {
		r.failed++
	}
}

func (r *storageRecorder) RecordCircuitState(_ string, s metrics.CircuitState) {
	r.states = append(r.states, s)
}

func TestResilientOpensAfterConsecutiveFailures(t *testing.T) {
	backend := &flakyStore{fail: true}
	rec := &storageRecorder{}
	r := NewResilient(backend, ResilientConfig{MaxFailures: 3, Cooldown: time.Hour}, logging.NewNop(), rec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := r.Save(ctx, Snapshot{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	err := r.Save(ctx, Snapshot{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, backend.calls)
	assert.Equal(t, 4, rec.failed)
	assert.Equal(t, []metrics.CircuitState{metrics.CircuitOpen}, rec.states)
}

func TestResilientTimeout(t *testing.T) {
	backend := &flakyStore{delay: time.Second}
	r := NewResilient(backend, ResilientConfig{Timeout: 10 * time.Millisecond}, logging.NewNop(), metrics.NoOp{})
	_, err := r.Load(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestResilientPassesThrough(t *testing.T) {
	rec := &storageRecorder{}
	r := NewResilient(&flakyStore{}, ResilientConfig{}, logging.NewNop(), rec)
	_, err := r.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.Save(context.Background(), Snapshot{}))
	assert.Equal(t, 2, rec.ok)
	assert.Equal(t, "flaky", r.Name())
	assert.NoError(t, r.Close())
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Config{Backend: "json", Path: filepath.Join(dir, "a.json")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "json_snapshot", s.Name())
	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	s, err = Open(ctx, Config{Backend: "SQLite", Path: filepath.Join(dir, "a.db")}, nil, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, BackendSQLite, s.Name())
	_, ok := s.(*Resilient).Unwrap().(*SQLStore)
	assert.True(t, ok)

	_, err = Open(ctx, Config{Backend: "redis"}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	assert.True(t, ValidBackend("postgres"))
	assert.False(t, ValidBackend("mysql"))
}
