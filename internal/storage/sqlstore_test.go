package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQL(context.Background(), BackendSQLite, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	orig := sampleSnapshot()

	require.NoError(t, s.Save(ctx, orig))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, orig, loaded)
	assert.Equal(t, BackendSQLite, loaded.Meta.Storage)
}

func TestNewSQLStoreWithExistingDB(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	ctx := context.Background()

	s, err := NewSQLStore(ctx, db, BackendSQLite)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// 建表可重複執行
	_, err = NewSQLStore(ctx, db, BackendSQLite)
	require.NoError(t, err)

	orig := sampleSnapshot()
	require.NoError(t, s.Save(ctx, orig))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, orig, loaded)
}

func TestSQLiteSaveReplacesEverything(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	smaller := sampleSnapshot()
	smaller.Accounts = smaller.Accounts[:1]
	smaller.Accounts[0].Transactions = smaller.Accounts[0].Transactions[:1]
	require.NoError(t, s.Save(ctx, smaller))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, smaller, loaded)
}

func TestSQLiteFailedSaveRollsBack(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	orig := sampleSnapshot()
	require.NoError(t, s.Save(ctx, orig))

	// 重複帳號觸發主鍵衝突，整筆交易應回滾
	bad := sampleSnapshot()
	bad.Accounts = append(bad.Accounts, bad.Accounts[0])
	require.Error(t, s.Save(ctx, bad))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, orig, loaded)
}

func TestSQLiteEmptyDatabase(t *testing.T) {
	loaded, err := openSQLite(t).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded.Accounts)
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: BackendPostgres}
	assert.Equal(t, "INSERT INTO t VALUES ($1, $2, $3)", pg.rebind("INSERT INTO t VALUES (?, ?, ?)"))
	lite := &SQLStore{dialect: BackendSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestOpenSQLUnknownDialect(t *testing.T) {
	_, err := OpenSQL(context.Background(), "oracle", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

// TestPostgresRoundTrip 需要 Docker；設定 LEDGER_TEST_DOCKER=true 才會執行。
func TestPostgresRoundTrip(t *testing.T) {
	if os.Getenv("LEDGER_TEST_DOCKER") != "true" {
		t.Skip("set LEDGER_TEST_DOCKER=true to run PostgreSQL integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ledger",
				"POSTGRES_PASSWORD": "ledger",
				"POSTGRES_DB":       "ledger",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := "postgres://ledger:ledger@" + host + ":" + port.Port() + "/ledger?sslmode=disable"

	s, err := OpenSQL(ctx, BackendPostgres, dsn)
	require.NoError(t, err)
	defer s.Close()

	orig := sampleSnapshot()
	require.NoError(t, s.Save(ctx, orig))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, orig, loaded)
}
