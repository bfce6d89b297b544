// internal/storage/jsonstore_test.go
//
// 驗證 JSON 快照的寫入與讀回：欄位、順序與 Meta 皆一致，且使用 t.TempDir() 不汙染本機環境。
package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleSnapshot 建立兩個帳戶、含一筆轉帳與其鏡像入帳的快照。
func sampleSnapshot() Snapshot {
	from, to := int64(111111111), int64(222222222)
	created := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.UTC)
	return Snapshot{
		Meta: Meta{Version: SchemaVersion, Note: "test"},
		Accounts: []PersistAccount{
			{Number: from, HolderName: "Ivanov I", Transactions: []PersistTransaction{
				{ID: uuid.New(), CreatedAt: created, Type: "DEPOSIT", Amount: decimal.RequireFromString("100.50"), Status: "COMMITTED"},
				{ID: uuid.New(), CreatedAt: created.Add(time.Second), Type: "TRANSFER", Amount: decimal.RequireFromString("40"), ToAccount: &to, Status: "COMMITTED"},
				{ID: uuid.New(), CreatedAt: created.Add(2 * time.Second), Type: "WITHDRAW", Amount: decimal.RequireFromString("999"), Status: "CANCELED"},
			}},
			{Number: to, HolderName: "Smirnov S", Transactions: []PersistTransaction{
				{ID: uuid.New(), CreatedAt: created.Add(time.Second), Type: "CREDIT", Amount: decimal.RequireFromString("40"), ToAccount: &from, Status: "COMMITTED"},
			}},
		},
	}
}

// assertSameSnapshot 比對帳戶與交易內容（不比對 Meta）。
func assertSameSnapshot(t *testing.T, want, got Snapshot) {
	t.Helper()
	require.Len(t, got.Accounts, len(want.Accounts))
	for i, wa := range want.Accounts {
		ga := got.Accounts[i]
		assert.Equal(t, wa.Number, ga.Number)
		assert.Equal(t, wa.HolderName, ga.HolderName)
		require.Len(t, ga.Transactions, len(wa.Transactions))
		for j, wt := range wa.Transactions {
			gt := ga.Transactions[j]
			assert.Equal(t, wt.ID, gt.ID)
			assert.True(t, wt.CreatedAt.Equal(gt.CreatedAt), "created_at %v vs %v", wt.CreatedAt, gt.CreatedAt)
			assert.Equal(t, wt.Type, gt.Type)
			assert.True(t, wt.Amount.Equal(gt.Amount), "amount %s vs %s", wt.Amount, gt.Amount)
			assert.Equal(t, wt.ToAccount, gt.ToAccount)
			assert.Equal(t, wt.Status, gt.Status)
		}
	}
}

func TestJSONSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "data.json")
	orig := sampleSnapshot()

	// 1️⃣ 寫入 JSON 檔案
	require.NoError(t, SaveSnapshot(path, orig))
	_, err := os.Stat(path)
	require.NoError(t, err, "snapshot not written")
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")

	// 2️⃣ 從 JSON 檔案重新載入
	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	// 3️⃣ 驗證內容與 Meta
	assertSameSnapshot(t, orig, loaded)
	assert.Equal(t, "json_snapshot", loaded.Meta.Storage)
	assert.Equal(t, SchemaVersion, loaded.Meta.Version)
	assert.False(t, loaded.Meta.Timestamp.IsZero())
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"))
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Accounts)
	assert.Equal(t, "json_snapshot", s.Name())
	assert.NoError(t, s.Close())
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewJSONStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestJSONStoreHonorsCanceledContext(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "data.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, sampleSnapshot()), context.Canceled)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
