// internal/storage/jsonstore.go
//
// JSON 快照檔後端。
// 採「原子寫入」：先寫入 .tmp 檔，再以 rename() 取代原檔，寫入中斷時原檔不會損壞。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// JSONStore 將快照存為單一 JSON 檔。
type JSONStore struct {
	path string
}

// NewJSONStore 建立以 path 為快照檔的後端；檔案不需事先存在。
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Name() string { return "json_snapshot" }

// Load 讀取快照；檔案不存在時回傳空快照，視為全新銀行。
func (s *JSONStore) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	snap, err := LoadSnapshot(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{Meta: Meta{Storage: s.Name(), Version: SchemaVersion}}, nil
	}
	return snap, err
}

// Save 以原子方式寫入快照。
func (s *JSONStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return SaveSnapshot(s.path, snap)
}

func (s *JSONStore) Close() error { return nil }

// LoadSnapshot 讀取指定路徑的 JSON 快照。
func LoadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&snap)
	return snap, err
}

// SaveSnapshot 將 Snapshot 寫入 path+".tmp" 後 rename 取代正式檔案。
func SaveSnapshot(path string, snap Snapshot) error {
	snap.Meta.Storage = "json_snapshot"
	snap.Meta.Version = SchemaVersion
	snap.Meta.Timestamp = time.Now().UTC()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	// 縮排輸出，方便人工檢視
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
