// internal/storage/model.go
//
// 定義儲存層的資料模型。此層不依賴 bank 套件，只認得純資料：
// 帳戶以帳號識別，交易以 UUID 識別，對手帳戶以帳號表示。
// 交易順序即帳戶歷史順序，各後端必須原樣保留。
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SchemaVersion 為目前快照結構版本。
const SchemaVersion = 2

// Meta 為所有持久化快照的中繼資料。
type Meta struct {
	Storage   string    `json:"storage"`        // 儲存類型，例如 "json_snapshot"、"sqlite"
	Version   int       `json:"version"`        // 結構版本號
	Timestamp time.Time `json:"timestamp"`      // 快照建立時間
	Note      string    `json:"note,omitempty"` // 備註欄
}

// PersistTransaction 為交易在儲存層的序列化格式。
type PersistTransaction struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	ToAccount *int64          `json:"to_account,omitempty"`
	Status    string          `json:"status"`
}

// PersistAccount 為帳戶在儲存層的序列化格式，Transactions 依歷史順序排列。
type PersistAccount struct {
	Number       int64                `json:"number"`
	HolderName   string               `json:"holder_name"`
	Transactions []PersistTransaction `json:"transactions"`
}

// Snapshot 為 Bank 狀態的完整快照。
type Snapshot struct {
	Meta     Meta             `json:"_meta"`
	Accounts []PersistAccount `json:"accounts"`
}

// TransactionCount 回傳快照內的交易總數。
func (s Snapshot) TransactionCount() int {
	n := 0
	for _, a := range s.Accounts {
		n += len(a.Transactions)
	}
	return n
}
