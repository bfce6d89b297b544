// internal/bank/balance.go
//
// balanceCache 是帳戶專屬的餘額快取（memoized fold）。
// 不變式：valid 為 true 時，value 等於所有 COMMITTED 交易依方向加總的結果。
// 任何歷史追加都必須先 invalidate，下次讀取時才重新計算。
// 本型別本身不加鎖，由持有它的 Account.mu 保護。

package bank

import "github.com/shopspring/decimal"

type balanceCache struct {
	valid bool
	value decimal.Decimal
}

// get 快取有效時直接回傳；否則以 fold 重算並寫回。hit 表示是否命中。
func (c *balanceCache) get(fold func() decimal.Decimal) (value decimal.Decimal, hit bool) {
	if c.valid {
		return c.value, true
	}
	c.value = fold()
	c.valid = true
	return c.value, false
}

func (c *balanceCache) invalidate() {
	c.valid = false
}

// foldBalance 對整段歷史做完整加總，只計入已提交交易。
func foldBalance(txs []*Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(t.effect())
	}
	return sum
}
