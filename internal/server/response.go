// internal/server/response.go
//
// 統一 HTTP 回應格式：成功以 writeJSON，錯誤以 writeErr 輸出 {"error": "..."}。
// 領域錯誤到狀態碼的對應集中在 statusFor。
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/bank"
)

// errorBody 為錯誤回應格式。
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON 統一輸出成功回應。
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 統一輸出錯誤回應。
func writeErr(w http.ResponseWriter, err error, code int) {
	writeJSON(w, code, errorBody{Error: err.Error()})
}

// statusFor 將領域錯誤對應到 HTTP 狀態碼。
//   - 格式與驗證錯誤 → 400
//   - 帳戶不存在 → 404
//   - 帳號或交易重複 → 409
//   - 其他（儲存層等）→ 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return http.StatusNotFound
	case bank.IsFormatError(err), bank.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, bank.ErrAccountExists), bank.IsDuplicateError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
