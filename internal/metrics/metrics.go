// Package metrics 定義帳本的度量介面。
// 核心套件只依賴 Recorder；實際輸出（Prometheus 等）由 metrics/prometheus 提供。
package metrics

import "time"

// Recorder 收集帳本、儲存層與 HTTP 層的度量。
type Recorder interface {
	// RecordTransaction 在交易被記錄到帳戶歷史後呼叫，status 為終態。
	RecordTransaction(txType, status string)
	// RecordRejected 在請求於建立交易前被拒絕時呼叫。
	RecordRejected(reason string)
	RecordAccountCreated()
	RecordBalanceLookup(hit bool)
	RecordStorage(op string, success bool, duration time.Duration)
	RecordCircuitState(name string, state CircuitState)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// CircuitState 為斷路器狀態。
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOp 不記錄任何度量，作為預設值。
type NoOp struct{}

func (NoOp) RecordTransaction(string, string) {}
func (NoOp) RecordRejected(string) {}
func (NoOp) RecordAccountCreated() {}
func (NoOp) RecordBalanceLookup(bool) {}
func (NoOp) RecordStorage(string, bool, time.Duration) {}
func (NoOp) RecordCircuitState(string, CircuitState) {}
func (NoOp) RecordHTTPRequest(string, string, int, time.Duration) {}
