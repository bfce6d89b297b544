// internal/server/handler.go
//
// Package server 提供 HTTP/JSON 介面，作為 bank 模組的傳輸層。
// 每個 handler 僅負責：
//  1. 解析與驗證 HTTP 請求
//  2. 呼叫 bank 層
//  3. 回傳 JSON 回應
//  4. 狀態變更後呼叫 s.persist()（包含 CANCELED 交易，因為歷史已追加）
//
// 餘額不足不是錯誤：交易以 CANCELED 記錄，回應 409 並附上交易內容。
package server

import (
	"encoding/json"
	"net/http"

	"ledger/internal/bank"
	"ledger/internal/logging"
	"ledger/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server 為 HTTP 層核心結構：
// - Bank：注入的銀行核心。
// - persist：持久化鉤子，server 不需關心儲存實作。
type Server struct {
	Bank    *bank.Bank
	persist func() error

	logger         *logging.Logger
	metrics        metrics.Recorder
	metricsHandler http.Handler
	limiter        *rate.Limiter
}

// Option 調整 Server 的選用元件。
type Option func(*Server)

// WithLogger 設定請求日誌。
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.Named("http")
		}
	}
}

// WithMetrics 設定度量收集器；handler 非 nil 時掛在 GET /metrics。
func WithMetrics(rec metrics.Recorder, handler http.Handler) Option {
	return func(s *Server) {
		if rec != nil {
			s.metrics = rec
		}
		s.metricsHandler = handler
	}
}

// WithRateLimit 以 token bucket 限制整體請求速率；rps <= 0 表示不限。
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewServer 建立 HTTP 伺服器。persist 可為 nil。
func NewServer(b *bank.Bank, persist func() error, opts ...Option) *Server {
	s := &Server{
		Bank:    b,
		persist: persist,
		logger:  logging.NewNop(),
		metrics: metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// save 觸發持久化；失敗只記錄，不影響已完成的回應。
func (s *Server) save(r *http.Request) {
	if s.persist == nil {
		return
	}
	if err := s.persist(); err != nil {
		s.logger.Error("persist failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

// decode 解析 JSON 請求內容；失敗時已寫出 400。
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return false
	}
	return true
}

// accountFromPath 解析 {number} 並取得帳戶；失敗時已寫出錯誤。
func (s *Server) accountFromPath(w http.ResponseWriter, r *http.Request) (*bank.Account, bool) {
	n, err := bank.ParseAccountNumber(chi.URLParam(r, "number"))
	if err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return nil, false
	}
	a, err := s.Bank.Account(n)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return nil, false
	}
	return a, true
}

// health：GET /health。
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"accounts": s.Bank.Len(),
	})
}

// listAccounts：GET /accounts。
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Bank.Accounts())
}

type holderRequest struct {
	HolderName string `json:"holder_name"`
}

// createAccount：POST /accounts {"holder_name": "Ivanov I"}。
func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req holderRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := s.Bank.CreateAccount(req.HolderName)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, a)
	s.save(r)
}

// getAccount：GET /accounts/{number}。
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// renameAccount：PATCH /accounts/{number} {"holder_name": "..."}。
func (s *Server) renameAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req holderRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.SetHolderName(req.HolderName); err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, a)
	s.save(r)
}

// getBalance：GET /accounts/{number}/balance。
func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	a, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	bal, err := s.Bank.Balance(a.Number())
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"number":  a.Number(),
		"balance": bal,
	})
}

// listTransactions：GET /accounts/{number}/transactions。
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	a, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Transactions())
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// deposit：POST /accounts/{number}/deposit {"amount": "100.00"}。
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.single(w, r, bank.Deposit)
}

// withdraw：POST /accounts/{number}/withdraw {"amount": "100.00"}。
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.single(w, r, bank.Withdraw)
}

func (s *Server) single(w http.ResponseWriter, r *http.Request, t bank.TransactionType) {
	a, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	s.execute(w, r, bank.Request{Type: t, From: a.Number(), Amount: req.Amount})
}

type transferRequest struct {
	From   int64           `json:"from"`
	To     int64           `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// transfer：POST /transfer {"from": ..., "to": ..., "amount": ...}。
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decode(w, r, &req) {
		return
	}
	s.execute(w, r, bank.Request{Type: bank.Transfer, From: req.From, Amount: req.Amount, To: req.To})
}

type transactionRequest struct {
	Type   string          `json:"type"`
	From   int64           `json:"from"`
	Amount decimal.Decimal `json:"amount"`
	To     int64           `json:"to,omitempty"`
}

// createTransaction：POST /transactions，通用入口，type 為 DEPOSIT / WITHDRAW / CREDIT / TRANSFER。
func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := bank.ParseTransactionType(req.Type)
	if err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	s.execute(w, r, bank.Request{Type: t, From: req.From, Amount: req.Amount, To: req.To})
}

// transactionResponse 為交易結果：交易本身與交易完成當下的來源帳戶餘額。
type transactionResponse struct {
	Transaction *bank.Transaction `json:"transaction"`
	Balance     decimal.Decimal   `json:"balance"`
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, req bank.Request) {
	rc, err := s.Bank.Apply(req)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	code := http.StatusOK
	if rc.Transaction.Status() == bank.StatusCanceled {
		code = http.StatusConflict
	}
	writeJSON(w, code, transactionResponse{Transaction: rc.Transaction, Balance: rc.Balance})
	s.save(r)
}
