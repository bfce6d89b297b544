// internal/server/router.go
//
// HTTP 路由與中介層。與 handler.go 分離：handler 專注邏輯、router 專注綁定。
// 所有端點同時掛在 /api/v1 與根路徑。
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Router 建立並回傳整個 HTTP 處理鏈。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimit)

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	r.Route("/api/v1", s.routes)
	r.Group(s.routes)
	return r
}

func (s *Server) routes(r chi.Router) {
	r.Get("/health", s.health)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", s.listAccounts)
		r.Post("/", s.createAccount)
		r.Route("/{number}", func(r chi.Router) {
			r.Get("/", s.getAccount)
			r.Patch("/", s.renameAccount)
			r.Get("/balance", s.getBalance)
			r.Get("/transactions", s.listTransactions)
			r.Post("/deposit", s.deposit)
			r.Post("/withdraw", s.withdraw)
		})
	})

	r.Post("/transfer", s.transfer)
	r.Post("/transactions", s.createTransaction)
}

// observe 記錄每個請求的日誌與度量；route 取 chi 的路由樣式以免帳號造成高基數。
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.RecordHTTPRequest(r.Method, route, status, elapsed)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// rateLimit 超過速率時回傳 429。
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
