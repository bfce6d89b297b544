// internal/cli/serve.go
//
// ledger serve：載入快照 → 啟動 HTTP 服務。
// errgroup 同時管理三件事：HTTP 伺服器、定期自動保存、關機訊號；任一結束即全部收尾，
// 最後再保存一次狀態。
package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ledger/internal/bank"
	"ledger/internal/logging"
	"ledger/internal/server"
	"ledger/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = e.cfg.Server.Addr()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return e.serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.host/server.port)")
	return cmd
}

func (e *env) serve(ctx context.Context, addr string) error {
	store, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	b := e.newBank()
	if err := b.Load(ctx, store); err != nil {
		return err
	}
	sv := newSaver(b, store, e.logger)

	opts := []server.Option{
		server.WithLogger(e.logger),
		server.WithRateLimit(e.cfg.Server.RateLimit, e.cfg.Server.RateBurst),
	}
	if e.registry != nil {
		opts = append(opts, server.WithMetrics(e.recorder, promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})))
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.NewServer(b, sv.persist, opts...).Router(),
		ReadTimeout:  e.cfg.Server.GetReadTimeout(),
		WriteTimeout: e.cfg.Server.GetWriteTimeout(),
	}

	printBanner(e.cfg, addr, b.Len(), e.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sv.autosave(gctx, e.cfg.Storage.GetAutosaveInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if serr := sv.save(context.Background()); serr != nil {
		e.logger.Error("final save failed", zap.Error(serr))
		if err == nil {
			err = serr
		}
	}
	printShutdownBanner(e.logger)
	return err
}

// saver 序列化所有保存動作，避免同時寫入同一個後端。
type saver struct {
	mu     sync.Mutex
	bank   *bank.Bank
	store  storage.Store
	logger *logging.Logger
}

func newSaver(b *bank.Bank, store storage.Store, logger *logging.Logger) *saver {
	return &saver{bank: b, store: store, logger: logger.Named("saver")}
}

func (s *saver) save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bank.Save(ctx, s.store)
}

// persist 為 HTTP 層的持久化鉤子。
func (s *saver) persist() error {
	return s.save(context.Background())
}

// autosave 每 interval 保存一次直到 ctx 結束；interval 為 0 時只等待 ctx。
// 保存失敗只記錄，不中止服務。
func (s *saver) autosave(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.save(ctx); err != nil {
				s.logger.Warn("autosave failed", zap.Error(err))
			}
		}
	}
}
