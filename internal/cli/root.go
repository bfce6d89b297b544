// internal/cli/root.go
//
// cobra 指令樹：
//   - ledger serve：啟動 HTTP 服務
//   - ledger account create|list|show|rename
//   - ledger deposit|withdraw|credit|transfer|balance|history
//
// 離線指令皆為「載入 → 執行一次操作 → 保存」，與 serve 共用同一份設定與儲存後端。
package cli

import (
	"context"
	"fmt"
	"os"

	"ledger/internal/bank"
	"ledger/internal/config"
	"ledger/internal/logging"
	"ledger/internal/metrics"
	ledgerprom "ledger/internal/metrics/prometheus"
	"ledger/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// Version 於建置時以 -ldflags 覆寫。
var Version = "dev"

// env 為指令共用的執行環境，在 PersistentPreRunE 建立。
type env struct {
	cfg      *config.Config
	logger   *logging.Logger
	recorder metrics.Recorder
	registry *prometheus.Registry
}

// NewRootCmd 建立完整指令樹；每次呼叫都是全新的實例，測試可重複使用。
func NewRootCmd() *cobra.Command {
	e := &env{}
	var (
		configPaths []string
		logLevel    string
	)

	root := &cobra.Command{
		Use:           "ledger",
		Short:         "Bank ledger: accounts, transactions and balances",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPaths...)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			logger, err := logging.New(cfg.Logging.LoggerConfig())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			e.cfg = cfg
			e.logger = logger
			e.recorder = metrics.NoOp{}
			if cfg.Metrics.Enabled {
				rec := ledgerprom.New(cfg.Metrics.Namespace)
				reg := prometheus.NewRegistry()
				if err := rec.Register(reg); err != nil {
					return fmt.Errorf("register metrics: %w", err)
				}
				e.recorder = rec
				e.registry = reg
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringSliceVarP(&configPaths, "config", "c", []string{"ledger.toml"},
		"config file(s), merged in order; missing files are skipped")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newServeCmd(e),
		newAccountCmd(e),
		newTransactionCmd(e, bank.Deposit),
		newTransactionCmd(e, bank.Withdraw),
		newTransactionCmd(e, bank.Credit),
		newTransferCmd(e),
		newBalanceCmd(e),
		newHistoryCmd(e),
	)
	return root
}

// Execute 執行指令並回傳程序結束碼。
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// openStore 依設定開啟儲存後端。
func (e *env) openStore(ctx context.Context) (storage.Store, error) {
	return storage.Open(ctx, e.cfg.Storage.StoreConfig(), e.logger, e.recorder)
}

// newBank 建立帶日誌與度量的空白銀行。
func (e *env) newBank() *bank.Bank {
	return bank.New(bank.WithLogger(e.logger), bank.WithMetrics(e.recorder))
}

// withBank 載入銀行、執行 fn，mutate 為 true 時保存結果。
func (e *env) withBank(ctx context.Context, mutate bool, fn func(b *bank.Bank) error) (err error) {
	store, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	b := e.newBank()
	if err := b.Load(ctx, store); err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return err
	}
	if mutate {
		return b.Save(ctx, store)
	}
	return nil
}
