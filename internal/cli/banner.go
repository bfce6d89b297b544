package cli

import (
	"fmt"
	"os"
	"strings"

	"ledger/internal/config"
	"ledger/internal/logging"

	"github.com/ternarybob/banner"
	"go.uber.org/zap"
)

// printBanner 於 stderr 顯示啟動資訊。
func printBanner(cfg *config.Config, addr string, accounts int, logger *logging.Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	storageAddr := cfg.Storage.Path
	if strings.EqualFold(cfg.Storage.Backend, "postgres") {
		storageAddr = "(dsn)"
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  LEDGER%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s  Accounts, transactions and balances%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	kvPad := 12
	kvLines := [][2]string{
		{"Version", Version},
		{"Listen", addr},
		{"Storage", cfg.Storage.Backend + " " + storageAddr},
		{"Accounts", fmt.Sprint(accounts)},
		{"Metrics", fmt.Sprint(cfg.Metrics.Enabled)},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	logger.Info("ledger started",
		zap.String("version", Version),
		zap.String("addr", addr),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("accounts", accounts),
	)
}

// printShutdownBanner 於 stderr 顯示關機訊息。
func printShutdownBanner(logger *logging.Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 32) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n%s  LEDGER - SHUTTING DOWN%s\n%s\n\n",
		hr, banner.ColorBold+banner.ColorWhite, banner.ColorReset, hr)
	logger.Info("ledger shutting down")
}
