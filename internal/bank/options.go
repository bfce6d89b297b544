package bank

import (
	"time"

	"ledger/internal/logging"
	"ledger/internal/metrics"
)

// Option 調整 Ledger 與 Bank 的相依元件。
type Option func(*options)

type options struct {
	logger    *logging.Logger
	metrics   metrics.Recorder
	now       func() time.Time
	newNumber func() int64
}

func defaultOptions() options {
	return options{
		logger:    logging.NewNop(),
		metrics:   metrics.NoOp{},
		now:       time.Now,
		newNumber: generateAccountNumber,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger 設定日誌；nil 時維持不輸出。
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics 設定度量收集器。
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithClock 覆寫交易時間戳來源，測試用。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithNumberGenerator 覆寫帳號產生器，測試碰撞用。
func WithNumberGenerator(gen func() int64) Option {
	return func(o *options) {
		if gen != nil {
			o.newNumber = gen
		}
	}
}
