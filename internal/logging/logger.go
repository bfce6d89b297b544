// internal/logging/logger.go
//
// 以 zap 建立結構化日誌。所有元件都接收 *Logger，測試時改用 NewNop。
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 包裝 *zap.Logger，讓呼叫端不必直接依賴 zap 的建構細節。
type Logger struct {
	*zap.Logger
}

// Config 為日誌設定。
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json 或 console
	Development bool
}

// DefaultConfig 回傳 info 等級、JSON 格式的設定。
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// New 依設定建立 Logger，輸出至 stderr，避免與 CLI 的 stdout 結果混在一起。
func New(cfg Config) (*Logger, error) {
	var enc zapcore.EncoderConfig
	if cfg.Development {
		enc = zap.NewDevelopmentEncoderConfig()
	} else {
		enc = zap.NewProductionEncoderConfig()
	}
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder

	format := strings.ToLower(cfg.Format)
	if format != "console" {
		format = "json"
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Development:       cfg.Development,
		DisableCaller:     !cfg.Development,
		DisableStacktrace: !cfg.Development,
		Encoding:          format,
		EncoderConfig:     enc,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{l}, nil
}

// NewNop 回傳丟棄所有輸出的 Logger。
func NewNop() *Logger {
	return &Logger{zap.NewNop()}
}

// Named 回傳加上子名稱的 Logger。
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}

// With 回傳帶固定欄位的 Logger。
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l.Logger.With(fields...)}
}

// ParseLevel 解析等級字串；無法辨識時回傳 info。
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
