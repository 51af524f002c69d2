// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
)

// LevelEnv 是读取日志级别的环境变量。
const LevelEnv = "SILICATE_LOG_LEVEL"

var (
	level  = new(slog.LevelVar)
	logger atomic.Pointer[slog.Logger]
	mu     sync.Mutex
)

// Options 控制日志输出格式。
type Options struct {
	JSON    bool
	NoColor bool
}

func init() {
	if lvl, ok := ParseLevel(os.Getenv(LevelEnv)); ok {
		level.Set(lvl)
	}
	setup(os.Stderr, Options{NoColor: color.NoColor})
}

// Setup 重新设置日志输出目标与格式，级别保持不变。
func Setup(w io.Writer, opts Options) {
	mu.Lock()
	defer mu.Unlock()
	setup(w, opts)
}

func setup(w io.Writer, opts Options) {
	if w == nil {
		w = os.Stderr
	}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    opts.NoColor,
		})
	}
	logger.Store(slog.New(handler))
}

// Logger 返回当前的全局 logger。
func Logger() *slog.Logger { return logger.Load() }

// Component 返回带 component 属性的 logger。
func Component(name string) *slog.Logger {
	return Logger().With("component", name)
}

// SetLevel 调整全局日志级别。
func SetLevel(lvl slog.Level) { level.Set(lvl) }

// Level 返回当前日志级别。
func Level() slog.Level { return level.Level() }

// ParseLevel 解析 debug/info/warn/error（大小写不敏感），无法识别时返回 false。
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Err 返回统一格式的错误属性。
func Err(err error) slog.Attr { return tint.Err(err) }
