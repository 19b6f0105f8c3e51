package native

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// engines 是进程级注册表：每个 Library 实例只加载一次，日志回调只注册一次
	engines   = make(map[Library]*Engine)
	enginesMu sync.Mutex
)

// Engine 是已加载的引擎。它持有注册给引擎的日志回调，
// 保证回调在任何可能触发它的引擎调用期间都有效；回调在会话中途不会被撤回。
type Engine struct {
	lib    Library
	logger *slog.Logger
	level  TraceLevel
	logFn  LogFunc
}

// Option 配置 Open
type Option func(*options)

type options struct {
	logger   *slog.Logger
	level    slog.Level
	levelSet bool
	off      bool
}

// WithLogger 指定转发引擎日志与会话日志的 logger，默认 slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLogLevel 指定引擎的日志级别（按 slog 级别映射），默认取 logger 的生效级别
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
		o.levelSet = true
	}
}

// WithTraceOff 关闭引擎侧诊断日志
func WithTraceOff() Option {
	return func(o *options) { o.off = true }
}

// Open 加载引擎（进程级单例）。同一个 Library 多次 Open 返回同一个 Engine，
// 之后的 Option 被忽略。
func Open(lib Library, opts ...Option) *Engine {
	enginesMu.Lock()
	defer enginesMu.Unlock()

	if eng, ok := engines[lib]; ok {
		return eng
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	eng := &Engine{lib: lib, logger: o.logger}
	switch {
	case o.off:
		eng.level = TraceLevelOff
	case o.levelSet:
		eng.level = TraceLevelFromSlog(o.level)
	default:
		eng.level = effectiveTraceLevel(o.logger)
	}

	eng.logFn = eng.forward
	lib.SetLogMessageFunction(eng.logFn)
	lib.SetTraceLevel(eng.level)
	eng.logger.Info("ebm engine loaded", "trace_level", eng.level.String())

	engines[lib] = eng
	return eng
}

// Unload 从进程级注册表移除引擎（测试用）。调用方需保证没有进行中的会话。
func Unload(lib Library) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	delete(engines, lib)
}

// Library 返回底层引擎
func (e *Engine) Library() Library { return e.lib }

// Logger 返回会话使用的 logger
func (e *Engine) Logger() *slog.Logger { return e.logger }

// TraceLevel 返回设置给引擎的日志级别
func (e *Engine) TraceLevel() TraceLevel { return e.level }

// forward 是注册给引擎的回调。它从引擎内部被调用，不能把任何失败传回引擎，
// 因此吞掉 logger 中的 panic。
func (e *Engine) forward(level TraceLevel, message string) {
	defer func() { _ = recover() }()
	slogLevel, ok := SlogLevel(level)
	if !ok {
		return
	}
	e.logger.Log(context.Background(), slogLevel, message, "source", "engine")
}

// SlogLevel 把引擎级别映射为 slog 级别；Off 及未知级别返回 false
func SlogLevel(level TraceLevel) (slog.Level, bool) {
	switch level {
	case TraceLevelError:
		return slog.LevelError, true
	case TraceLevelWarning:
		return slog.LevelWarn, true
	case TraceLevelInfo:
		return slog.LevelInfo, true
	case TraceLevelVerbose:
		return slog.LevelDebug, true
	default:
		return 0, false
	}
}

// TraceLevelFromSlog 把 slog 级别映射为引擎级别
func TraceLevelFromSlog(level slog.Level) TraceLevel {
	switch {
	case level <= slog.LevelDebug:
		return TraceLevelVerbose
	case level <= slog.LevelInfo:
		return TraceLevelInfo
	case level <= slog.LevelWarn:
		return TraceLevelWarning
	default:
		return TraceLevelError
	}
}

func effectiveTraceLevel(logger *slog.Logger) TraceLevel {
	ctx := context.Background()
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if logger.Enabled(ctx, l) {
			return TraceLevelFromSlog(l)
		}
	}
	return TraceLevelOff
}

func (e *Engine) String() string {
	return fmt.Sprintf("native.Engine(%T, trace=%s)", e.lib, e.level)
}
