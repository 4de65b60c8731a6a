package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu sync.RWMutex
	log   *zap.Logger
)

// InitProduction 初始化一个 production logger（供 main 调用）
func InitProduction(level string) error {
	return initWith(zap.NewProductionConfig(), level)
}

// InitDevelopment 初始化一个 development logger（更友好地输出到控制台）
func InitDevelopment(level string) error {
	return initWith(zap.NewDevelopmentConfig(), level)
}

// Init picks the production or development preset by mode.
func Init(mode, level string) error {
	switch mode {
	case "", "production":
		return InitProduction(level)
	case "development":
		return InitDevelopment(level)
	default:
		return fmt.Errorf("unknown log mode %q", mode)
	}
}

func initWith(cfg zap.Config, level string) error {
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// SetLogger 设置并替换 zap 全局 logger
func SetLogger(l *zap.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	zap.ReplaceGlobals(l)
	if log != nil {
		_ = log.Sync()
	}
	log = l
}

// Log 返回 *zap.Logger（非 nil）
func Log() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	if log != nil {
		return log
	}
	return zap.L()
}

// Named returns a child logger tagged with the component name, so lines
// from the worker, camera and servers can be told apart.
func Named(component string) *zap.Logger {
	return Log().Named(component).With(zap.String("component", component))
}

func Sync() {
	logMu.RLock()
	defer logMu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}
