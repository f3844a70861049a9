package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global sugared logger based on LOG_LEVEL and redirects
// the standard library logger to zap. It's safe to call multiple times.
func Init() *zap.SugaredLogger {
	once.Do(func() {
		level := strings.ToLower(os.Getenv("LOG_LEVEL"))
		var logger *zap.Logger
		if level == "debug" {
			l, _ := zap.NewDevelopment()
			logger = l
		} else {
			l, _ := zap.NewProduction()
			logger = l
		}
		_ = zap.RedirectStdLog(logger)
		sugar = logger.Sugar()
	})
	return sugar
}

// Sugar returns the initialized sugared logger.
func Sugar() *zap.SugaredLogger { return Init() }

// Debugw logs a debug message with structured key/value pairs.
func Debugw(msg string, kv ...interface{}) { Init().Debugw(msg, kv...) }

// Infow logs an info message with structured key/value pairs.
func Infow(msg string, kv ...interface{}) { Init().Infow(msg, kv...) }

// Warnw logs a warning with structured key/value pairs.
func Warnw(msg string, kv ...interface{}) { Init().Warnw(msg, kv...) }

// Errorw logs an error with structured key/value pairs.
func Errorw(msg string, kv ...interface{}) { Init().Errorw(msg, kv...) }
