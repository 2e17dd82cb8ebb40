// Package logging builds the process logger every subsystem hangs a
// named child off of.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rootName prefixes every subsystem logger, so a store entry reads
// ufcranker.store.
const rootName = "ufcranker"

// New builds the root logger. Development gets the colored console
// encoder at debug level; production logs JSON at info with
// stacktraces on errors. Both encode timestamps as ISO 8601.
func New(development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = false
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named(rootName), nil
}
