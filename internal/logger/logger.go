package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init replaces the global zap logger. Production gets JSON output at info
// level, every other environment a colored development logger.
func Init(environment string) error {
	var (
		logger *zap.Logger
		err    error
	)

	switch environment {
	case "production":
		conf := zap.NewProductionConfig()
		conf.EncoderConfig.TimeKey = "time"
		conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		logger, err = conf.Build()
	case "test":
		logger = zap.NewNop()
	default:
		conf := zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = conf.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to build logger -> %w", err)
	}

	zap.ReplaceGlobals(logger.With(zap.String("env", environment)))

	return nil
}
