// Package logging builds the service logger: an ectologger front backed by
// a zap core writing structured JSON.
package logging

import (
	"encoding/json"
	"strings"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the ectologger used across the service and returns the zap
// logger underneath it for flushing at shutdown.
func New(level string, pretty bool) (ectologger.Logger, *zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zlog, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, nil, err
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			zlog.Error("failed to encode log message", zap.Error(err))
			return
		}
		write(zlog, data)
	})

	return logger, zlog, nil
}

// write routes an encoded message to the zap level named inside it, falling
// back to info.
func write(zlog *zap.Logger, data []byte) {
	payload := zap.Any("entry", json.RawMessage(data))

	var envelope map[string]any
	level := ""
	if err := json.Unmarshal(data, &envelope); err == nil {
		for _, key := range []string{"level", "Level"} {
			if raw, ok := envelope[key].(string); ok {
				level = strings.ToLower(raw)
				break
			}
		}
	}

	switch level {
	case "debug":
		zlog.Debug("log", payload)
	case "warn", "warning":
		zlog.Warn("log", payload)
	case "error", "fatal", "panic":
		zlog.Error("log", payload)
	default:
		zlog.Info("log", payload)
	}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
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
