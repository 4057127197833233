package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewAppLogger builds a JSON logger in production and a console logger
// everywhere else. Output goes to stderr.
func NewAppLogger(env, level string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return l.Sugar(), nil
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func Sync(l *zap.SugaredLogger) {
	_ = l.Sync()
}
