// Package logging builds the service's loggers: a bootstrap logger
// for use before config is available, and the event/access loggers
// the rest of the application uses once config has loaded.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// BootstrapLogger returns a stderr-only, info-level logger for use
// before configuration has been loaded.
func BootstrapLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// rotationConfig bounds log files at 500MB with 3 rotated backups kept.
var rotationConfig = struct {
	maxSizeMB  int
	maxBackups int
}{maxSizeMB: 500, maxBackups: 3}

// Build constructs a zap logger that writes JSON-encoded entries to
// stdout and, when path is non-empty, additionally to a rotating log
// file at path.
func Build(path string) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.InfoLevel),
	}
	if path != "" {
		rotator := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    rotationConfig.maxSizeMB,
			MaxBackups: rotationConfig.maxBackups,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), zap.InfoLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// MustBuild is a convenience for main() that wants to fatal on logger
// build failure.
func MustBuild(path string) *zap.Logger {
	logger, err := Build(path)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	return logger
}
