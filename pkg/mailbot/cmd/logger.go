package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return cfg
}

func logLevel(verbose bool) zapcore.Level {
	if verbose {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func newConsoleLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig = encoderConfig()
	cfg.Level = zap.NewAtomicLevelAt(logLevel(verbose))
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// newRunLogger tees log output to stderr and to a per-run file under logDir,
// so every campaign leaves a standalone transcript. It returns the logger,
// the log file path and a close func.
func newRunLogger(verbose bool, logDir string) (*zap.Logger, string, func(), error) {
	console, err := newConsoleLogger(verbose)
	if err != nil {
		return nil, "", nil, err
	}
	if logDir == "" {
		return console, "", func() { _ = console.Sync() }, nil
	}

	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, "", nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	path := filepath.Join(logDir, fmt.Sprintf("mailbot_%s.log", time.Now().Format("20060102_150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(file),
		logLevel(verbose),
	)
	logger := zap.New(zapcore.NewTee(console.Core(), fileCore))
	closeFn := func() {
		_ = logger.Sync()
		_ = file.Close()
	}
	return logger, path, closeFn, nil
}
