package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Debug = false

// DebugLog is nil unless EVOLVE_DEBUG is set; call sites check for nil before logging.
var DebugLog *zap.SugaredLogger

func CheckDebug() bool {
	debug := os.Getenv("EVOLVE_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// Create the file up front so it gets 0600 (may contain conversation text)
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}
	_ = f.Close()

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{logPath}
	zcfg.ErrorOutputPaths = []string{logPath}

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize debug logger: %v\n", err)
		return
	}

	Debug = true
	DebugLog = logger.Sugar()
	DebugLog.Debugf("=== Debug logging started (EVOLVE_DEBUG=%s) ===", os.Getenv("EVOLVE_DEBUG"))
	DebugLog.Debugf("Log path: %s", logPath)
}

// SyncDebugLog flushes buffered entries; safe to call when logging is disabled.
func SyncDebugLog() {
	if DebugLog != nil {
		_ = DebugLog.Sync()
	}
}
