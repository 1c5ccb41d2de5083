package debug

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// sugar returns the process logger with the caller set to the function
// that called into this package
func sugar() *zap.SugaredLogger {
	return zap.L().WithOptions(zap.AddCallerSkip(2)).Sugar()
}

// DebugHeader logs a debug header if debugging is enabled
func DebugHeader(enabled bool) {
	if enabled {
		sugar().Info("=== DEBUG START ===")
	}
}

// DebugFooter logs a debug footer if debugging is enabled
func DebugFooter(enabled bool) {
	if enabled {
		sugar().Info("=== DEBUG END ===")
	}
}

// DebugOutput logs debug output if debugging is enabled
func DebugOutput(enabled bool, format string, args ...interface{}) {
	if enabled {
		sugar().Info(fmt.Sprintf(format, args...))
	}
}

// DebugTiming measures and logs execution time if debugging is enabled
func DebugTiming(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	sugar().Infof("Starting: %s", operation)

	return func() {
		sugar().Infow("Completed: "+operation, "took", time.Since(start))
	}
}
