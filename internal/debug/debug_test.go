package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDebugOutputGated(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	DebugHeader(false)
	DebugOutput(false, "hidden %d", 1)
	DebugTiming(false, "hidden")()
	assert.Zero(t, logs.Len())

	DebugHeader(true)
	DebugOutput(true, "matched %d regions", 36)
	DebugTiming(true, "reconcile")()
	DebugFooter(true)

	entries := logs.AllUntimed()
	assert.Len(t, entries, 5)
	assert.Equal(t, "=== DEBUG START ===", entries[0].Message)
	assert.Equal(t, "matched 36 regions", entries[1].Message)
	assert.Equal(t, "Starting: reconcile", entries[2].Message)
	assert.Equal(t, "Completed: reconcile", entries[3].Message)
	assert.Equal(t, "=== DEBUG END ===", entries[4].Message)
}
