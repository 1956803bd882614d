package main

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// recordingSyncer notes whether Sync was called.
type recordingSyncer struct {
	synced bool
}

func (s *recordingSyncer) Write(p []byte) (int, error) { return len(p), nil }
func (s *recordingSyncer) Sync() error                 { s.synced = true; return nil }

func TestExitSyncsLogger(t *testing.T) {
	savedLogger, savedExit := logger, exitFunc
	t.Cleanup(func() { logger, exitFunc = savedLogger, savedExit })

	syncer := &recordingSyncer{}
	logger = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		syncer,
		zapcore.DebugLevel,
	))

	gotCode := -1
	exitFunc = func(code int) {
		if !syncer.synced {
			t.Error("logger not synced before exit")
		}
		gotCode = code
	}

	exit(ExitDataError)

	if gotCode != ExitDataError {
		t.Errorf("exit code = %d, want %d", gotCode, ExitDataError)
	}
}
