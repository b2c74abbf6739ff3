package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewWritesDailyJSON(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	root := t.TempDir()
	log, err := New(root, false, zap.DebugLevel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debugw("probe", "k", "v")
	_ = log.Sync()

	path := filepath.Join(root, "logs", time.Now().Format("2006-01-02")+".log")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"probe"`) || !strings.Contains(string(raw), `"k":"v"`) {
		t.Fatalf("log file missing entry:\n%s", raw)
	}
	if zap.L() == prev {
		t.Fatal("global logger not replaced")
	}
}

func TestNewConsoleLevel(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log := NewConsole(zap.WarnLevel)
	if log.Desugar().Core().Enabled(zap.InfoLevel) {
		t.Fatal("info should be filtered")
	}
	if !log.Desugar().Core().Enabled(zap.ErrorLevel) {
		t.Fatal("error should pass")
	}
}
