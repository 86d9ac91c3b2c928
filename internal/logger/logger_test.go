package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLog(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "logs", "crewlog.log"))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(data)
}

func TestInitCreatesLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	if err := Init(Config{ConfigDir: dir}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "logs")); err != nil {
		t.Errorf("log directory missing: %v", err)
	}
	if std == nil {
		t.Fatal("logger not set after Init")
	}
}

func TestInfoWrittenToFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Config{ConfigDir: dir, Operative: "op-7"}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	Info("session started", "booking", "b-42")
	Warn("clear failed", "booking", "b-42")

	got := readLog(t, dir)
	for _, want := range []string{"session started", "b-42", "clear failed", "op-7"} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q, got: %q", want, got)
		}
	}
}

func TestDebugSuppressedOutsideDebugMode(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Config{ConfigDir: dir}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Debug("hidden-debug-line")
	if strings.Contains(readLog(t, dir), "hidden-debug-line") {
		t.Error("debug line written while debug mode is off")
	}
}

func TestNoopBeforeInit(t *testing.T) {
	saved := std
	std = nil
	defer func() { std = saved }()

	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
}
