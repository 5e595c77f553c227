package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBackendLogFile(t *testing.T) {
	logDir := t.TempDir()
	logFile := filepath.Join(logDir, "test.log")
	errLogFile := filepath.Join(logDir, "test.log_err")

	backend := NewBackend()
	err := backend.AddLogFile(logFile, LevelTrace)
	if err != nil {
		t.Fatalf("AddLogFile: %s", err)
	}
	err = backend.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		t.Fatalf("AddLogFile: %s", err)
	}
	err = backend.Run()
	if err != nil {
		t.Fatalf("Run: %s", err)
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelInfo)
	log.Infof("info level message")
	log.Warnf("warn level message")

	// Close drains the write channel and flushes the rotators.
	backend.Close()

	logContent, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %s", err)
	}
	if !strings.Contains(string(logContent), "info level message") {
		t.Errorf("log file does not contain the info message")
	}
	if !strings.Contains(string(logContent), "warn level message") {
		t.Errorf("log file does not contain the warn message")
	}

	errLogContent, err := os.ReadFile(errLogFile)
	if err != nil {
		t.Fatalf("ReadFile: %s", err)
	}
	if strings.Contains(string(errLogContent), "info level message") {
		t.Errorf("error log file contains a message below its level")
	}
	if !strings.Contains(string(errLogContent), "warn level message") {
		t.Errorf("error log file does not contain the warn message")
	}
}

func TestBackendAddWriterAfterRun(t *testing.T) {
	backend := NewBackend()
	err := backend.Run()
	if err != nil {
		t.Fatalf("Run: %s", err)
	}
	defer backend.Close()

	err = backend.AddLogFile(filepath.Join(t.TempDir(), "late.log"), LevelTrace)
	if err == nil {
		t.Errorf("AddLogFile on a running backend unexpectedly succeeded")
	}
}
