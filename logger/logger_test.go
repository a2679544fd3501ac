package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWritesToLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	log, err := New("debug", dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", log.GetLevel())
	}

	log.Info("hello")

	if _, err := os.Stat(filepath.Join(dir, "app.log")); err != nil {
		t.Errorf("expected app.log to exist: %v", err)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	log, err := New("chatty", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info level, got %s", log.GetLevel())
	}
}
