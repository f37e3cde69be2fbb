package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"migrator/internal/logging"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", logger.GetLevel())
	}

	logger.WithField("record", "r1").Debug("mapped")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a json line, got %q", buf.String())
	}
	if entry["msg"] != "mapped" || entry["record"] != "r1" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_TextFormatFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	logging.LogInfo(logger, "hidden")
	logging.LogWarn(logger, "shown")
	logging.LogError(logger, "closing", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "closing: boom") {
		t.Errorf("missing entries in %q", out)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	var buf bytes.Buffer
	if _, err := logging.New(&buf, "loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := logging.New(&buf, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
