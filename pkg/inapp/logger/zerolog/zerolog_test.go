package zerolog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mihaimyh/goinapp/pkg/inapp"
)

func TestZerologLogger_NewLogger(t *testing.T) {
	output := bytes.Buffer{}
	logger := NewLogger(zerolog.New(&output))

	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
}

func TestZerologLogger_WritesAllLevels(t *testing.T) {
	output := bytes.Buffer{}
	logger := NewLogger(zerolog.New(&output))

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := output.String()
	for _, msg := range []string{"debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(out, msg) {
			t.Errorf("output missing %q", msg)
		}
	}
}

func TestZerologLogger_IncludesFields(t *testing.T) {
	output := bytes.Buffer{}
	logger := NewLogger(zerolog.New(&output))

	logger.Info("purchase completed",
		inapp.Field{Key: "product_id", Value: "coins"},
		inapp.Field{Key: "quantity", Value: 3})

	out := output.String()
	if !strings.Contains(out, `"product_id":"coins"`) {
		t.Errorf("output missing product_id field: %s", out)
	}
	if !strings.Contains(out, `"quantity":3`) {
		t.Errorf("output missing quantity field: %s", out)
	}
}

func TestZerologLogger_RespectsLevel(t *testing.T) {
	output := bytes.Buffer{}
	logger := NewLogger(zerolog.New(&output).Level(zerolog.WarnLevel))

	logger.Debug("too quiet")
	logger.Warn("loud enough")

	out := output.String()
	if strings.Contains(out, "too quiet") {
		t.Error("debug message written despite warn level")
	}
	if !strings.Contains(out, "loud enough") {
		t.Error("warn message missing")
	}
}
