package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{level: "debug", want: logrus.DebugLevel},
		{level: "info", want: logrus.InfoLevel},
		{level: " WARN ", want: logrus.WarnLevel},
		{level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(tt.level, "text", &bytes.Buffer{})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for level %q", tt.level)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger.GetLevel() != tt.want {
				t.Errorf("expected level %v, got %v", tt.want, logger.GetLevel())
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.WithField("token", "fevr").Info("Dropping unrecognized symptom")

	out := buf.String()
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"token":"fevr"`) {
		t.Errorf("expected JSON log line with token field, got %q", out)
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("expected a logger for nil input")
	}

	logger := logrus.New()
	if OrDiscard(logger) != logger {
		t.Error("expected the given logger to be returned unchanged")
	}
}
