package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "locker_no", "001")
	log.Info(ctx, "inf", "locker_no", "002")
	log.Warn(ctx, "wrn", "locker_no", "003")
	log.Error(ctx, "err", "locker_no", "004")

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg locker_no=001",
		"level=INFO msg=inf locker_no=002",
		"level=WARN msg=wrn locker_no=003",
		"level=ERROR msg=err locker_no=004",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("module", "web", "session", "abc").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, want := range []string{"module=web", "session=abc", "k=v"} {
		assert.Contains(t, out, want)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewJSONLogger(&buf, "warn")
	require.NoError(t, err)

	ctx := context.Background()
	log.Info(ctx, "dropped")
	log.Warn(ctx, "kept", "username", "admin")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "admin", rec["username"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	assert.NotPanics(t, func() {
		l.With("a", 1).Info(context.TODO(), "x")
		l.Error(context.TODO(), "y")
	})
}
