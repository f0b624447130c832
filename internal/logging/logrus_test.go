package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogrus(t *testing.T) (*LogrusLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return NewLogrusLogger(l), &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &m))
	return m
}

func TestLogrusLogger_Levels(t *testing.T) {
	log, buf := newTestLogrus(t)
	ctx := context.Background()

	for _, tc := range []struct {
		fn    func(context.Context, string, ...any)
		level string
	}{
		{log.Debug, "debug"},
		{log.Info, "info"},
		{log.Warn, "warning"},
		{log.Error, "error"},
	} {
		tc.fn(ctx, "msg-"+tc.level, "k", 1)
		m := lastLine(t, buf)
		assert.Equal(t, tc.level, m["level"])
		assert.Equal(t, "msg-"+tc.level, m["msg"])
		assert.EqualValues(t, 1, m["k"])
	}
}

func TestLogrusLogger_WithAndBadKey(t *testing.T) {
	log, buf := newTestLogrus(t)

	log.With("module", "http").Info(context.Background(), "hello", "dangling")

	m := lastLine(t, buf)
	assert.Equal(t, "http", m["module"])
	assert.Equal(t, "dangling", m["!BADKEY"])
}

func TestNew_Backends(t *testing.T) {
	var buf bytes.Buffer

	l, err := New(BackendSlog, &buf)
	require.NoError(t, err)
	assert.IsType(t, &SlogLogger{}, l)

	l, err = New(BackendLogrus, &buf)
	require.NoError(t, err)
	assert.IsType(t, &LogrusLogger{}, l)

	_, err = New("zap", &buf)
	require.Error(t, err)
}
