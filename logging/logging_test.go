package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"Warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseLevel("verbose")
	assert.False(t, ok)
}

func TestComponentJSON(t *testing.T) {
	prev := Level()
	t.Cleanup(func() {
		SetLevel(prev)
		Setup(os.Stderr, Options{NoColor: true})
	})

	var buf bytes.Buffer
	Setup(&buf, Options{JSON: true})
	SetLevel(slog.LevelDebug)

	Component(ComponentRenderer).Debug("渲染完成", "width", 640, Err(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "renderer", rec["component"])
	assert.Equal(t, "渲染完成", rec["msg"])
	assert.EqualValues(t, 640, rec["width"])
}

func TestLevelFiltersDebug(t *testing.T) {
	prev := Level()
	t.Cleanup(func() {
		SetLevel(prev)
		Setup(os.Stderr, Options{NoColor: true})
	})

	var buf bytes.Buffer
	Setup(&buf, Options{NoColor: true})
	SetLevel(slog.LevelInfo)
	Logger().Debug("hidden")
	assert.Zero(t, buf.Len())

	Logger().Info("shown", "file", "main.go")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "file=main.go")
}
