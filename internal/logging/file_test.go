package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrimmedFile_KeepsNewestBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	f, err := OpenTrimmedFile(path, 10, 4)
	require.NoError(t, err)

	_, err = f.Write([]byte("0123456"))
	require.NoError(t, err)
	_, err = f.Write([]byte("789ab"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "89ab", string(data))
}

func TestTrimmedFile_TrimsOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 20)+"tail"), 0o644))

	f, err := OpenTrimmedFile(path, 10, 4)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "tail", string(data))
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
	require.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
