package confopts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnvProvider tests environment variable mapping
func TestEnvProvider(t *testing.T) {
	t.Run("PrefixFilterAndTransform", func(t *testing.T) {
		t.Setenv("MYAPP_SERVER__HOST", "example.com")
		t.Setenv("MYAPP_SERVER__HTTP_PORT", "9000")
		t.Setenv("MYAPP_LOG__LEVEL", "debug")
		t.Setenv("OTHERAPP_SERVER__HOST", "ignored")

		p := NewEnvProvider("MYAPP_")
		snap, err := p.Snapshot()
		require.NoError(t, err)

		assert.Equal(t, "example.com", snap["server.host"])
		assert.Equal(t, "9000", snap["server.http_port"])
		assert.Equal(t, "debug", snap["log.level"])
		for key := range snap {
			assert.False(t, strings.HasPrefix(key, "otherapp"), "foreign prefix leaked: %s", key)
		}
	})

	t.Run("SingleUnderscoreStaysInSegment", func(t *testing.T) {
		t.Setenv("MYAPP_HTTP_PORT", "8080")

		p := NewEnvProvider("MYAPP_")
		snap, err := p.Snapshot()
		require.NoError(t, err)

		assert.Equal(t, "8080", snap["http_port"])
		_, exists := snap["http.port"]
		assert.False(t, exists)
	})

	t.Run("UnmappableNamesSkipped", func(t *testing.T) {
		// Double underscore at the edge produces an empty segment.
		t.Setenv("MYAPP___LEADING", "x")

		p := NewEnvProvider("MYAPP_")
		snap, err := p.Snapshot()
		require.NoError(t, err)

		for key := range snap {
			assert.NoError(t, ValidateKey(key))
		}
	})

	t.Run("CustomTransform", func(t *testing.T) {
		t.Setenv("MYAPP_WHATEVER", "x")

		p := NewEnvProviderWithTransform("MYAPP_", func(name string) (string, bool) {
			return "fixed." + strings.ToLower(name), true
		})
		snap, err := p.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, "x", snap["fixed.whatever"])
	})
}

// TestDotEnvProvider tests .env file loading
func TestDotEnvProvider(t *testing.T) {
	t.Run("ParsesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "SERVER__HOST=localhost\nSERVER__PORT=8080\n# comment\nLOG__LEVEL=warn\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		p := NewDotEnvProvider(path)
		snap, err := p.Snapshot()
		require.NoError(t, err)

		assert.Equal(t, "localhost", snap["server.host"])
		assert.Equal(t, "8080", snap["server.port"])
		assert.Equal(t, "warn", snap["log.level"])
	})

	t.Run("MissingFileIsEmpty", func(t *testing.T) {
		p := NewDotEnvProvider(filepath.Join(t.TempDir(), "absent.env"))
		snap, err := p.Snapshot()
		require.NoError(t, err)
		assert.Empty(t, snap)
	})

	t.Run("PrefixStripping", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "MYAPP_SERVER__HOST=a\nOTHER_KEY=b\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		p := NewDotEnvProviderWithPrefix(path, "MYAPP_")
		snap, err := p.Snapshot()
		require.NoError(t, err)

		assert.Equal(t, "a", snap["server.host"])
		assert.Len(t, snap, 1)
	})
}

// TestDiscoverEnv tests reverse key-to-variable discovery
func TestDiscoverEnv(t *testing.T) {
	t.Setenv("MYAPP_SERVER__PORT", "9000")

	found := DiscoverEnv("MYAPP_", "server.port", "server.host")
	assert.Equal(t, map[string]string{"server.port": "MYAPP_SERVER__PORT"}, found)
}
