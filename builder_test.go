package confopts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilder tests fluent registry assembly
func TestBuilder(t *testing.T) {
	t.Run("LayerStack", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := writeFile(t, tmpDir, "config.toml", `
[server]
host = "from-file"
port = 8080
`)
		dotEnvFile := writeFile(t, tmpDir, ".env", "MYAPP_SERVER__HOST=from-dotenv\n")
		t.Setenv("MYAPP_SERVER__PORT", "9090")

		r, err := NewBuilder().
			WithMapLayer("defaults", PriorityDefault, map[string]string{
				"server.host": "from-defaults",
				"log.level":   "info",
			}).
			WithFileLayer(PriorityFile, configFile, FileOptions{}).
			WithDotEnvLayer(PriorityDotEnv, dotEnvFile, "MYAPP_").
			WithEnvLayer(PriorityEnv, "MYAPP_").
			Build()
		require.NoError(t, err)

		host, _ := r.Get("server.host")
		assert.Equal(t, "from-dotenv", host, "dotenv outranks file")

		port, _ := r.Get("server.port")
		assert.Equal(t, "9090", port, "env outranks everything below")

		level, _ := r.Get("log.level")
		assert.Equal(t, "info", level, "defaults fill the gaps")
	})

	t.Run("DotEnvUsesEnvNamingConvention", func(t *testing.T) {
		// A .env written in the PREFIX_SECTION__KEY convention must land on
		// the same keys the env layer would produce.
		dotEnvFile := writeFile(t, t.TempDir(), ".env", "MYAPP_SERVER__PORT=7070\nMYAPP_LOG__LEVEL=trace\n")

		r, err := NewBuilder().
			WithDotEnvLayer(PriorityDotEnv, dotEnvFile, "MYAPP_").
			Build()
		require.NoError(t, err)

		port, ok := r.Get("server.port")
		assert.True(t, ok)
		assert.Equal(t, "7070", port)

		level, _ := r.Get("log.level")
		assert.Equal(t, "trace", level)

		// The prefix is stripped, never folded into the key.
		_, ok = r.Get("myapp_server.port")
		assert.False(t, ok)
	})

	t.Run("FileLayerErrorSurfacesAtBuild", func(t *testing.T) {
		r, err := NewBuilder().
			WithFileLayer(PriorityFile, "config.toml", FileOptions{Format: "ini"}).
			Build()
		assert.Nil(t, r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config.toml")
	})

	t.Run("MissingRequiredFileFailsBuild", func(t *testing.T) {
		r, err := NewBuilder().
			WithFileLayer(PriorityFile, filepath.Join(t.TempDir(), "absent.toml"), FileOptions{}).
			Build()
		assert.Nil(t, r)
		assert.ErrorIs(t, err, ErrProviderLoad)
	})

	t.Run("MustBuildPanicsOnError", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBuilder().
				WithFileLayer(PriorityFile, "x", FileOptions{Format: "ini"}).
				MustBuild()
		})
	})
}

// TestQuick tests the one-call setup
func TestQuick(t *testing.T) {
	t.Run("StandardStack", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.toml")
		require.NoError(t, os.WriteFile(configFile, []byte("[server]\nport = 8080\n"), 0644))
		t.Setenv("QUICKAPP_SERVER__HOST", "from-env")

		r, err := Quick("QUICKAPP_", configFile, map[string]string{
			"server.host": "default-host",
			"server.port": "1",
		})
		require.NoError(t, err)
		defer r.Close()

		host, _ := r.Get("server.host")
		assert.Equal(t, "from-env", host)

		port, _ := r.Get("server.port")
		assert.Equal(t, "8080", port)
	})

	t.Run("MissingConfigFileIsOptional", func(t *testing.T) {
		r, err := Quick("QUICKAPP_", filepath.Join(t.TempDir(), "absent.toml"), map[string]string{
			"key": "default",
		})
		require.NoError(t, err)
		defer r.Close()

		v, _ := r.Get("key")
		assert.Equal(t, "default", v)
	})

	t.Run("NoFile", func(t *testing.T) {
		r, err := Quick("QUICKAPP_", "", nil)
		require.NoError(t, err)
		assert.NotNil(t, r)
	})
}
