package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"geoquiz/internal/config"
)

type testConfig struct {
	HTTP struct {
		Port int32
	}

	Data struct {
		Dir string
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestLoad(t *testing.T) {
	file := writeConfig(t, "http:\n  port: 9090\n")

	var c testConfig
	c.Data.Dir = "data"

	require.NoError(t, config.Load(file, &c))
	require.Equal(t, int32(9090), c.HTTP.Port)
	require.Equal(t, "data", c.Data.Dir, "defaults survive when the file omits a key")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	file := writeConfig(t, "http:\n  port: 9090\n")
	t.Setenv("HTTP_PORT", "7070")

	var c testConfig
	require.NoError(t, config.Load(file, &c))
	require.Equal(t, int32(7070), c.HTTP.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	var c testConfig
	require.Error(t, config.Load(filepath.Join(t.TempDir(), "nope.yaml"), &c))
}
