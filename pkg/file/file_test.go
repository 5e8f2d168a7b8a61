package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileService_IsFileExists(t *testing.T) {
	fs := NewFileService()
	path := writeTemp(t, "present.txt", "x")

	ok, err := fs.IsFileExists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.IsFileExists(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileService_ReadFile(t *testing.T) {
	fs := NewFileService()
	path := writeTemp(t, "uptime", "36000.00 1000.00\n")

	content, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "36000.00 1000.00\n", content)

	raw, err := fs.ReadFileRaw(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("36000.00 1000.00\n"), raw)
}

func TestFileService_ReadYamlFile(t *testing.T) {
	fs := NewFileService()
	path := writeTemp(t, "config.yaml", "agent:\n  id: agent-1\n")

	var cfg struct {
		Agent struct {
			ID string `yaml:"id"`
		} `yaml:"agent"`
	}
	require.NoError(t, fs.ReadYamlFile(path, &cfg))
	assert.Equal(t, "agent-1", cfg.Agent.ID)
}

func TestFileService_ReadYamlFile_Empty(t *testing.T) {
	fs := NewFileService()
	path := writeTemp(t, "empty.yaml", "")

	cfg := map[string]string{"keep": "me"}
	require.NoError(t, fs.ReadYamlFile(path, &cfg))
	assert.Equal(t, "me", cfg["keep"])
}
