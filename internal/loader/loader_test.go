package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.txt")
	content := "http://u:p@1.2.3.4:8080\r\n\n  # disabled\n  socks5://5.6.7.8:1080  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := Lines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://u:p@1.2.3.4:8080", "socks5://5.6.7.8:1080"}, lines)
}

func TestLines_MissingFile(t *testing.T) {
	lines, err := Lines(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.Empty(t, lines)
}
