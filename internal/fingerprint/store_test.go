package fingerprint

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() Generator {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("agent-%d", n.Add(1)) }
}

func TestStore_EnsurePersistsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerprints.json")
	s, err := Open(path, counter())
	require.NoError(t, err)

	fp, created, err := s.Ensure("alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "agent-1", fp)

	fp, created, err = s.Ensure("alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "agent-1", fp)

	onDisk, err := LoadEntries(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alice": "agent-1"}, onDisk)
}

func TestStore_ReopenReadsExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bob": "Mozilla/5.0 (iPhone)"}`), 0o644))

	s, err := Open(path, counter())
	require.NoError(t, err)
	fp, ok := s.Get("bob")
	assert.True(t, ok)
	assert.Equal(t, "Mozilla/5.0 (iPhone)", fp)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ConcurrentProvisioningKeepsEveryEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fp.json")
	s, err := Open(path, counter())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.Ensure(fmt.Sprintf("sub-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	onDisk, err := LoadEntries(path)
	require.NoError(t, err)
	assert.Len(t, onDisk, 32)
}

func TestLoadEntries_Missing(t *testing.T) {
	entries, err := LoadEntries(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadEntries_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadEntries(path)
	assert.Error(t, err)
}
