package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTail(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trainer.log")
	err := os.WriteFile(logPath, []byte("one\ntwo\nthree\nfour\n"), 0644)
	require.NoError(t, err)

	tail, err := ReadTail(logPath, 2)
	require.NoError(t, err)
	assert.Equal(t, "three\nfour\n", tail)

	tail, err = ReadTail(logPath, 10)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\nfour\n", tail)
}

func TestReadTailMissingFile(t *testing.T) {
	_, err := ReadTail(filepath.Join(t.TempDir(), "absent.log"), 3)
	assert.Error(t, err)
}
