package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{
		"bach/bwv66.6.mxl",
		"bach/bwv7.7.krn",
		"folk/reels.ABC",
		"folk/notes.txt",
		".git/config.xml",
		"bach/.draft.xml",
	} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(name), 0644))
	}
	return root
}

func TestDiscover_Extensions(t *testing.T) {
	root := setupCorpus(t)

	files, err := Discover(root, Options{Extensions: []string{".mxl", ".krn", ".abc", ".xml"}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "bach/bwv66.6.mxl"),
		filepath.Join(root, "bach/bwv7.7.krn"),
		filepath.Join(root, "folk/reels.ABC"),
	}, files)
}

func TestDiscover_AllFilesAndHidden(t *testing.T) {
	root := setupCorpus(t)

	files, err := Discover(root, Options{})
	require.NoError(t, err)
	assert.Len(t, files, 4)

	files, err = Discover(root, Options{IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, files, 6)
}

func TestDiscover_BadRoot(t *testing.T) {
	root := setupCorpus(t)

	_, err := Discover(filepath.Join(root, "missing"), Options{})
	assert.Error(t, err)

	_, err = Discover(filepath.Join(root, "folk/notes.txt"), Options{})
	assert.Error(t, err)
}
