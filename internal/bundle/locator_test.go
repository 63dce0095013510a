package bundle

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocator_Path(t *testing.T) {
	l := &Locator{CacheDir: "/cache", TempDir: "/tmp/sc", Ext: ".json"}

	tests := []struct {
		namespace string
		want      string
	}{
		{"", ""},
		{"core", filepath.Join("/cache", "core.json")},
		{"virtual", filepath.Join("/cache", "virtual.json")},
		{"local", filepath.Join("/tmp/sc", "local.json")},
		{"choral", filepath.Join("/tmp/sc", "local-choral.json")},
		{"local-choral", filepath.Join("/tmp/sc", "local-choral.json")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Path(tt.namespace), tt.namespace)
	}
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "local", LocalName(""))
	assert.Equal(t, "local", LocalName("local"))
	assert.Equal(t, "local-hymns", LocalName("hymns"))
	assert.Equal(t, "local-hymns", LocalName("local-hymns"))
}

func TestDefaultLocator(t *testing.T) {
	l := DefaultLocator(".db")
	assert.Equal(t, ".db", l.Ext)
	assert.Equal(t, "scorecache", filepath.Base(l.CacheDir))
	assert.Equal(t, "scorecache", filepath.Base(l.TempDir))
}
