package keycodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		number *int
		want   string
	}{
		{"corpus relative", "bach/bwv1007/prelude", nil, "bach_bwv1007_prelude"},
		{"leading separator", "/beethoven/opus59no1/movement1.xml", nil, "beethoven_opus59no1_movement1_xml"},
		{"absolute under corpus", "/opt/scorecache/corpus/bach/bwv66.6.mxl", nil, "bach_bwv66_6_mxl"},
		{"last marker wins", "/home/corpus/work/corpus/bach/a.krn", nil, "bach_a_krn"},
		{"no marker", "/tmp/scores/a.b.xml", nil, "tmp_scores_a_b_xml"},
		{"numbered", "/opt/corpus/folk/reels.abc", intPtr(3), "folk_reels_abc_3"},
		{"zero number", "folk/reels.abc", intPtr(0), "folk_reels_abc_0"},
		{"network", "http://example.com/scores/x.xml", nil, "http:__example_com_scores_x_xml"},
		{"marker as file name", "/a/corpus.xml", nil, "a_corpus_xml"},
		{"marker inside directory name", "/srv/mycorpus/bach/a.xml", nil, "srv_mycorpus_bach_a_xml"},
		{"marker component after lookalike", "/srv/corpus/corpus.d/a.xml", nil, "corpus_d_a_xml"},
		{"relative marker at start", "corpus/bach/a.xml", nil, "bach_a_xml"},
		{"empty", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveKey(tt.path, tt.number))
		})
	}
}

func TestDeriveKey_MarkerInFileNameDoesNotCollide(t *testing.T) {
	assert.NotEqual(t, DeriveKey("/a/corpus.xml", nil), DeriveKey("/b/corpus.xml", nil))
}

func TestDeriveKey_Deterministic(t *testing.T) {
	path := "/opt/corpus/bach/bwv66.6.mxl"
	first := DeriveKey(path, intPtr(2))
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, DeriveKey(path, intPtr(2)))
	}
}

func TestCodec_CustomMarkers(t *testing.T) {
	c := Codec{Markers: []string{"scores", ""}}

	assert.Equal(t, "bach_a_xml", c.DeriveKey("/srv/scores/bach/a.xml", nil))
	assert.Equal(t, "srv_other_a_xml", c.DeriveKey("/srv/other/a.xml", nil))
}

func TestIsNetworkPath(t *testing.T) {
	assert.True(t, IsNetworkPath("http://example.com/a.xml"))
	assert.True(t, IsNetworkPath("https://example.com/a.xml"))
	assert.False(t, IsNetworkPath("/tmp/http/a.xml"))
	assert.False(t, IsNetworkPath("httpfile.xml"))
}
