package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Equivalence(t *testing.T) {
	n := New(nil)

	a, err := n.Normalize("http://WWW.Example.org/a/?b=1&a=2")
	require.NoError(t, err)
	b, err := n.Normalize("https://example.org/a?a=2&b=1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(nil)

	urls := []string{
		"http://www.jinboparty.com/main/board.php?b=news&bn=123#top",
		"https://laborparty.kr/news/?mod=document&uid=42&page=3",
		"http://example.org",
		"https://example.org/path/",
	}
	for _, raw := range urls {
		once, err := n.Normalize(raw)
		require.NoError(t, err)
		twice, err := n.Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalize must be idempotent for %s", raw)
	}
}

func TestNormalize_Rules(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "scheme forced to https", in: "http://example.org/x", want: "https://example.org/x"},
		{name: "www stripped", in: "https://www.example.org/x", want: "https://example.org/x"},
		{name: "trailing slash stripped", in: "https://example.org/x/", want: "https://example.org/x"},
		{name: "root path kept", in: "https://example.org/", want: "https://example.org/"},
		{name: "empty path becomes root", in: "https://example.org", want: "https://example.org/"},
		{name: "fragment dropped", in: "https://example.org/x#frag", want: "https://example.org/x"},
		{name: "params sorted", in: "https://example.org/x?z=1&a=2", want: "https://example.org/x?a=2&z=1"},
		{
			name: "pagination and tracking params dropped",
			in:   "https://example.org/x?uid=7&page=3&utm_source=tw&nPage=2",
			want: "https://example.org/x?uid=7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_CustomIgnoreList(t *testing.T) {
	n := New([]string{"sid"})

	got, err := n.Normalize("https://example.org/x?sid=9&page=1")
	require.NoError(t, err)
	// Only the configured list applies; defaults are replaced, not merged.
	assert.Equal(t, "https://example.org/x?page=1", got)
}

func TestNormalize_BadURL(t *testing.T) {
	n := New(nil)
	_, err := n.Normalize("http://exa mple.org/%zz")
	assert.Error(t, err)
}
