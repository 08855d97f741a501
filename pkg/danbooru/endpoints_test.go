package danbooru

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseQuery(t *testing.T, rawURL string) url.Values {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	return parsed.Query()
}

func TestGetTagsURL(t *testing.T) {
	t.Run("basic query", func(t *testing.T) {
		rawURL := GetTagsURL(DefaultBaseURL, TagQuery{Page: 3, Order: "name"})

		query := parseQuery(t, rawURL)
		assert.Equal(t, "1000", query.Get("limit"))
		assert.Equal(t, "3", query.Get("page"))
		assert.Equal(t, "name", query.Get("search[order]"))
		assert.Empty(t, query.Get("search[category]"))
		assert.Empty(t, query.Get("search[post_count]"))
	})

	t.Run("category filter", func(t *testing.T) {
		cat := CategoryCharacter
		rawURL := GetTagsURL(DefaultBaseURL, TagQuery{Page: 1, Order: "count", Category: &cat})

		query := parseQuery(t, rawURL)
		assert.Equal(t, "4", query.Get("search[category]"))
		assert.Equal(t, "count", query.Get("search[order]"))
	})

	t.Run("min post count attached only when positive", func(t *testing.T) {
		rawURL := GetTagsURL(DefaultBaseURL, TagQuery{Page: 1, Order: "name", MinPostCount: 100})
		query := parseQuery(t, rawURL)
		assert.Equal(t, ">=100", query.Get("search[post_count]"))

		rawURL = GetTagsURL(DefaultBaseURL, TagQuery{Page: 1, Order: "name", MinPostCount: 0})
		query = parseQuery(t, rawURL)
		assert.Empty(t, query.Get("search[post_count]"))
	})

	t.Run("endpoint path", func(t *testing.T) {
		rawURL := GetTagsURL("http://example.test", TagQuery{Page: 1, Order: "name"})
		parsed, err := url.Parse(rawURL)
		require.NoError(t, err)
		assert.Equal(t, TagsEndpoint, parsed.Path)
	})
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "general", CategoryGeneral.Label())
	assert.Equal(t, "artist", CategoryArtist.Label())
	assert.Equal(t, "copyright", CategoryCopyright.Label())
	assert.Equal(t, "character", CategoryCharacter.Label())
	assert.Equal(t, "meta", CategoryMeta.Label())

	// Unrecognized codes map to the literal unknown label
	assert.Equal(t, "unknown", Category(2).Label())
	assert.Equal(t, "unknown", Category(-1).Label())
	assert.Equal(t, "unknown", Category(42).Label())
}

func TestParseCategory(t *testing.T) {
	for name, want := range map[string]Category{
		"general":   CategoryGeneral,
		"artist":    CategoryArtist,
		"copyright": CategoryCopyright,
		"character": CategoryCharacter,
		"meta":      CategoryMeta,
	} {
		got, ok := ParseCategory(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := ParseCategory("all")
	assert.False(t, ok)
	_, ok = ParseCategory("unknown")
	assert.False(t, ok)
}
