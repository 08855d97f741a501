package danbooru

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagscraper/pkg/errors"
	"tagscraper/pkg/logger"
)

func newTestClient(serverURL string) *Client {
	client := NewClient(5*time.Second, logger.NewTestLogger())
	client.SetBaseURL(serverURL)
	return client
}

func TestFetchTags(t *testing.T) {
	t.Run("decodes tag page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, TagsEndpoint, r.URL.Path)
			assert.Equal(t, "1000", r.URL.Query().Get("limit"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"name": "1girl", "post_count": 500, "category": 0},
				{"name": "hatsune_miku", "post_count": 12000, "category": 4}
			]`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		tags, err := client.FetchTags(TagQuery{Page: 2, Order: "name"})
		require.NoError(t, err)
		require.Len(t, tags, 2)

		assert.Equal(t, "1girl", tags[0].Name)
		assert.Equal(t, 500, tags[0].PostCount)
		assert.Equal(t, CategoryGeneral, tags[0].Category)
		assert.Equal(t, "hatsune_miku", tags[1].Name)
		assert.Equal(t, CategoryCharacter, tags[1].Category)
	})

	t.Run("empty page means exhausted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		tags, err := client.FetchTags(TagQuery{Page: 99, Order: "name"})
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("rate limit surfaces as typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.FetchTags(TagQuery{Page: 1, Order: "name"})
		require.Error(t, err)
		assert.True(t, errors.IsRateLimit(err))

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeRateLimit, apiErr.Type)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.Code)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.FetchTags(TagQuery{Page: 1, Order: "name"})
		require.Error(t, err)
		assert.False(t, errors.IsRateLimit(err))

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeServerError, apiErr.Type)
	})

	t.Run("auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.FetchTags(TagQuery{Page: 1, Order: "name"})
		require.Error(t, err)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeAuth, apiErr.Type)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.FetchTags(TagQuery{Page: 1, Order: "name"})
		require.Error(t, err)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeParsing, apiErr.Type)
	})

	t.Run("network error", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")
		_, err := client.FetchTags(TagQuery{Page: 1, Order: "name"})
		require.Error(t, err)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeNetwork, apiErr.Type)
	})
}

func TestClientHeaders(t *testing.T) {
	var gotAuth, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.SetHeader("User-Agent", "TagScraper/test")
	client.SetBasicAuth("myuser", "mykey")

	_, err := client.FetchTags(TagQuery{Page: 1, Order: "name"})
	require.NoError(t, err)

	wantToken := base64.StdEncoding.EncodeToString([]byte("myuser:mykey"))
	assert.Equal(t, "Basic "+wantToken, gotAuth)
	assert.Equal(t, "TagScraper/test", gotUserAgent)
}
