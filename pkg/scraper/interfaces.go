package scraper

import "tagscraper/pkg/danbooru"

// TagClient is the interface the run controller needs from the API
// client. It exists so tests can substitute a scripted client.
type TagClient interface {
	// FetchTags fetches one page of the tag listing. An empty slice
	// with a nil error signals end of data.
	FetchTags(q danbooru.TagQuery) ([]danbooru.Tag, error)
}
