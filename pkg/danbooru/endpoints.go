package danbooru

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is the base URL for the Danbooru API
	DefaultBaseURL = "https://danbooru.donmai.us"

	// TagsEndpoint is the paged tag listing endpoint
	TagsEndpoint = "/tags.json"

	// PageLimit is the fixed page size for tag listing requests
	PageLimit = 1000
)

// TagQuery describes one page request against the tags endpoint
type TagQuery struct {
	// Page is the 1-based page number
	Page int

	// Order is the sort key: name, newest or count
	Order string

	// Category filters to a single category when non-nil
	Category *Category

	// MinPostCount filters to tags with at least this many posts.
	// Attached only when positive.
	MinPostCount int
}

// GetTagsURL constructs the URL for one page of the tag listing
func GetTagsURL(baseURL string, q TagQuery) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(PageLimit))
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("search[order]", q.Order)

	if q.Category != nil {
		params.Set("search[category]", strconv.Itoa(int(*q.Category)))
	}
	if q.MinPostCount > 0 {
		params.Set("search[post_count]", fmt.Sprintf(">=%d", q.MinPostCount))
	}

	return fmt.Sprintf("%s%s?%s", baseURL, TagsEndpoint, params.Encode())
}
