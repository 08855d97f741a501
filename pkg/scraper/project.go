package scraper

import (
	"fmt"
	"strings"

	"tagscraper/pkg/danbooru"
)

// projectTag maps a fetched tag to its output line and dedup key.
// Tags whose name is blank after trimming are skipped (ok=false); that
// is a filter decision, not an error. With metadata enabled the line is
// a tab-delimited name/count/category tuple, otherwise the bare name.
func projectTag(tag danbooru.Tag, includeMetadata bool) (line, key string, ok bool) {
	name := strings.TrimSpace(tag.Name)
	if name == "" {
		return "", "", false
	}

	if includeMetadata {
		return fmt.Sprintf("%s\t%d\t%s", name, tag.PostCount, tag.Category.Label()), name, true
	}
	return name, name, true
}
