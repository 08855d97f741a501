package danbooru

// Category is a tag category code as returned by the tags endpoint.
// The set of valid codes is fixed; anything else labels as "unknown".
type Category int

const (
	CategoryGeneral   Category = 0
	CategoryArtist    Category = 1
	CategoryCopyright Category = 3
	CategoryCharacter Category = 4
	CategoryMeta      Category = 5
)

// Label returns the human-readable name for the category code
func (c Category) Label() string {
	switch c {
	case CategoryGeneral:
		return "general"
	case CategoryArtist:
		return "artist"
	case CategoryCopyright:
		return "copyright"
	case CategoryCharacter:
		return "character"
	case CategoryMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// ParseCategory maps a category name to its code. It accepts the same
// names Label produces; "unknown" and anything unrecognized fail.
func ParseCategory(name string) (Category, bool) {
	switch name {
	case "general":
		return CategoryGeneral, true
	case "artist":
		return CategoryArtist, true
	case "copyright":
		return CategoryCopyright, true
	case "character":
		return CategoryCharacter, true
	case "meta":
		return CategoryMeta, true
	default:
		return 0, false
	}
}

// Tag is a single record from the tags listing. Tags are produced only
// by the remote source and are immutable once fetched.
type Tag struct {
	Name      string   `json:"name"`
	PostCount int      `json:"post_count"`
	Category  Category `json:"category"`
}
