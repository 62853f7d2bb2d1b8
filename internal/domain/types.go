package domain

// Idea types the clients know about. Storage keeps type as an open string.
const (
	TypeNote  = "note"
	TypePage  = "page"
	TypeQuote = "quote"
	TypeBook  = "book"
	TypeTweet = "tweet"
	TypeImage = "image"
	TypeVideo = "video"
	TypeTag   = "tag"
	TypeMeta  = "meta"
)

// Connection labels with special meaning.
const (
	LabelTaggedWith = "tagged_with"
	LabelRelatedTo  = "related_to"
)

// Content is the free-form payload stored in an idea's blob. Its shape depends
// on the idea type and is never validated against a schema.
type Content map[string]any

// Idea is the root captured item
type Idea struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Title      *string `json:"title"`
	URL        *string `json:"url"`
	Summary    *string `json:"summary"`
	ContentRef string  `json:"content_ref"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

// Connection is a labeled directed edge between two ideas
type Connection struct {
	ID        string `json:"id"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	Label     string `json:"label"`
	CreatedAt int64  `json:"created_at"`
}

// ConnectionView is a connection joined with both endpoints for display
type ConnectionView struct {
	Connection
	FromType  string  `json:"from_type"`
	FromTitle *string `json:"from_title"`
	ToType    string  `json:"to_type"`
	ToTitle   *string `json:"to_title"`
}

// Other returns the id on the far side of the edge relative to id.
func (c Connection) Other(id string) string {
	if c.FromID == id {
		return c.ToID
	}
	return c.FromID
}

// Note is a free-text annotation owned by one idea
type Note struct {
	ID        string `json:"id"`
	IdeaID    string `json:"idea_id"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Media is a binary attachment owned by one idea
type Media struct {
	ID        string `json:"id"`
	IdeaID    string `json:"idea_id"`
	BlobKey   string `json:"blob_key"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt int64  `json:"created_at"`
}

// Tag is a tag idea with the number of ideas tagged with it
type Tag struct {
	Idea
	UsageCount int `json:"usage_count"`
}

// Node is the reduced idea shape used by graph views
type Node struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Title     *string `json:"title"`
	URL       *string `json:"url"`
	CreatedAt int64   `json:"created_at,omitempty"`
}

// IdeaDetail is an idea with everything it owns or touches
type IdeaDetail struct {
	Idea        *Idea            `json:"idea"`
	Data        Content          `json:"data"`
	Connections []ConnectionView `json:"connections"`
	Notes       []Note           `json:"notes"`
	Media       []Media          `json:"media"`
}

// ListOptions filters a page of ideas. Cursor is the created_at of the last
// idea of the previous page, zero for the first page.
type ListOptions struct {
	Type   string
	Tag    string
	URL    string
	Limit  int
	Cursor int64
}

// Page is one page of ideas ordered newest first
type Page struct {
	Ideas      []Idea `json:"ideas"`
	NextCursor *int64 `json:"next_cursor"`
}

// Pagination bounds shared by list and search.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit applies the default and the maximum page size.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
