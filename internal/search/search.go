package search

// Result is a single search hit over the published version's blocks.
type Result struct {
	BlockID    string `json:"blockId"`
	BlockKey   string `json:"blockKey"`
	SectionKey string `json:"sectionKey"`
	Language   string `json:"language"`
	Snippet    string `json:"snippet"`
}

// Query describes a search request. VersionID scopes every query to the
// current published version; drafts are never searchable.
type Query struct {
	Text       string
	VersionID  string
	SectionKey string
	Language   string
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// BlockRecord is the data indexed for one content block.
type BlockRecord struct {
	ID         string `json:"id"`
	VersionID  string `json:"versionId"`
	BlockKey   string `json:"blockKey"`
	SectionKey string `json:"sectionKey"`
	BlockType  string `json:"blockType"`
	Content    string `json:"content"`
	Language   string `json:"language"`
}
