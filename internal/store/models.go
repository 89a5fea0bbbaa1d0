package store

import "time"

// Version statuses. At most one version is draft and at most one is
// published at any time; the partial unique indexes in the schema enforce
// this, every other version is archived.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Block types. The store treats content as an opaque string regardless of
// type; structured payloads (image, link, json) are a renderer convention.
const (
	BlockText     = "text"
	BlockRichText = "richtext"
	BlockImage    = "image"
	BlockLink     = "link"
	BlockJSON     = "json"
	BlockNumber   = "number"
	BlockBoolean  = "boolean"
)

// ValidBlockType reports whether t is one of the closed set of block types.
func ValidBlockType(t string) bool {
	switch t {
	case BlockText, BlockRichText, BlockImage, BlockLink, BlockJSON, BlockNumber, BlockBoolean:
		return true
	}
	return false
}

type Version struct {
	ID                 string     `json:"id"`
	SequenceNumber     int64      `json:"sequenceNumber"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes"`
	CreatedBy          string     `json:"createdBy"`
	CreatedAt          time.Time  `json:"createdAt"`
	PublishedBy        *string    `json:"publishedBy"`
	PublishedAt        *time.Time `json:"publishedAt"`
	ScheduledPublishAt *time.Time `json:"scheduledPublishAt"`
}

type ContentBlock struct {
	ID         string    `json:"id"`
	VersionID  string    `json:"versionId"`
	BlockKey   string    `json:"blockKey"`
	SectionKey string    `json:"sectionKey"`
	BlockType  string    `json:"blockType"`
	Content    string    `json:"content"`
	Language   string    `json:"language"`
	SortOrder  int       `json:"sortOrder"`
	Metadata   *string   `json:"metadata"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BlockUpdate is one item of a bulk save. Content is always written;
// SortOrder and Metadata only when non-nil.
type BlockUpdate struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	SortOrder *int    `json:"sortOrder"`
	Metadata  *string `json:"metadata"`
}

// BlockOrder is one item of a reorder request.
type BlockOrder struct {
	BlockID   string `json:"blockId"`
	SortOrder int    `json:"sortOrder"`
}
