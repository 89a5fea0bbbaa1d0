package cms

import (
	"sort"

	"plancraft/api/internal/store"
)

// ChangeStatus classifies one block in a draft-vs-published comparison.
type ChangeStatus string

const (
	ChangeAdded    ChangeStatus = "added"
	ChangeRemoved  ChangeStatus = "removed"
	ChangeModified ChangeStatus = "modified"
)

// Change describes how one block key differs between a draft and the
// published version. DraftContent is nil for removed keys,
// PublishedContent is nil for added keys.
type Change struct {
	BlockKey         string       `json:"blockKey"`
	SectionKey       string       `json:"sectionKey"`
	DraftContent     *string      `json:"draftContent"`
	PublishedContent *string      `json:"publishedContent"`
	Status           ChangeStatus `json:"status"`
}

// Diff compares two block sets by block key. Content is compared as an
// exact string, including JSON-typed payloads: a reformatted but
// semantically equal JSON document counts as modified. Unchanged keys are
// omitted, so a draft freshly cloned from the published version diffs to an
// empty list. Callers filter both sets to a single language before calling;
// the result is sorted by section then block key for display only.
func Diff(draftBlocks, publishedBlocks []store.ContentBlock) []Change {
	published := make(map[string]store.ContentBlock, len(publishedBlocks))
	for _, block := range publishedBlocks {
		published[block.BlockKey] = block
	}

	changes := make([]Change, 0)
	seen := make(map[string]struct{}, len(draftBlocks))
	for _, draft := range draftBlocks {
		seen[draft.BlockKey] = struct{}{}
		base, ok := published[draft.BlockKey]
		if !ok {
			content := draft.Content
			changes = append(changes, Change{
				BlockKey:     draft.BlockKey,
				SectionKey:   draft.SectionKey,
				DraftContent: &content,
				Status:       ChangeAdded,
			})
			continue
		}
		if base.Content != draft.Content {
			draftContent := draft.Content
			publishedContent := base.Content
			changes = append(changes, Change{
				BlockKey:         draft.BlockKey,
				SectionKey:       draft.SectionKey,
				DraftContent:     &draftContent,
				PublishedContent: &publishedContent,
				Status:           ChangeModified,
			})
		}
	}

	for _, base := range publishedBlocks {
		if _, ok := seen[base.BlockKey]; ok {
			continue
		}
		content := base.Content
		changes = append(changes, Change{
			BlockKey:         base.BlockKey,
			SectionKey:       base.SectionKey,
			PublishedContent: &content,
			Status:           ChangeRemoved,
		})
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].SectionKey != changes[j].SectionKey {
			return changes[i].SectionKey < changes[j].SectionKey
		}
		return changes[i].BlockKey < changes[j].BlockKey
	})
	return changes
}
