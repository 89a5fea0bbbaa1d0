package cms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"plancraft/api/internal/cache"
	"plancraft/api/internal/config"
	"plancraft/api/internal/search"
	"plancraft/api/internal/store"
)

type CreateDraftInput struct {
	Notes string `json:"notes"`
}

type UpdateNotesInput struct {
	Notes string `json:"notes"`
}

type ScheduleInput struct {
	PublishAt time.Time `json:"publishAt"`
}

type CreateBlockInput struct {
	BlockKey   string  `json:"blockKey"`
	SectionKey string  `json:"sectionKey"`
	BlockType  string  `json:"blockType"`
	Content    string  `json:"content"`
	Language   string  `json:"language"`
	SortOrder  int     `json:"sortOrder"`
	Metadata   *string `json:"metadata"`
}

type UpdateBlockInput struct {
	Content   string  `json:"content"`
	SortOrder *int    `json:"sortOrder"`
	Metadata  *string `json:"metadata"`
}

type BulkUpdateInput struct {
	Blocks []BulkUpdateItem `json:"blocks"`
}

type BulkUpdateItem struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	SortOrder *int    `json:"sortOrder"`
	Metadata  *string `json:"metadata"`
}

type ReorderInput struct {
	Blocks []ReorderItem `json:"blocks"`
}

type ReorderItem struct {
	BlockID   string `json:"blockId"`
	SortOrder int    `json:"sortOrder"`
}

type SearchInput struct {
	Text       string
	SectionKey string
	Language   string
	Limit      int
	Offset     int
}

// PublicBlock is the trimmed block shape served by the public content
// endpoint. Internal fields like ids and timestamps stay out of it.
type PublicBlock struct {
	BlockKey  string  `json:"blockKey"`
	BlockType string  `json:"blockType"`
	Content   string  `json:"content"`
	Language  string  `json:"language"`
	SortOrder int     `json:"sortOrder"`
	Metadata  *string `json:"metadata,omitempty"`
}

type PublicVersion struct {
	ID             string     `json:"id"`
	SequenceNumber int64      `json:"sequenceNumber"`
	PublishedAt    *time.Time `json:"publishedAt"`
}

type PublicContent struct {
	Version  *PublicVersion           `json:"version"`
	Sections map[string][]PublicBlock `json:"sections"`
}

type dataStore interface {
	CreateDraft(context.Context, string, string) (store.Version, error)
	GetActiveDraft(context.Context) (*store.Version, error)
	GetPublished(context.Context) (*store.Version, error)
	GetVersion(context.Context, string) (store.Version, error)
	ListVersions(context.Context, int) ([]store.Version, error)
	UpdateVersionNotes(context.Context, string, string) (store.Version, error)
	DeleteVersion(context.Context, string) error
	ScheduleVersion(context.Context, string, time.Time) error
	ClearSchedule(context.Context, string) error
	PublishVersion(context.Context, string, string) (store.Version, error)
	ListDueScheduled(context.Context, time.Time) ([]store.Version, error)
	ListBlocks(context.Context, string, string, string) ([]store.ContentBlock, error)
	GetBlock(context.Context, string, string) (store.ContentBlock, error)
	CreateBlock(context.Context, store.ContentBlock) (store.ContentBlock, error)
	UpdateBlock(context.Context, string, string, string, *int, *string) (store.ContentBlock, error)
	BulkUpdateBlocks(context.Context, string, []store.BlockUpdate) ([]store.ContentBlock, error)
	ReorderBlocks(context.Context, string, []store.BlockOrder) error
	DeleteBlock(context.Context, string, string) error
	ClonePublishedInto(context.Context, string) ([]store.ContentBlock, error)
	Ping(ctx context.Context) error
}

type searcher interface {
	Search(q search.Query) search.Response
	ReindexVersion(ctx context.Context, versionID string)
}

type Service struct {
	cfg    config.Config
	store  dataStore
	cache  *cache.Content
	search searcher
}

// New wires the service. cache and searchSvc may be nil when redis or
// meilisearch are not configured.
func New(cfg config.Config, dataStore *store.PostgresStore, contentCache *cache.Content, searchSvc *search.Service) *Service {
	s := &Service{
		cfg:   cfg,
		store: dataStore,
		cache: contentCache,
	}
	if searchSvc != nil {
		s.search = searchSvc
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CreateDraft opens a new draft version. The draft starts with a copy of the
// currently published blocks, or empty if nothing is published yet.
func (s *Service) CreateDraft(ctx context.Context, actor string, in CreateDraftInput) (store.Version, error) {
	version, err := s.store.CreateDraft(ctx, strings.TrimSpace(in.Notes), actor)
	if err != nil {
		return store.Version{}, mapStoreError(err)
	}
	return version, nil
}

// ActiveDraft returns the current draft, or nil when none exists. The
// absence of a draft is a normal state, not an error.
func (s *Service) ActiveDraft(ctx context.Context) (*store.Version, error) {
	draft, err := s.store.GetActiveDraft(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return draft, nil
}

func (s *Service) Version(ctx context.Context, versionID string) (store.Version, error) {
	version, err := s.store.GetVersion(ctx, versionID)
	if err != nil {
		return store.Version{}, mapStoreError(err)
	}
	return version, nil
}

func (s *Service) Versions(ctx context.Context, limit int) ([]store.Version, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	versions, err := s.store.ListVersions(ctx, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return versions, nil
}

func (s *Service) UpdateNotes(ctx context.Context, versionID string, in UpdateNotesInput) (store.Version, error) {
	version, err := s.store.UpdateVersionNotes(ctx, versionID, strings.TrimSpace(in.Notes))
	if err != nil {
		return store.Version{}, mapStoreError(err)
	}
	return version, nil
}

// DeleteVersion discards a draft. Published and archived versions are
// immutable history and cannot be deleted.
func (s *Service) DeleteVersion(ctx context.Context, versionID string) error {
	if err := s.store.DeleteVersion(ctx, versionID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// Publish promotes a draft to published, archiving the previous published
// version. On success the content cache is flushed and the search index
// rebuilt from the new published blocks.
func (s *Service) Publish(ctx context.Context, versionID, actor string) (store.Version, error) {
	version, err := s.store.PublishVersion(ctx, versionID, actor)
	if err != nil {
		return store.Version{}, mapStoreError(err)
	}
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
	if s.search != nil {
		s.search.ReindexVersion(context.WithoutCancel(ctx), version.ID)
	}
	return version, nil
}

// Schedule sets an automatic publication time on a draft. The time must be
// in the future.
func (s *Service) Schedule(ctx context.Context, versionID string, in ScheduleInput) (store.Version, error) {
	if in.PublishAt.IsZero() {
		return store.Version{}, domainError(http.StatusBadRequest, CodeValidation, "publishAt is required", nil)
	}
	if !in.PublishAt.After(time.Now()) {
		return store.Version{}, domainError(http.StatusUnprocessableEntity, CodeInvalidSchedule, "publishAt must be in the future", nil)
	}
	if err := s.store.ScheduleVersion(ctx, versionID, in.PublishAt.UTC()); err != nil {
		return store.Version{}, mapStoreError(err)
	}
	return s.Version(ctx, versionID)
}

// Unschedule cancels a pending automatic publication.
func (s *Service) Unschedule(ctx context.Context, versionID string) (store.Version, error) {
	if err := s.store.ClearSchedule(ctx, versionID); err != nil {
		return store.Version{}, mapStoreError(err)
	}
	return s.Version(ctx, versionID)
}

// DiffAgainstPublished compares a version's blocks to the currently
// published blocks. With no published version every block reads as added.
func (s *Service) DiffAgainstPublished(ctx context.Context, versionID, language string) ([]Change, error) {
	if _, err := s.store.GetVersion(ctx, versionID); err != nil {
		return nil, mapStoreError(err)
	}

	draftBlocks, err := s.store.ListBlocks(ctx, versionID, "", language)
	if err != nil {
		return nil, mapStoreError(err)
	}

	var publishedBlocks []store.ContentBlock
	published, err := s.store.GetPublished(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if published != nil {
		publishedBlocks, err = s.store.ListBlocks(ctx, published.ID, "", language)
		if err != nil {
			return nil, mapStoreError(err)
		}
	}

	return Diff(draftBlocks, publishedBlocks), nil
}

func (s *Service) Blocks(ctx context.Context, versionID, sectionKey, language string) ([]store.ContentBlock, error) {
	if _, err := s.store.GetVersion(ctx, versionID); err != nil {
		return nil, mapStoreError(err)
	}
	blocks, err := s.store.ListBlocks(ctx, versionID, sectionKey, language)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return blocks, nil
}

func (s *Service) Block(ctx context.Context, versionID, blockID string) (store.ContentBlock, error) {
	block, err := s.store.GetBlock(ctx, versionID, blockID)
	if err != nil {
		return store.ContentBlock{}, mapStoreError(err)
	}
	return block, nil
}

// CreateBlock adds a block to a draft. The section key defaults to the
// block key's leading segment, the language to the configured default.
func (s *Service) CreateBlock(ctx context.Context, versionID string, in CreateBlockInput) (store.ContentBlock, error) {
	blockKey := strings.TrimSpace(in.BlockKey)
	if blockKey == "" {
		return store.ContentBlock{}, domainError(http.StatusBadRequest, CodeValidation, "blockKey is required", nil)
	}
	if !store.ValidBlockType(in.BlockType) {
		return store.ContentBlock{}, domainError(http.StatusBadRequest, CodeValidation, fmt.Sprintf("unknown block type %q", in.BlockType), nil)
	}

	sectionKey := strings.TrimSpace(in.SectionKey)
	if sectionKey == "" {
		sectionKey = sectionFromBlockKey(blockKey)
	}
	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = s.cfg.DefaultLanguage
	}

	block, err := s.store.CreateBlock(ctx, store.ContentBlock{
		VersionID:  versionID,
		BlockKey:   blockKey,
		SectionKey: sectionKey,
		BlockType:  in.BlockType,
		Content:    in.Content,
		Language:   language,
		SortOrder:  in.SortOrder,
		Metadata:   in.Metadata,
	})
	if err != nil {
		return store.ContentBlock{}, mapStoreError(err)
	}
	return block, nil
}

func (s *Service) UpdateBlock(ctx context.Context, versionID, blockID string, in UpdateBlockInput) (store.ContentBlock, error) {
	block, err := s.store.UpdateBlock(ctx, versionID, blockID, in.Content, in.SortOrder, in.Metadata)
	if err != nil {
		return store.ContentBlock{}, mapStoreError(err)
	}
	return block, nil
}

// BulkUpdate applies a batch of block edits atomically. One bad item fails
// the whole batch with the offending block named in the error details.
func (s *Service) BulkUpdate(ctx context.Context, versionID string, in BulkUpdateInput) ([]store.ContentBlock, error) {
	if len(in.Blocks) == 0 {
		return nil, domainError(http.StatusBadRequest, CodeValidation, "blocks must not be empty", nil)
	}
	items := make([]store.BlockUpdate, 0, len(in.Blocks))
	for _, item := range in.Blocks {
		if strings.TrimSpace(item.ID) == "" {
			return nil, domainError(http.StatusBadRequest, CodeValidation, "every block needs an id", nil)
		}
		items = append(items, store.BlockUpdate{
			ID:        item.ID,
			Content:   item.Content,
			SortOrder: item.SortOrder,
			Metadata:  item.Metadata,
		})
	}

	blocks, err := s.store.BulkUpdateBlocks(ctx, versionID, items)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return blocks, nil
}

// Reorder rewrites the sort order of a draft's blocks atomically.
func (s *Service) Reorder(ctx context.Context, versionID string, in ReorderInput) ([]store.ContentBlock, error) {
	if len(in.Blocks) == 0 {
		return nil, domainError(http.StatusBadRequest, CodeValidation, "blocks must not be empty", nil)
	}
	items := make([]store.BlockOrder, 0, len(in.Blocks))
	for _, item := range in.Blocks {
		if strings.TrimSpace(item.BlockID) == "" {
			return nil, domainError(http.StatusBadRequest, CodeValidation, "every block needs a blockId", nil)
		}
		items = append(items, store.BlockOrder{BlockID: item.BlockID, SortOrder: item.SortOrder})
	}

	if err := s.store.ReorderBlocks(ctx, versionID, items); err != nil {
		return nil, mapStoreError(err)
	}
	return s.Blocks(ctx, versionID, "", "")
}

func (s *Service) DeleteBlock(ctx context.Context, versionID, blockID string) error {
	if err := s.store.DeleteBlock(ctx, versionID, blockID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// CloneIntoDraft resets a draft's blocks to a copy of the published set,
// discarding the draft's current blocks.
func (s *Service) CloneIntoDraft(ctx context.Context, versionID string) ([]store.ContentBlock, error) {
	blocks, err := s.store.ClonePublishedInto(ctx, versionID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return blocks, nil
}

// PublishedContent serves the public read projection: the published
// version's blocks grouped by section, serialized once and cached.
func (s *Service) PublishedContent(ctx context.Context, sectionKey, language string) ([]byte, error) {
	if language == "" {
		language = s.cfg.DefaultLanguage
	}

	published, err := s.store.GetPublished(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if published == nil {
		return json.Marshal(PublicContent{Version: nil, Sections: map[string][]PublicBlock{}})
	}

	key := cache.Key(published.ID, sectionKey, language)
	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, key); ok {
			return payload, nil
		}
	}

	blocks, err := s.store.ListBlocks(ctx, published.ID, sectionKey, language)
	if err != nil {
		return nil, mapStoreError(err)
	}

	sections := make(map[string][]PublicBlock)
	for _, block := range blocks {
		sections[block.SectionKey] = append(sections[block.SectionKey], PublicBlock{
			BlockKey:  block.BlockKey,
			BlockType: block.BlockType,
			Content:   block.Content,
			Language:  block.Language,
			SortOrder: block.SortOrder,
			Metadata:  block.Metadata,
		})
	}
	for _, list := range sections {
		sort.SliceStable(list, func(i, j int) bool { return list[i].SortOrder < list[j].SortOrder })
	}

	payload, err := json.Marshal(PublicContent{
		Version: &PublicVersion{
			ID:             published.ID,
			SequenceNumber: published.SequenceNumber,
			PublishedAt:    published.PublishedAt,
		},
		Sections: sections,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, payload)
	}
	return payload, nil
}

// Search runs a full-text search scoped to the published version.
func (s *Service) Search(ctx context.Context, in SearchInput) (search.Response, error) {
	published, err := s.store.GetPublished(ctx)
	if err != nil {
		return search.Response{}, mapStoreError(err)
	}
	if published == nil || s.search == nil {
		return search.Response{Results: []search.Result{}, Total: 0, Query: in.Text}, nil
	}

	return s.search.Search(search.Query{
		Text:       in.Text,
		VersionID:  published.ID,
		SectionKey: in.SectionKey,
		Language:   in.Language,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}), nil
}

func sectionFromBlockKey(blockKey string) string {
	if i := strings.Index(blockKey, "."); i > 0 {
		return blockKey[:i]
	}
	return blockKey
}

// mapStoreError translates store sentinels into domain errors. Anything
// unrecognized passes through and surfaces as a server error.
func mapStoreError(err error) error {
	var bulkErr *store.BulkError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domainError(http.StatusNotFound, CodeNotFound, "not found", nil)
	case errors.Is(err, store.ErrDraftExists):
		return domainError(http.StatusConflict, CodeDraftExists, "an active draft already exists", nil)
	case errors.Is(err, store.ErrInvalidState):
		return domainError(http.StatusConflict, CodeInvalidState, "operation not allowed in the version's current state", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		return domainError(http.StatusConflict, CodeDuplicateKey, "a block with this key and language already exists in the version", nil)
	case errors.As(err, &bulkErr):
		return domainError(http.StatusUnprocessableEntity, CodeBulkUpdate, "bulk update failed", map[string]string{
			"blockId": bulkErr.BlockID,
			"reason":  bulkErr.Reason,
		})
	default:
		return err
	}
}
