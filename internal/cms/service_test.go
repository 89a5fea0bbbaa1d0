package cms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"plancraft/api/internal/config"
	"plancraft/api/internal/store"
)

type fakeStore struct {
	createDraftFn        func(context.Context, string, string) (store.Version, error)
	getActiveDraftFn     func(context.Context) (*store.Version, error)
	getPublishedFn       func(context.Context) (*store.Version, error)
	getVersionFn         func(context.Context, string) (store.Version, error)
	listVersionsFn       func(context.Context, int) ([]store.Version, error)
	updateNotesFn        func(context.Context, string, string) (store.Version, error)
	deleteVersionFn      func(context.Context, string) error
	scheduleVersionFn    func(context.Context, string, time.Time) error
	clearScheduleFn      func(context.Context, string) error
	publishVersionFn     func(context.Context, string, string) (store.Version, error)
	listDueScheduledFn   func(context.Context, time.Time) ([]store.Version, error)
	listBlocksFn         func(context.Context, string, string, string) ([]store.ContentBlock, error)
	getBlockFn           func(context.Context, string, string) (store.ContentBlock, error)
	createBlockFn        func(context.Context, store.ContentBlock) (store.ContentBlock, error)
	updateBlockFn        func(context.Context, string, string, string, *int, *string) (store.ContentBlock, error)
	bulkUpdateBlocksFn   func(context.Context, string, []store.BlockUpdate) ([]store.ContentBlock, error)
	reorderBlocksFn      func(context.Context, string, []store.BlockOrder) error
	deleteBlockFn        func(context.Context, string, string) error
	clonePublishedIntoFn func(context.Context, string) ([]store.ContentBlock, error)
	pingFn               func(context.Context) error
}

func (f *fakeStore) CreateDraft(ctx context.Context, notes, createdBy string) (store.Version, error) {
	if f.createDraftFn != nil {
		return f.createDraftFn(ctx, notes, createdBy)
	}
	return store.Version{}, nil
}
func (f *fakeStore) GetActiveDraft(ctx context.Context) (*store.Version, error) {
	if f.getActiveDraftFn != nil {
		return f.getActiveDraftFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) GetPublished(ctx context.Context) (*store.Version, error) {
	if f.getPublishedFn != nil {
		return f.getPublishedFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) GetVersion(ctx context.Context, versionID string) (store.Version, error) {
	if f.getVersionFn != nil {
		return f.getVersionFn(ctx, versionID)
	}
	return store.Version{}, sql.ErrNoRows
}
func (f *fakeStore) ListVersions(ctx context.Context, limit int) ([]store.Version, error) {
	if f.listVersionsFn != nil {
		return f.listVersionsFn(ctx, limit)
	}
	return nil, nil
}
func (f *fakeStore) UpdateVersionNotes(ctx context.Context, versionID, notes string) (store.Version, error) {
	if f.updateNotesFn != nil {
		return f.updateNotesFn(ctx, versionID, notes)
	}
	return store.Version{}, sql.ErrNoRows
}
func (f *fakeStore) DeleteVersion(ctx context.Context, versionID string) error {
	if f.deleteVersionFn != nil {
		return f.deleteVersionFn(ctx, versionID)
	}
	return nil
}
func (f *fakeStore) ScheduleVersion(ctx context.Context, versionID string, publishAt time.Time) error {
	if f.scheduleVersionFn != nil {
		return f.scheduleVersionFn(ctx, versionID, publishAt)
	}
	return nil
}
func (f *fakeStore) ClearSchedule(ctx context.Context, versionID string) error {
	if f.clearScheduleFn != nil {
		return f.clearScheduleFn(ctx, versionID)
	}
	return nil
}
func (f *fakeStore) PublishVersion(ctx context.Context, versionID, publishedBy string) (store.Version, error) {
	if f.publishVersionFn != nil {
		return f.publishVersionFn(ctx, versionID, publishedBy)
	}
	return store.Version{}, sql.ErrNoRows
}
func (f *fakeStore) ListDueScheduled(ctx context.Context, now time.Time) ([]store.Version, error) {
	if f.listDueScheduledFn != nil {
		return f.listDueScheduledFn(ctx, now)
	}
	return nil, nil
}
func (f *fakeStore) ListBlocks(ctx context.Context, versionID, sectionKey, language string) ([]store.ContentBlock, error) {
	if f.listBlocksFn != nil {
		return f.listBlocksFn(ctx, versionID, sectionKey, language)
	}
	return nil, nil
}
func (f *fakeStore) GetBlock(ctx context.Context, versionID, blockID string) (store.ContentBlock, error) {
	if f.getBlockFn != nil {
		return f.getBlockFn(ctx, versionID, blockID)
	}
	return store.ContentBlock{}, sql.ErrNoRows
}
func (f *fakeStore) CreateBlock(ctx context.Context, block store.ContentBlock) (store.ContentBlock, error) {
	if f.createBlockFn != nil {
		return f.createBlockFn(ctx, block)
	}
	return block, nil
}
func (f *fakeStore) UpdateBlock(ctx context.Context, versionID, blockID, content string, sortOrder *int, metadata *string) (store.ContentBlock, error) {
	if f.updateBlockFn != nil {
		return f.updateBlockFn(ctx, versionID, blockID, content, sortOrder, metadata)
	}
	return store.ContentBlock{}, sql.ErrNoRows
}
func (f *fakeStore) BulkUpdateBlocks(ctx context.Context, versionID string, items []store.BlockUpdate) ([]store.ContentBlock, error) {
	if f.bulkUpdateBlocksFn != nil {
		return f.bulkUpdateBlocksFn(ctx, versionID, items)
	}
	return nil, nil
}
func (f *fakeStore) ReorderBlocks(ctx context.Context, versionID string, items []store.BlockOrder) error {
	if f.reorderBlocksFn != nil {
		return f.reorderBlocksFn(ctx, versionID, items)
	}
	return nil
}
func (f *fakeStore) DeleteBlock(ctx context.Context, versionID, blockID string) error {
	if f.deleteBlockFn != nil {
		return f.deleteBlockFn(ctx, versionID, blockID)
	}
	return nil
}
func (f *fakeStore) ClonePublishedInto(ctx context.Context, targetVersionID string) ([]store.ContentBlock, error) {
	if f.clonePublishedIntoFn != nil {
		return f.clonePublishedIntoFn(ctx, targetVersionID)
	}
	return nil, nil
}
func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func newTestService(fs *fakeStore) *Service {
	return &Service{
		cfg:   config.Config{DefaultLanguage: "en"},
		store: fs,
	}
}

func domainErrorFrom(t *testing.T, err error) *DomainError {
	t.Helper()
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return domainErr
}

func TestCreateDraftPassesActorAndNotes(t *testing.T) {
	var gotNotes, gotActor string
	fs := &fakeStore{
		createDraftFn: func(ctx context.Context, notes, createdBy string) (store.Version, error) {
			gotNotes, gotActor = notes, createdBy
			return store.Version{ID: "ver_1", Status: store.StatusDraft, SequenceNumber: 4}, nil
		},
	}
	svc := newTestService(fs)

	version, err := svc.CreateDraft(context.Background(), "maria", CreateDraftInput{Notes: "  spring refresh  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotNotes != "spring refresh" {
		t.Errorf("expected trimmed notes, got %q", gotNotes)
	}
	if gotActor != "maria" {
		t.Errorf("expected actor maria, got %q", gotActor)
	}
	if version.SequenceNumber != 4 {
		t.Errorf("unexpected version returned: %+v", version)
	}
}

func TestCreateDraftConflictsWhenDraftExists(t *testing.T) {
	fs := &fakeStore{
		createDraftFn: func(context.Context, string, string) (store.Version, error) {
			return store.Version{}, store.ErrDraftExists
		},
	}
	svc := newTestService(fs)

	_, err := svc.CreateDraft(context.Background(), "maria", CreateDraftInput{})
	domainErr := domainErrorFrom(t, err)
	if domainErr.Status != http.StatusConflict || domainErr.Code != CodeDraftExists {
		t.Errorf("expected 409 DRAFT_EXISTS, got %d %s", domainErr.Status, domainErr.Code)
	}
}

func TestActiveDraftAbsentReturnsNil(t *testing.T) {
	svc := newTestService(&fakeStore{})

	draft, err := svc.ActiveDraft(context.Background())
	if err != nil {
		t.Fatalf("ActiveDraft: %v", err)
	}
	if draft != nil {
		t.Errorf("expected nil draft, got %+v", draft)
	}
}

func TestPublishNonDraftRejected(t *testing.T) {
	fs := &fakeStore{
		publishVersionFn: func(context.Context, string, string) (store.Version, error) {
			return store.Version{}, store.ErrInvalidState
		},
	}
	svc := newTestService(fs)

	_, err := svc.Publish(context.Background(), "ver_old", "maria")
	domainErr := domainErrorFrom(t, err)
	if domainErr.Status != http.StatusConflict || domainErr.Code != CodeInvalidState {
		t.Errorf("expected 409 INVALID_STATE, got %d %s", domainErr.Status, domainErr.Code)
	}
}

func TestScheduleRejectsPastTime(t *testing.T) {
	called := false
	fs := &fakeStore{
		scheduleVersionFn: func(context.Context, string, time.Time) error {
			called = true
			return nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.Schedule(context.Background(), "ver_1", ScheduleInput{PublishAt: time.Now().Add(-time.Minute)})
	domainErr := domainErrorFrom(t, err)
	if domainErr.Status != http.StatusUnprocessableEntity || domainErr.Code != CodeInvalidSchedule {
		t.Errorf("expected 422 INVALID_SCHEDULE, got %d %s", domainErr.Status, domainErr.Code)
	}
	if called {
		t.Error("store must not be called for past schedule times")
	}
}

func TestScheduleRejectsZeroTime(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.Schedule(context.Background(), "ver_1", ScheduleInput{})
	domainErr := domainErrorFrom(t, err)
	if domainErr.Code != CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", domainErr.Code)
	}
}

func TestScheduleStoresFutureTime(t *testing.T) {
	publishAt := time.Now().Add(2 * time.Hour)
	var gotAt time.Time
	fs := &fakeStore{
		scheduleVersionFn: func(_ context.Context, _ string, at time.Time) error {
			gotAt = at
			return nil
		},
		getVersionFn: func(context.Context, string) (store.Version, error) {
			return store.Version{ID: "ver_1", Status: store.StatusDraft}, nil
		},
	}
	svc := newTestService(fs)

	version, err := svc.Schedule(context.Background(), "ver_1", ScheduleInput{PublishAt: publishAt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotAt.Equal(publishAt) {
		t.Errorf("expected %v stored, got %v", publishAt, gotAt)
	}
	if version.ID != "ver_1" {
		t.Errorf("unexpected version: %+v", version)
	}
}

func TestCreateBlockValidation(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.CreateBlock(context.Background(), "ver_1", CreateBlockInput{BlockType: store.BlockText})
	if domainErr := domainErrorFrom(t, err); domainErr.Code != CodeValidation {
		t.Errorf("expected VALIDATION_ERROR for missing block key, got %s", domainErr.Code)
	}

	_, err = svc.CreateBlock(context.Background(), "ver_1", CreateBlockInput{BlockKey: "hero.title", BlockType: "video"})
	if domainErr := domainErrorFrom(t, err); domainErr.Code != CodeValidation {
		t.Errorf("expected VALIDATION_ERROR for unknown type, got %s", domainErr.Code)
	}
}

func TestCreateBlockDefaultsSectionAndLanguage(t *testing.T) {
	var created store.ContentBlock
	fs := &fakeStore{
		createBlockFn: func(_ context.Context, block store.ContentBlock) (store.ContentBlock, error) {
			created = block
			return block, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.CreateBlock(context.Background(), "ver_1", CreateBlockInput{
		BlockKey:  "hero.title",
		BlockType: store.BlockText,
		Content:   "Plan smarter",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.SectionKey != "hero" {
		t.Errorf("expected section derived from block key, got %q", created.SectionKey)
	}
	if created.Language != "en" {
		t.Errorf("expected default language en, got %q", created.Language)
	}
}

func TestCreateBlockDuplicateKey(t *testing.T) {
	fs := &fakeStore{
		createBlockFn: func(context.Context, store.ContentBlock) (store.ContentBlock, error) {
			return store.ContentBlock{}, store.ErrDuplicateKey
		},
	}
	svc := newTestService(fs)

	_, err := svc.CreateBlock(context.Background(), "ver_1", CreateBlockInput{
		BlockKey:  "hero.title",
		BlockType: store.BlockText,
	})
	domainErr := domainErrorFrom(t, err)
	if domainErr.Status != http.StatusConflict || domainErr.Code != CodeDuplicateKey {
		t.Errorf("expected 409 DUPLICATE_KEY, got %d %s", domainErr.Status, domainErr.Code)
	}
}

func TestBulkUpdateSurfacesOffendingBlock(t *testing.T) {
	fs := &fakeStore{
		bulkUpdateBlocksFn: func(context.Context, string, []store.BlockUpdate) ([]store.ContentBlock, error) {
			return nil, &store.BulkError{BlockID: "blk_missing", Reason: "block not found"}
		},
	}
	svc := newTestService(fs)

	_, err := svc.BulkUpdate(context.Background(), "ver_1", BulkUpdateInput{
		Blocks: []BulkUpdateItem{{ID: "blk_missing", Content: "x"}},
	})
	domainErr := domainErrorFrom(t, err)
	if domainErr.Status != http.StatusUnprocessableEntity || domainErr.Code != CodeBulkUpdate {
		t.Fatalf("expected 422 BULK_UPDATE_FAILED, got %d %s", domainErr.Status, domainErr.Code)
	}
	details, ok := domainErr.Details.(map[string]string)
	if !ok || details["blockId"] != "blk_missing" {
		t.Errorf("expected offending block in details, got %+v", domainErr.Details)
	}
}

func TestBulkUpdateRejectsEmptyBatch(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.BulkUpdate(context.Background(), "ver_1", BulkUpdateInput{})
	if domainErr := domainErrorFrom(t, err); domainErr.Code != CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", domainErr.Code)
	}
}

func TestDiffAgainstPublishedFiltersLanguage(t *testing.T) {
	var gotLanguages []string
	fs := &fakeStore{
		getVersionFn: func(context.Context, string) (store.Version, error) {
			return store.Version{ID: "ver_draft", Status: store.StatusDraft}, nil
		},
		getPublishedFn: func(context.Context) (*store.Version, error) {
			return &store.Version{ID: "ver_live", Status: store.StatusPublished}, nil
		},
		listBlocksFn: func(_ context.Context, versionID, _, language string) ([]store.ContentBlock, error) {
			gotLanguages = append(gotLanguages, language)
			if versionID == "ver_draft" {
				return []store.ContentBlock{block("hero.title", "hero", "new")}, nil
			}
			return []store.ContentBlock{block("hero.title", "hero", "old")}, nil
		},
	}
	svc := newTestService(fs)

	changes, err := svc.DiffAgainstPublished(context.Background(), "ver_draft", "de")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 1 || changes[0].Status != ChangeModified {
		t.Fatalf("expected one modified change, got %+v", changes)
	}
	for _, language := range gotLanguages {
		if language != "de" {
			t.Errorf("expected language filter de on every listing, got %v", gotLanguages)
		}
	}
}

func TestDiffOfPublishedVersionAgainstItselfIsEmpty(t *testing.T) {
	fs := &fakeStore{
		getVersionFn: func(context.Context, string) (store.Version, error) {
			return store.Version{ID: "ver_live", Status: store.StatusPublished}, nil
		},
		getPublishedFn: func(context.Context) (*store.Version, error) {
			return &store.Version{ID: "ver_live", Status: store.StatusPublished}, nil
		},
		listBlocksFn: func(context.Context, string, string, string) ([]store.ContentBlock, error) {
			return []store.ContentBlock{block("hero.title", "hero", "live")}, nil
		},
	}
	svc := newTestService(fs)

	changes, err := svc.DiffAgainstPublished(context.Background(), "ver_live", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("self-diff of the published version must be empty, got %+v", changes)
	}
}

func TestPublishedContentEmptyCatalog(t *testing.T) {
	svc := newTestService(&fakeStore{})

	payload, err := svc.PublishedContent(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response PublicContent
	if err := json.Unmarshal(payload, &response); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if response.Version != nil {
		t.Errorf("expected nil version, got %+v", response.Version)
	}
	if len(response.Sections) != 0 {
		t.Errorf("expected empty sections, got %+v", response.Sections)
	}
}

func TestPublishedContentGroupsAndSortsSections(t *testing.T) {
	publishedAt := time.Now()
	fs := &fakeStore{
		getPublishedFn: func(context.Context) (*store.Version, error) {
			return &store.Version{ID: "ver_live", SequenceNumber: 7, Status: store.StatusPublished, PublishedAt: &publishedAt}, nil
		},
		listBlocksFn: func(context.Context, string, string, string) ([]store.ContentBlock, error) {
			return []store.ContentBlock{
				{BlockKey: "hero.subtitle", SectionKey: "hero", BlockType: store.BlockText, Content: "b", SortOrder: 2},
				{BlockKey: "hero.title", SectionKey: "hero", BlockType: store.BlockText, Content: "a", SortOrder: 1},
				{BlockKey: "pricing.intro", SectionKey: "pricing", BlockType: store.BlockRichText, Content: "c", SortOrder: 1},
			}, nil
		},
	}
	svc := newTestService(fs)

	payload, err := svc.PublishedContent(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response PublicContent
	if err := json.Unmarshal(payload, &response); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if response.Version == nil || response.Version.SequenceNumber != 7 {
		t.Fatalf("expected version metadata, got %+v", response.Version)
	}
	hero := response.Sections["hero"]
	if len(hero) != 2 || hero[0].BlockKey != "hero.title" {
		t.Errorf("expected hero blocks in sort order, got %+v", hero)
	}
	if len(response.Sections["pricing"]) != 1 {
		t.Errorf("expected pricing section, got %+v", response.Sections)
	}
}

func TestSearchWithoutPublishedVersion(t *testing.T) {
	svc := newTestService(&fakeStore{})

	response, err := svc.Search(context.Background(), SearchInput{Text: "pricing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Total != 0 || len(response.Results) != 0 {
		t.Errorf("expected empty result set, got %+v", response)
	}
}
