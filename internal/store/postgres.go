package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"plancraft/api/internal/util"
)

// Sentinel errors for invariant violations. Lookups that find nothing
// return sql.ErrNoRows, matching the rest of the codebase.
var (
	ErrDraftExists  = errors.New("a draft version already exists")
	ErrInvalidState = errors.New("operation not permitted for version status")
	ErrDuplicateKey = errors.New("block key already exists for this version and language")
)

// errSequenceConflict signals that a concurrent insert claimed the computed
// sequence number. CreateDraft retries it with a fresh transaction.
var errSequenceConflict = errors.New("sequence number claimed by a concurrent insert")

// BulkError reports the first failing item of an all-or-nothing batch.
type BulkError struct {
	BlockID string
	Reason  string
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk update failed on block %s: %s", e.BlockID, e.Reason)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const versionColumns = `id, sequence_number, status, notes, created_by, created_at, published_by, published_at, scheduled_publish_at`

func scanVersion(row interface{ Scan(...any) error }) (Version, error) {
	var v Version
	err := row.Scan(&v.ID, &v.SequenceNumber, &v.Status, &v.Notes, &v.CreatedBy, &v.CreatedAt, &v.PublishedBy, &v.PublishedAt, &v.ScheduledPublishAt)
	return v, err
}

// CreateDraft creates the next draft version and clones the published block
// set into it. The single-draft invariant is enforced twice: by the row
// lock taken here and by the versions_single_draft index underneath. A
// sequence number lost to a concurrent insert is retried with a fresh
// transaction; the MAX+1 read is repeated each attempt.
func (s *PostgresStore) CreateDraft(ctx context.Context, notes, createdBy string) (Version, error) {
	var version Version
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		version, err = s.createDraftTx(ctx, notes, createdBy)
		if !errors.Is(err, errSequenceConflict) {
			return version, err
		}
	}
	return Version{}, fmt.Errorf("create draft: %w", err)
}

func (s *PostgresStore) createDraftTx(ctx context.Context, notes, createdBy string) (Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Version{}, fmt.Errorf("begin create draft: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM versions WHERE status=$1 FOR UPDATE`, StatusDraft).Scan(&existing)
	if err == nil {
		return Version{}, ErrDraftExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("check active draft: %w", err)
	}

	var nextSeq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM versions`).Scan(&nextSeq); err != nil {
		return Version{}, fmt.Errorf("next sequence number: %w", err)
	}

	id := util.NewID(util.PrefixVersion)
	row := tx.QueryRowContext(ctx, `
		INSERT INTO versions (id, sequence_number, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+versionColumns,
		id, nextSeq, StatusDraft, notes, createdBy)
	version, err := scanVersion(row)
	if err != nil {
		return Version{}, mapDraftInsertError(err)
	}

	var publishedID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM versions WHERE status=$1`, StatusPublished).Scan(&publishedID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("find published version: %w", err)
	}
	if err == nil {
		if _, err := cloneBlocksTx(ctx, tx, publishedID, id); err != nil {
			return Version{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit create draft: %w", err)
	}
	return version, nil
}

// GetActiveDraft returns the current draft, or nil when none exists.
func (s *PostgresStore) GetActiveDraft(ctx context.Context) (*Version, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM versions WHERE status=$1`, StatusDraft)
	version, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active draft: %w", err)
	}
	return &version, nil
}

// GetPublished returns the current published version, or nil when nothing
// has ever been published.
func (s *PostgresStore) GetPublished(ctx context.Context) (*Version, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM versions WHERE status=$1`, StatusPublished)
	version, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get published version: %w", err)
	}
	return &version, nil
}

func (s *PostgresStore) GetVersion(ctx context.Context, versionID string) (Version, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM versions WHERE id=$1`, versionID)
	return scanVersion(row)
}

func (s *PostgresStore) ListVersions(ctx context.Context, limit int) ([]Version, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM versions
		ORDER BY sequence_number DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	items := make([]Version, 0)
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		items = append(items, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return items, nil
}

// UpdateVersionNotes mutates only notes. Archived versions are frozen.
func (s *PostgresStore) UpdateVersionNotes(ctx context.Context, versionID, notes string) (Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Version{}, fmt.Errorf("begin update notes: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, versionID)
	if err != nil {
		return Version{}, err
	}
	if status == StatusArchived {
		return Version{}, ErrInvalidState
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE versions SET notes=$2 WHERE id=$1
		RETURNING `+versionColumns, versionID, notes)
	version, err := scanVersion(row)
	if err != nil {
		return Version{}, fmt.Errorf("update version notes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit update notes: %w", err)
	}
	return version, nil
}

// DeleteVersion discards a draft and its blocks. Published and archived
// versions are immutable history and cannot be deleted.
func (s *PostgresStore) DeleteVersion(ctx context.Context, versionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete version: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, versionID)
	if err != nil {
		return err
	}
	if status != StatusDraft {
		return ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM versions WHERE id=$1`, versionID); err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete version: %w", err)
	}
	return nil
}

// ScheduleVersion sets the automatic publication time on a draft.
func (s *PostgresStore) ScheduleVersion(ctx context.Context, versionID string, publishAt time.Time) error {
	return s.setSchedule(ctx, versionID, &publishAt)
}

// ClearSchedule removes a pending automatic publication.
func (s *PostgresStore) ClearSchedule(ctx context.Context, versionID string) error {
	return s.setSchedule(ctx, versionID, nil)
}

func (s *PostgresStore) setSchedule(ctx context.Context, versionID string, publishAt *time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, versionID)
	if err != nil {
		return err
	}
	if status != StatusDraft {
		return ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `UPDATE versions SET scheduled_publish_at=$2 WHERE id=$1`, versionID, publishAt); err != nil {
		return fmt.Errorf("set schedule: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule: %w", err)
	}
	return nil
}

// PublishVersion archives the current published version and promotes the
// target, as one transaction. The row lock plus status re-check is the
// re-entrancy guard for concurrent publishes and overlapping scheduler
// sweeps: the loser sees a non-draft status and gets ErrInvalidState.
func (s *PostgresStore) PublishVersion(ctx context.Context, versionID, publishedBy string) (Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Version{}, fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, versionID)
	if err != nil {
		return Version{}, err
	}
	if status != StatusDraft {
		return Version{}, ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `UPDATE versions SET status=$1 WHERE status=$2`, StatusArchived, StatusPublished); err != nil {
		return Version{}, fmt.Errorf("archive published version: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE versions
		SET status=$2, published_by=$3, published_at=NOW(), scheduled_publish_at=NULL
		WHERE id=$1
		RETURNING `+versionColumns,
		versionID, StatusPublished, publishedBy)
	version, err := scanVersion(row)
	if err != nil {
		return Version{}, fmt.Errorf("promote version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit publish: %w", err)
	}
	return version, nil
}

// ListDueScheduled returns drafts whose scheduled publication time has
// passed.
func (s *PostgresStore) ListDueScheduled(ctx context.Context, now time.Time) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM versions
		WHERE status=$1 AND scheduled_publish_at IS NOT NULL AND scheduled_publish_at <= $2
		ORDER BY scheduled_publish_at
	`, StatusDraft, now)
	if err != nil {
		return nil, fmt.Errorf("list due scheduled: %w", err)
	}
	defer rows.Close()

	items := make([]Version, 0)
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due version: %w", err)
		}
		items = append(items, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due versions: %w", err)
	}
	return items, nil
}

const blockColumns = `id, version_id, block_key, section_key, block_type, content, language, sort_order, metadata, created_at, updated_at`

func scanBlock(row interface{ Scan(...any) error }) (ContentBlock, error) {
	var b ContentBlock
	err := row.Scan(&b.ID, &b.VersionID, &b.BlockKey, &b.SectionKey, &b.BlockType, &b.Content, &b.Language, &b.SortOrder, &b.Metadata, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// ListBlocks returns a version's blocks, optionally filtered by section and
// language, in display order.
func (s *PostgresStore) ListBlocks(ctx context.Context, versionID, sectionKey, language string) ([]ContentBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM content_blocks WHERE version_id=$1`
	args := []any{versionID}
	if sectionKey != "" {
		args = append(args, sectionKey)
		query += fmt.Sprintf(" AND section_key=$%d", len(args))
	}
	if language != "" {
		args = append(args, language)
		query += fmt.Sprintf(" AND language=$%d", len(args))
	}
	query += ` ORDER BY section_key, sort_order, block_key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	items := make([]ContentBlock, 0)
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		items = append(items, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetBlock(ctx context.Context, versionID, blockID string) (ContentBlock, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM content_blocks WHERE version_id=$1 AND id=$2`, versionID, blockID)
	return scanBlock(row)
}

// CreateBlock inserts a new block into a draft version.
func (s *PostgresStore) CreateBlock(ctx context.Context, block ContentBlock) (ContentBlock, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ContentBlock{}, fmt.Errorf("begin create block: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, block.VersionID)
	if err != nil {
		return ContentBlock{}, err
	}
	if status != StatusDraft {
		return ContentBlock{}, ErrInvalidState
	}

	if block.ID == "" {
		block.ID = util.NewID(util.PrefixBlock)
	}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO content_blocks (id, version_id, block_key, section_key, block_type, content, language, sort_order, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+blockColumns,
		block.ID, block.VersionID, block.BlockKey, block.SectionKey, block.BlockType,
		block.Content, block.Language, block.SortOrder, block.Metadata)
	created, err := scanBlock(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ContentBlock{}, ErrDuplicateKey
		}
		return ContentBlock{}, fmt.Errorf("insert block: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ContentBlock{}, fmt.Errorf("commit create block: %w", err)
	}
	return created, nil
}

// UpdateBlock rewrites a block's content (and optionally sort order and
// metadata) inside a draft version.
func (s *PostgresStore) UpdateBlock(ctx context.Context, versionID, blockID, content string, sortOrder *int, metadata *string) (ContentBlock, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ContentBlock{}, fmt.Errorf("begin update block: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, versionID)
	if err != nil {
		return ContentBlock{}, err
	}
	if status != StatusDraft {
		return ContentBlock{}, ErrInvalidState
	}

	updated, err := updateBlockTx(ctx, tx, versionID, blockID, content, sortOrder, metadata)
	if err != nil {
		return ContentBlock{}, err
	}

	if err := tx.Commit(); err != nil {
		return ContentBlock{}, fmt.Errorf("commit update block: %w", err)
	}
	return updated, nil
}

func updateBlockTx(ctx context.Context, tx *sql.Tx, versionID, blockID, content string, sortOrder *int, metadata *string) (ContentBlock, error) {
	row := tx.QueryRowContext(ctx, `
		UPDATE content_blocks
		SET content=$3,
		    sort_order=COALESCE($4, sort_order),
		    metadata=COALESCE($5, metadata),
		    updated_at=NOW()
		WHERE version_id=$1 AND id=$2
		RETURNING `+blockColumns,
		versionID, blockID, content, sortOrder, metadata)
	updated, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ContentBlock{}, sql.ErrNoRows
	}
	if err != nil {
		return ContentBlock{}, fmt.Errorf("update block %s: %w", blockID, err)
	}
	return updated, nil
}

// BulkUpdateBlocks applies the editor's accumulated edits in one
// transaction. Any unknown block id or a non-draft version aborts the
// whole batch.
func (s *PostgresStore) BulkUpdateBlocks(ctx context.Context, versionID string, items []BlockUpdate) ([]ContentBlock, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk update: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, versionID)
	if err != nil {
		return nil, err
	}
	if status != StatusDraft {
		return nil, ErrInvalidState
	}

	updated := make([]ContentBlock, 0, len(items))
	for _, item := range items {
		block, err := updateBlockTx(ctx, tx, versionID, item.ID, item.Content, item.SortOrder, item.Metadata)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &BulkError{BlockID: item.ID, Reason: "block not found in version"}
		}
		if err != nil {
			return nil, err
		}
		updated = append(updated, block)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk update: %w", err)
	}
	return updated, nil
}

// ReorderBlocks updates only sort order, all-or-nothing like BulkUpdateBlocks.
func (s *PostgresStore) ReorderBlocks(ctx context.Context, versionID string, items []BlockOrder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, versionID)
	if err != nil {
		return err
	}
	if status != StatusDraft {
		return ErrInvalidState
	}

	for _, item := range items {
		result, err := tx.ExecContext(ctx, `
			UPDATE content_blocks SET sort_order=$3, updated_at=NOW()
			WHERE version_id=$1 AND id=$2
		`, versionID, item.BlockID, item.SortOrder)
		if err != nil {
			return fmt.Errorf("reorder block %s: %w", item.BlockID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("reorder block %s: %w", item.BlockID, err)
		}
		if affected == 0 {
			return &BulkError{BlockID: item.BlockID, Reason: "block not found in version"}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// DeleteBlock removes one block from a draft version.
func (s *PostgresStore) DeleteBlock(ctx context.Context, versionID, blockID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete block: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, versionID)
	if err != nil {
		return err
	}
	if status != StatusDraft {
		return ErrInvalidState
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM content_blocks WHERE version_id=$1 AND id=$2`, versionID, blockID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete block: %w", err)
	}
	return nil
}

// ClonePublishedInto resets a draft to the live block set: the target's
// blocks are removed and the published version's blocks are copied in with
// fresh ids, all in one transaction. With no published version the draft
// simply ends up empty.
func (s *PostgresStore) ClonePublishedInto(ctx context.Context, targetVersionID string) ([]ContentBlock, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin clone: %w", err)
	}
	defer tx.Rollback()

	status, err := lockVersion(ctx, tx, targetVersionID)
	if err != nil {
		return nil, err
	}
	if status != StatusDraft {
		return nil, ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_blocks WHERE version_id=$1`, targetVersionID); err != nil {
		return nil, fmt.Errorf("clear target blocks: %w", err)
	}

	var publishedID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM versions WHERE status=$1`, StatusPublished).Scan(&publishedID)
	if errors.Is(err, sql.ErrNoRows) {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit clone: %w", err)
		}
		return []ContentBlock{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find published version: %w", err)
	}

	cloned, err := cloneBlocksTx(ctx, tx, publishedID, targetVersionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit clone: %w", err)
	}
	return cloned, nil
}

func cloneBlocksTx(ctx context.Context, tx *sql.Tx, fromVersionID, toVersionID string) ([]ContentBlock, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+blockColumns+`
		FROM content_blocks
		WHERE version_id=$1
		ORDER BY section_key, sort_order, block_key
	`, fromVersionID)
	if err != nil {
		return nil, fmt.Errorf("read source blocks: %w", err)
	}
	defer rows.Close()

	var source []ContentBlock
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source block: %w", err)
		}
		source = append(source, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source blocks: %w", err)
	}

	cloned := make([]ContentBlock, 0, len(source))
	for _, block := range source {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO content_blocks (id, version_id, block_key, section_key, block_type, content, language, sort_order, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+blockColumns,
			util.NewID(util.PrefixBlock), toVersionID, block.BlockKey, block.SectionKey,
			block.BlockType, block.Content, block.Language, block.SortOrder, block.Metadata)
		inserted, err := scanBlock(row)
		if err != nil {
			return nil, fmt.Errorf("clone block %s: %w", block.BlockKey, err)
		}
		cloned = append(cloned, inserted)
	}
	return cloned, nil
}

// lockVersion takes a row lock on a version and returns its status, so the
// caller's status check and mutation form one isolated unit. Missing
// versions surface as sql.ErrNoRows.
func lockVersion(ctx context.Context, tx *sql.Tx, versionID string) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM versions WHERE id=$1 FOR UPDATE`, versionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sql.ErrNoRows
	}
	if err != nil {
		return "", fmt.Errorf("lock version %s: %w", versionID, err)
	}
	return status, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// uniqueConstraint reports which unique constraint a 23505 error violated.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// mapDraftInsertError tells the two unique violations a draft insert can hit
// apart. Only the single-draft index means a draft already exists; losing
// the sequence number race is transient and retried by the caller.
func mapDraftInsertError(err error) error {
	if constraint, ok := uniqueConstraint(err); ok {
		if constraint == "versions_single_draft" {
			return ErrDraftExists
		}
		return errSequenceConflict
	}
	return fmt.Errorf("insert draft version: %w", err)
}
