package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a query over content_blocks using plainto_tsquery and
// ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	where := "b.fts @@ " + tsQuery
	if q.VersionID != "" {
		where += fmt.Sprintf(" AND b.version_id = $%d", argN)
		args = append(args, q.VersionID)
		argN++
	}
	if q.SectionKey != "" {
		where += fmt.Sprintf(" AND b.section_key = $%d", argN)
		args = append(args, q.SectionKey)
		argN++
	}
	if q.Language != "" {
		where += fmt.Sprintf(" AND b.language = $%d", argN)
		args = append(args, q.Language)
		argN++
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM content_blocks b WHERE %s", where)

	dataSQL := fmt.Sprintf(`
		SELECT b.id, b.block_key, b.section_key, b.language,
			ts_headline('english', b.content, %s, 'MaxFragments=1,MaxWords=30') AS snippet
		FROM content_blocks b
		WHERE %s
		ORDER BY ts_rank(b.fts, %s) DESC
		LIMIT %d OFFSET %d`,
		tsQuery, where, tsQuery, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.BlockID, &r.BlockKey, &r.SectionKey, &r.Language, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadVersionRecords returns all blocks of a version for reindexing.
func (p *PgFTS) LoadVersionRecords(ctx context.Context, versionID string) ([]BlockRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, version_id, block_key, section_key, block_type, content, language
		FROM content_blocks
		WHERE version_id = $1
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	defer rows.Close()

	records := make([]BlockRecord, 0)
	for rows.Next() {
		var r BlockRecord
		if err := rows.Scan(&r.ID, &r.VersionID, &r.BlockKey, &r.SectionKey, &r.BlockType, &r.Content, &r.Language); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}

	return records, nil
}
