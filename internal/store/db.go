package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool limits for this service. Public reads are mostly absorbed by the
// content cache, so the pool serves the admin editor, search fallback and
// the scheduler tick. Write transactions hold row locks on versions, which
// keeps useful concurrency low.
const (
	maxOpenConns    = 12
	maxIdleConns    = 4
	connMaxLifetime = time.Hour
	connMaxIdleTime = 10 * time.Minute
)

func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
