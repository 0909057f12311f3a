package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"

	"idealista-watcher/utils"
)

// OpenPostgres opens a connection to PostgreSQL, waits for it to accept
// pings, runs schema migrations and returns a ready-to-use store.
func OpenPostgres(ctx context.Context, dsn string, retry *utils.RetryConfig) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	st := newSQLStore(db, "postgres", func(n int) string { return "$" + strconv.Itoa(n) })
	if err := st.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}
