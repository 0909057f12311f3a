package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"idealista-watcher/models"
	"idealista-watcher/utils"
)

// SQLStore keeps both the seen set and the error status in a SQL database.
// It satisfies SeenStore and ErrorStateStore.
type SQLStore struct {
	db   *sql.DB
	name string
	// bind renders the n-th (1-based) placeholder for the driver.
	bind func(n int) string
}

func newSQLStore(db *sql.DB, name string, bind func(int) string) *SQLStore {
	return &SQLStore{db: db, name: name, bind: bind}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS seen_listings (
			link TEXT PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS error_status (
			id          INTEGER PRIMARY KEY,
			status_code INTEGER NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("%s: migrate: %w", s.name, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (*utils.URLSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT link FROM seen_listings`)
	if err != nil {
		return utils.NewURLSet(), fmt.Errorf("%s: load seen: %w", s.name, err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return utils.NewURLSet(), fmt.Errorf("%s: scan seen: %w", s.name, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return utils.NewURLSet(), fmt.Errorf("%s: load seen: %w", s.name, err)
	}
	return utils.NewURLSetFrom(links), nil
}

// Persist replaces the table contents with set inside one transaction.
func (s *SQLStore) Persist(ctx context.Context, set *utils.URLSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.name, err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seen_listings`); err != nil {
		return fmt.Errorf("%s: clear seen: %w", s.name, err)
	}

	links := set.Links()
	const batchSize = 50
	for i := 0; i < len(links); i += batchSize {
		end := i + batchSize
		if end > len(links) {
			end = len(links)
		}
		if err := s.insertBatch(ctx, tx, links[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.name, err)
	}
	committed = true
	return nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sql.Tx, batch []string) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch))

	for idx, link := range batch {
		valueStrings = append(valueStrings, "("+s.bind(idx+1)+")")
		valueArgs = append(valueArgs, link)
	}

	query := fmt.Sprintf(`INSERT INTO seen_listings (link) VALUES %s`, strings.Join(valueStrings, ","))
	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("%s: insert seen batch: %w", s.name, err)
	}
	return nil
}

// LoadStatus reads the error status row. It backs the ErrorStateStore view.
func (s *SQLStore) LoadStatus(ctx context.Context) (models.ErrorStatus, error) {
	var code sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT status_code FROM error_status WHERE id = 1`).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrorStatus{}, nil
	}
	if err != nil {
		return models.ErrorStatus{}, fmt.Errorf("%s: load error status: %w", s.name, err)
	}
	if !code.Valid {
		return models.ErrorStatus{}, nil
	}
	c := int(code.Int64)
	return models.ErrorStatus{Code: &c}, nil
}

func (s *SQLStore) RecordError(ctx context.Context, code int) error {
	return s.writeStatus(ctx, sql.NullInt64{Int64: int64(code), Valid: true})
}

func (s *SQLStore) Clear(ctx context.Context) error {
	return s.writeStatus(ctx, sql.NullInt64{})
}

func (s *SQLStore) writeStatus(ctx context.Context, code sql.NullInt64) error {
	query := fmt.Sprintf(`
		INSERT INTO error_status (id, status_code) VALUES (1, %s)
		ON CONFLICT (id) DO UPDATE SET status_code = excluded.status_code
	`, s.bind(1))
	if _, err := s.db.ExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("%s: write error status: %w", s.name, err)
	}
	return nil
}

// ErrorState exposes the store through the ErrorStateStore interface.
// Load on SQLStore itself returns the seen set.
func (s *SQLStore) ErrorState() ErrorStateStore {
	return sqlErrorState{s}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlErrorState struct {
	s *SQLStore
}

func (e sqlErrorState) Load(ctx context.Context) (models.ErrorStatus, error) {
	return e.s.LoadStatus(ctx)
}

func (e sqlErrorState) RecordError(ctx context.Context, code int) error {
	return e.s.RecordError(ctx, code)
}

func (e sqlErrorState) Clear(ctx context.Context) error {
	return e.s.Clear(ctx)
}
