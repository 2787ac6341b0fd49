package services

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/queries"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteStorage is the single-file warehouse used for local runs.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "[storage error] unable to open sqlite warehouse")
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "[storage error] unable to reach sqlite warehouse %s", path)
	}
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) LoadRawMatches(ctx context.Context) ([]staging.RawMatch, error) {
	rows, err := s.db.QueryContext(ctx, queries.RawExtractionQuery(queries.SQLite))
	if err != nil {
		return nil, errors.Wrap(err, "[storage error] unable to get raw matches")
	}
	defer rows.Close()

	var matches []staging.RawMatch
	for rows.Next() {
		var r staging.RawRow
		if err := rows.Scan(r.Targets()...); err != nil {
			return nil, errors.Wrap(err, "[storage error] unable to scan raw match")
		}
		matches = append(matches, r.Match())
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[storage error] unable to read raw matches")
	}
	return matches, nil
}

func (s *SQLiteStorage) InsertRawMatches(ctx context.Context, matches []staging.RawMatch) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "[storage error] unable to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	n, err := insertRows(ctx, tx, queries.SQLite.Raw, staging.RawColumns, rawRows(matches))
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "[storage error] unable to commit raw matches")
	}
	return n, nil
}

func (s *SQLiteStorage) ReplaceModel(ctx context.Context, model staging.Model, rows [][]interface{}) (int, error) {
	table, ok := queries.SQLite.Models[model]
	if !ok {
		return 0, errors.Errorf("[storage error] unknown model %q", model)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "[storage error] unable to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, queries.DeleteModel(queries.SQLite, model)); err != nil {
		return 0, errors.Wrapf(err, "[storage error] unable to clear %s", table)
	}
	n, err := insertRows(ctx, tx, table, queries.Columns(model), rows)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrapf(err, "[storage error] unable to commit %s", table)
	}
	return n, nil
}

func (s *SQLiteStorage) ExportModel(ctx context.Context, model staging.Model, w io.Writer) error {
	return exportModel(ctx, s.db, queries.SQLite, model, w)
}

func (s *SQLiteStorage) Close() {
	_ = s.db.Close()
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]interface{}) (int, error) {
	stmt, err := tx.PrepareContext(ctx, queries.InsertStatement(table, columns))
	if err != nil {
		return 0, errors.Wrapf(err, "[storage error] unable to prepare insert into %s", table)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := make([]interface{}, len(row))
		for j, v := range row {
			args[j] = sqliteValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return i, errors.Wrapf(err, "[storage error] unable to insert row %d into %s", i, table)
		}
	}
	return len(rows), nil
}

// sqliteValue dereferences the nullable record fields and pins times to UTC.
func sqliteValue(v interface{}) interface{} {
	switch x := v.(type) {
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case time.Time:
		return x.UTC()
	default:
		return v
	}
}
