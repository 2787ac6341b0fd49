package services

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/queries"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/joho/sqltocsv"
	"github.com/pkg/errors"
)

type PostgresStorage struct {
	pool *pgxpool.Pool
	// db serves exports, sqltocsv only reads database/sql rows.
	db *sql.DB
}

func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.Connect(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[storage error] unable to connect to database")
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[storage error] unable to open export connection")
	}
	return &PostgresStorage{pool: pool, db: db}, nil
}

func (s *PostgresStorage) LoadRawMatches(ctx context.Context) ([]staging.RawMatch, error) {
	rows, err := s.pool.Query(ctx, queries.RawExtractionQuery(queries.Postgres))
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

func (s *PostgresStorage) InsertRawMatches(ctx context.Context, matches []staging.RawMatch) (int, error) {
	n, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier(queries.Identifier(queries.Postgres.Raw)),
		staging.RawColumns,
		pgx.CopyFromRows(rawRows(matches)))
	if err != nil {
		return 0, errors.Wrap(err, "[storage error] unable to insert raw matches")
	}
	return int(n), nil
}

func (s *PostgresStorage) ReplaceModel(ctx context.Context, model staging.Model, rows [][]interface{}) (int, error) {
	table, ok := queries.Postgres.Models[model]
	if !ok {
		return 0, errors.Errorf("[storage error] unknown model %q", model)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "[storage error] unable to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, queries.DeleteModel(queries.Postgres, model)); err != nil {
		return 0, errors.Wrapf(err, "[storage error] unable to clear %s", table)
	}
	n, err := tx.CopyFrom(
		ctx,
		pgx.Identifier(queries.Identifier(table)),
		queries.Columns(model),
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, errors.Wrapf(err, "[storage error] unable to copy rows into %s", table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrapf(err, "[storage error] unable to commit %s", table)
	}
	return int(n), nil
}

func (s *PostgresStorage) ExportModel(ctx context.Context, model staging.Model, w io.Writer) error {
	return exportModel(ctx, s.db, queries.Postgres, model, w)
}

func (s *PostgresStorage) Close() {
	_ = s.db.Close()
	s.pool.Close()
}

func exportModel(ctx context.Context, db *sql.DB, tables queries.Tables, model staging.Model, w io.Writer) error {
	if _, ok := tables.Models[model]; !ok {
		return errors.Errorf("[storage error] unknown model %q", model)
	}
	rows, err := db.QueryContext(ctx, queries.ModelQuery(tables, model))
	if err != nil {
		return errors.Wrapf(err, "[storage error] unable to query %s", model)
	}
	defer rows.Close()

	converter := sqltocsv.New(rows)
	converter.TimeFormat = time.RFC3339Nano
	if err := converter.Write(w); err != nil {
		return errors.Wrapf(err, "[storage error] unable to export %s", model)
	}
	return nil
}
