package services

import (
	"context"
	"io"

	"github.com/brendontj/lol-staging/pkg/staging"
)

// Warehouse holds the raw snapshot and the staging relations built from it.
type Warehouse interface {
	LoadRawMatches(ctx context.Context) ([]staging.RawMatch, error)
	InsertRawMatches(ctx context.Context, matches []staging.RawMatch) (int, error)
	// ReplaceModel swaps the whole relation for rows in one transaction.
	ReplaceModel(ctx context.Context, model staging.Model, rows [][]interface{}) (int, error)
	ExportModel(ctx context.Context, model staging.Model, w io.Writer) error
	Close()
}

func rawRows(matches []staging.RawMatch) [][]interface{} {
	rows := make([][]interface{}, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, m.Values())
	}
	return rows
}
