package services

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brendontj/lol-staging/pkg/logger"
	"github.com/brendontj/lol-staging/pkg/metrics"
	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/migrations"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testdata = filepath.Join("..", "sources", "testdata")

func fixedMetadata() staging.RunMetadata {
	return staging.RunMetadata{
		RunID:    uuid.FromStringOrNil("1b4e28ba-2fa1-11d2-883f-0016d3cca427"),
		LoadedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		Source:   staging.DefaultSourceTag,
	}
}

type fakeWarehouse struct {
	mu       sync.Mutex
	raw      []staging.RawMatch
	replaced map[staging.Model][][]interface{}
	failOn   staging.Model
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{replaced: make(map[staging.Model][][]interface{})}
}

func (f *fakeWarehouse) LoadRawMatches(context.Context) ([]staging.RawMatch, error) {
	return f.raw, nil
}

func (f *fakeWarehouse) InsertRawMatches(_ context.Context, matches []staging.RawMatch) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw = append(f.raw, matches...)
	return len(matches), nil
}

func (f *fakeWarehouse) ReplaceModel(_ context.Context, model staging.Model, rows [][]interface{}) (int, error) {
	if model == f.failOn {
		return 0, errors.New("disk full")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced[model] = rows
	return len(rows), nil
}

func (f *fakeWarehouse) ExportModel(_ context.Context, model staging.Model, w io.Writer) error {
	_, err := io.WriteString(w, string(model))
	return err
}

func (f *fakeWarehouse) Close() {}

func TestRun_FromInputs(t *testing.T) {
	w := newFakeWarehouse()
	svc := NewLolStagingService(w, nil, metrics.New(), logger.NewNop())

	result, err := svc.Run(context.Background(), RunRequest{
		Inputs:   []string{testdata},
		Metadata: fixedMetadata(),
	})
	require.NoError(t, err)

	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", result.RunID)
	require.Len(t, result.Models, 3)
	assert.Equal(t, staging.ModelMatches, result.Models[0].Model)
	assert.Equal(t, 5, result.Models[0].Rows)
	assert.Equal(t, 2, result.Models[1].Rows)
	assert.Equal(t, 10, result.Models[2].Rows)
	for _, m := range result.Models {
		assert.True(t, m.Written, m.Model)
	}

	assert.Len(t, w.replaced[staging.ModelTeams], 2*len(w.replaced[staging.ModelMatches]))
	assert.LessOrEqual(t, len(w.replaced[staging.ModelParticipants]), len(w.replaced[staging.ModelMatches]))

	assert.Equal(t, 5, result.Summary.Matches)
	assert.Equal(t, 1, result.Summary.ByRegion["unknown"])
	assert.Equal(t, 4, result.Summary.ByQueue["ranked_solo_fives"])
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	w := newFakeWarehouse()
	svc := NewLolStagingService(w, nil, nil, nil)

	result, err := svc.Run(context.Background(), RunRequest{
		Inputs:    []string{filepath.Join(testdata, "matches_flat.csv")},
		Selection: staging.Selection{Include: []string{"stg_lol_t*"}},
		DryRun:    true,
	})
	require.NoError(t, err)

	require.Len(t, result.Models, 1)
	assert.Equal(t, staging.ModelTeams, result.Models[0].Model)
	assert.Equal(t, 6, result.Models[0].Rows)
	assert.False(t, result.Models[0].Written)
	assert.Empty(t, w.replaced)
	assert.Equal(t, staging.DefaultSourceTag, result.Source)
	assert.NotEqual(t, uuid.Nil.String(), result.RunID)
}

func TestRun_Errors(t *testing.T) {
	w := newFakeWarehouse()
	w.failOn = staging.ModelParticipants
	svc := NewLolStagingService(w, nil, nil, nil)

	_, err := svc.Run(context.Background(), RunRequest{Inputs: []string{testdata}})
	assert.Error(t, err)

	_, err = svc.Run(context.Background(), RunRequest{
		Selection: staging.Selection{Include: []string{"stg_lol_teams"}, Exclude: []string{"stg_lol_*"}},
	})
	assert.Equal(t, staging.ErrEmptySelection, errors.Cause(err))

	_, err = svc.Run(context.Background(), RunRequest{Inputs: []string{filepath.Join(testdata, "nope.csv")}})
	assert.Error(t, err)
}

func TestBuildRows(t *testing.T) {
	meta := fixedMetadata()
	matches := []staging.RawMatch{{MatchID: "A"}, {MatchID: "B"}}

	assert.Len(t, BuildRows(staging.ModelMatches, matches, meta), 2)
	assert.Len(t, BuildRows(staging.ModelTeams, matches, meta), 4)
	assert.Empty(t, BuildRows(staging.ModelParticipants, matches, meta))

	row := BuildRows(staging.ModelTeams, matches, meta)[1]
	assert.Equal(t, "A", row[0])
	assert.Equal(t, 2, row[1])
}

func newSQLiteWarehouse(t *testing.T) *SQLiteStorage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warehouse.db")

	m, err := migrations.New(migrations.SQLite, path)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func exportAll(t *testing.T, svc Service) map[staging.Model]string {
	t.Helper()
	out := make(map[staging.Model]string)
	for _, m := range staging.Models() {
		var buf bytes.Buffer
		require.NoError(t, svc.Export(context.Background(), m, &buf))
		out[m] = buf.String()
	}
	return out
}

func dataLines(csv string) []string {
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	return lines[1:]
}

func TestSQLite_LoadRunExport(t *testing.T) {
	ctx := context.Background()
	w := newSQLiteWarehouse(t)
	svc := NewLolStagingService(w, nil, metrics.New(), logger.NewNop())

	n, err := svc.Load(ctx, []string{testdata})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	raw, err := w.LoadRawMatches(ctx)
	require.NoError(t, err)
	require.Len(t, raw, 5)
	assert.Equal(t, "EUW1_77", raw[0].MatchID)
	assert.Empty(t, raw[0].Participants)
	assert.Nil(t, raw[3].Region, "OC1_12 keeps its null region")
	require.NotNil(t, raw[2].GameCreation)
	assert.True(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).Equal(*raw[2].GameCreation))

	_, err = svc.Run(ctx, RunRequest{Metadata: fixedMetadata()})
	require.NoError(t, err)
	first := exportAll(t, svc)

	matches := dataLines(first[staging.ModelMatches])
	teams := dataLines(first[staging.ModelTeams])
	participants := dataLines(first[staging.ModelParticipants])
	assert.Len(t, matches, 5)
	assert.Len(t, teams, 2*len(matches))
	assert.Len(t, participants, 2)

	assert.True(t, strings.HasPrefix(first[staging.ModelTeams], strings.Join(staging.TeamColumns, ",")+"\n"))
	assert.True(t, strings.HasPrefix(teams[4], "NA1_4901,1,100,NA,1800,"), teams[4])
	assert.Contains(t, teams[4], ",16,0.533,4,28,1b4e28ba-2fa1-11d2-883f-0016d3cca427,2024-01-15T12:00:00Z,lol_ranked_etl")
	assert.True(t, strings.HasPrefix(participants[1], "NA1_4901,1,sum-1,Faker,103,Ahri,100,10,0,5,10000,50000,45,"), participants[1])
	assert.Contains(t, participants[1], ",NA,1800,15,5,1.5,Perfect,")

	_, err = svc.Run(ctx, RunRequest{Metadata: fixedMetadata()})
	require.NoError(t, err)
	assert.Equal(t, first, exportAll(t, svc), "reruns over the same snapshot are byte-identical")
}

func TestSQLite_ExportUnknownModel(t *testing.T) {
	w := newSQLiteWarehouse(t)
	err := w.ExportModel(context.Background(), staging.Model("stg_lol_items"), io.Discard)
	assert.Error(t, err)

	_, err = w.ReplaceModel(context.Background(), staging.Model("stg_lol_items"), nil)
	assert.Error(t, err)
}

func TestSQLite_RepeatedLoadsKeepEveryRow(t *testing.T) {
	ctx := context.Background()
	w := newSQLiteWarehouse(t)
	svc := NewLolStagingService(w, nil, nil, nil)

	for i := 0; i < 2; i++ {
		n, err := svc.Load(ctx, []string{testdata})
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}

	result, err := svc.Run(ctx, RunRequest{Metadata: fixedMetadata()})
	require.NoError(t, err)
	require.Len(t, result.Models, 3)
	assert.Equal(t, 10, result.Models[0].Rows)
	assert.Equal(t, 4, result.Models[1].Rows)
	assert.Equal(t, 20, result.Models[2].Rows)

	exported := exportAll(t, svc)
	assert.Len(t, dataLines(exported[staging.ModelMatches]), 10)
	assert.Len(t, dataLines(exported[staging.ModelTeams]), 20)
}

// nullCountsCSV rewrites the NA1_4901 fixture row with empty deaths and game_duration and a
// non-numeric season.
func nullCountsCSV(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testdata, "matches_flat.csv"))
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	header := strings.Split(lines[0], ",")
	row := strings.Split(lines[1], ",")

	set := func(column, value string) {
		for i, name := range header {
			if name == column {
				row[i] = value
				return
			}
		}
		t.Fatalf("no column %s", column)
	}
	set("participant_1_deaths", "")
	set("game_duration", "")
	set("season", "S14")

	path := filepath.Join(t.TempDir(), "lol_ranked_matches_nulls.csv")
	require.NoError(t, os.WriteFile(path, []byte(lines[0]+"\n"+strings.Join(row, ",")+"\n"), 0o600))
	return path
}

func TestSQLite_NullCountsStayNull(t *testing.T) {
	ctx := context.Background()
	w := newSQLiteWarehouse(t)
	svc := NewLolStagingService(w, nil, nil, nil)

	_, err := svc.Load(ctx, []string{nullCountsCSV(t)})
	require.NoError(t, err)

	result, err := svc.Run(ctx, RunRequest{Metadata: fixedMetadata()})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"unknown": 1}, result.Summary.BySeason)

	var deathsNull, durationNull, kdaNull, tierNull bool
	var kills int
	require.NoError(t, w.db.QueryRowContext(ctx, `SELECT
	deaths IS NULL, game_duration IS NULL, kda IS NULL, performance_tier IS NULL, kills
FROM stg_lol_participants`).Scan(&deathsNull, &durationNull, &kdaNull, &tierNull, &kills))
	assert.True(t, deathsNull)
	assert.True(t, durationNull)
	assert.True(t, kdaNull)
	assert.True(t, tierNull)
	assert.Equal(t, 10, kills)

	var minutesNull, seasonNull, matchKDANull bool
	require.NoError(t, w.db.QueryRowContext(ctx, `SELECT
	game_duration_minutes IS NULL, season IS NULL, participant_1_kda IS NULL
FROM stg_lol_ranked_matches`).Scan(&minutesNull, &seasonNull, &matchKDANull))
	assert.True(t, minutesNull)
	assert.True(t, seasonNull)
	assert.True(t, matchKDANull)

	var total int
	var perMinuteNull bool
	require.NoError(t, w.db.QueryRowContext(ctx, `SELECT
	total_objectives, objectives_per_minute IS NULL
FROM stg_lol_teams WHERE team_id = 1`).Scan(&total, &perMinuteNull))
	assert.Equal(t, 16, total)
	assert.True(t, perMinuteNull)
}
