package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brendontj/lol-staging/pkg/logger"
	"github.com/brendontj/lol-staging/pkg/metrics"
	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/services"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorker struct {
	lastRequest services.RunRequest
	runErr      error
	exportErr   error
}

func (f *fakeWorker) Start(context.Context) error { return nil }

func (f *fakeWorker) TransformData(_ context.Context, req services.RunRequest) (*services.RunResult, error) {
	f.lastRequest = req
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &services.RunResult{
		RunID:  "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		DryRun: req.DryRun,
		Models: []services.ModelResult{{Model: staging.ModelTeams, Rows: 4}},
	}, nil
}

func (f *fakeWorker) ExtractData(context.Context, staging.Selection, string) ([]string, error) {
	return nil, nil
}

func (f *fakeWorker) LoadData(context.Context, []string) (int, error) { return 0, nil }

func (f *fakeWorker) ExportModel(_ context.Context, model staging.Model, w io.Writer) error {
	if f.exportErr != nil {
		return f.exportErr
	}
	_, err := io.WriteString(w, "match_id,team_id\nNA1_1,1\n")
	return err
}

func (f *fakeWorker) Close() {}

func serve(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Ping(t *testing.T) {
	s := NewServer(&fakeWorker{}, metrics.New(), logger.NewNop())
	rec := serve(t, s, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_TransformData(t *testing.T) {
	worker := &fakeWorker{}
	s := NewServer(worker, metrics.New(), logger.NewNop())

	rec := serve(t, s, http.MethodPost, "/transform_data?select=stg_lol_teams,stg_lol_ranked_matches&exclude=stg_lol_ranked_matches&dry_run=true&input=gs://lol-exports/csv/")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result services.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, staging.ModelTeams, result.Models[0].Model)

	assert.Equal(t, []string{"stg_lol_teams", "stg_lol_ranked_matches"}, worker.lastRequest.Selection.Include)
	assert.Equal(t, []string{"stg_lol_ranked_matches"}, worker.lastRequest.Selection.Exclude)
	assert.Equal(t, []string{"gs://lol-exports/csv/"}, worker.lastRequest.Inputs)
	assert.True(t, worker.lastRequest.DryRun)
}

func TestServer_TransformDataErrors(t *testing.T) {
	worker := &fakeWorker{}
	s := NewServer(worker, metrics.New(), logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, serve(t, s, http.MethodPost, "/transform_data?select=stg_lol_items").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, s, http.MethodPost, "/transform_data?exclude=stg_lol_*").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, s, http.MethodPost, "/transform_data?dry_run=maybe").Code)

	worker.runErr = errors.New("[service error] unable to read raw snapshot")
	rec := serve(t, s, http.MethodPost, "/transform_data")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "raw snapshot")
}

func TestServer_TransformDataLocalInputs(t *testing.T) {
	worker := &fakeWorker{}
	s := NewServer(worker, metrics.New(), logger.NewNop())

	rec := serve(t, s, http.MethodPost, "/transform_data?input=/etc/passwd.csv")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "local paths are refused without input_dir")
	assert.Contains(t, rec.Body.String(), "outside the allowed directory")
	assert.Nil(t, worker.lastRequest.Inputs)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lol_ranked_matches_1.csv"), []byte("match_id\n"), 0o600))
	s = NewServer(worker, metrics.New(), logger.NewNop()).WithInputDir(root)

	for _, input := range []string{"/etc/passwd.csv", "../secrets.csv", "exports/../../secrets.csv", filepath.Dir(root)} {
		rec = serve(t, s, http.MethodPost, "/transform_data?input="+url.QueryEscape(input))
		assert.Equal(t, http.StatusBadRequest, rec.Code, input)
	}
	assert.Nil(t, worker.lastRequest.Inputs, "refused inputs never reach the worker")

	rec = serve(t, s, http.MethodPost, "/transform_data?input=lol_ranked_matches_1.csv&input=gs://lol-exports/csv/")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, worker.lastRequest.Inputs, 2)
	assert.Equal(t, "lol_ranked_matches_1.csv", filepath.Base(worker.lastRequest.Inputs[0]))
	assert.True(t, filepath.IsAbs(worker.lastRequest.Inputs[0]))
	assert.Equal(t, "gs://lol-exports/csv/", worker.lastRequest.Inputs[1])
}

func TestServer_Models(t *testing.T) {
	s := NewServer(&fakeWorker{}, metrics.New(), logger.NewNop())
	rec := serve(t, s, http.MethodGet, "/models")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Models []string `json:"models"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"stg_lol_ranked_matches", "stg_lol_participants", "stg_lol_teams"}, body.Models)
}

func TestServer_Export(t *testing.T) {
	worker := &fakeWorker{}
	s := NewServer(worker, metrics.New(), logger.NewNop())

	rec := serve(t, s, http.MethodGet, "/export/stg_lol_teams")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, "match_id,team_id\nNA1_1,1\n", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/export/stg_lol_items").Code)

	worker.exportErr = errors.New("[storage error] unable to query stg_lol_teams")
	rec = serve(t, s, http.MethodGet, "/export/stg_lol_teams")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
}

func TestServer_Metrics(t *testing.T) {
	recorder := metrics.New()
	recorder.RowsRead(7)
	s := NewServer(&fakeWorker{}, recorder, logger.NewNop())

	rec := serve(t, s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lol_staging_raw_rows_read_total 7")
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := NewServer(&fakeWorker{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx, "127.0.0.1:0"))
}
