package services

import (
	"context"
	"io"
	"time"

	"github.com/brendontj/lol-staging/pkg/logger"
	"github.com/brendontj/lol-staging/pkg/metrics"
	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/sources"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/sourcegraph/conc/pool"
)

type Service interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
	Load(ctx context.Context, inputs []string) (int, error)
	Export(ctx context.Context, model staging.Model, w io.Writer) error
}

// RunRequest reads the warehouse raw table when Inputs is empty. A zero Metadata gets a
// fresh run id stamped at the current time.
type RunRequest struct {
	Selection staging.Selection
	Inputs    []string
	Metadata  staging.RunMetadata
	DryRun    bool
}

type ModelResult struct {
	Model    staging.Model `json:"model"`
	Rows     int           `json:"rows"`
	Written  bool          `json:"written"`
	Duration time.Duration `json:"duration_ns"`
}

type RunResult struct {
	RunID    string          `json:"run_id"`
	LoadedAt time.Time       `json:"loaded_at"`
	Source   string          `json:"source"`
	DryRun   bool            `json:"dry_run"`
	Models   []ModelResult   `json:"models"`
	Summary  staging.Summary `json:"summary"`
}

type LolStagingService struct {
	warehouse Warehouse
	loader    *sources.Loader
	metrics   *metrics.Recorder
	log       *logger.Logger
	now       func() time.Time
}

func NewLolStagingService(warehouse Warehouse, loader *sources.Loader, recorder *metrics.Recorder, log *logger.Logger) *LolStagingService {
	if loader == nil {
		loader = sources.NewLoader(nil, 0, log)
	}
	return &LolStagingService{
		warehouse: warehouse,
		loader:    loader,
		metrics:   recorder,
		log:       log,
		now:       time.Now,
	}
}

func (s *LolStagingService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	models, err := req.Selection.Resolve()
	if err != nil {
		return nil, errors.Wrap(err, "[service error] unable to resolve selection")
	}

	meta := req.Metadata
	if uuid.Equal(meta.RunID, uuid.Nil) {
		meta = staging.NewRunMetadata(meta.Source, s.now())
	}
	log := s.log.With("run_id", meta.RunID.String(), "dry_run", req.DryRun)

	matches, err := s.snapshot(ctx, req.Inputs)
	if err != nil {
		s.metrics.RunFinished(metrics.StatusFailure, s.now())
		return nil, err
	}
	s.metrics.RowsRead(len(matches))
	log.Info("snapshot loaded", "matches", len(matches), "models", len(models))

	results := make([]ModelResult, len(models))
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, model := range models {
		i, model := i, model
		p.Go(func(ctx context.Context) error {
			result, err := s.buildModel(ctx, model, matches, meta, req.DryRun)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		s.metrics.RunFinished(metrics.StatusFailure, s.now())
		log.Error("run failed", "error", err)
		return nil, err
	}

	status := metrics.StatusSuccess
	if req.DryRun {
		status = metrics.StatusDryRun
	}
	s.metrics.RunFinished(status, s.now())

	summary := staging.Summarize(matches)
	log.Info("run finished",
		"matches", summary.Matches,
		"by_region", summary.ByRegion,
		"by_queue", summary.ByQueue,
		"by_season", summary.BySeason)

	return &RunResult{
		RunID:    meta.RunID.String(),
		LoadedAt: meta.LoadedAt,
		Source:   meta.Source,
		DryRun:   req.DryRun,
		Models:   results,
		Summary:  summary,
	}, nil
}

func (s *LolStagingService) snapshot(ctx context.Context, inputs []string) ([]staging.RawMatch, error) {
	if len(inputs) > 0 {
		matches, err := s.loader.Load(ctx, inputs)
		if err != nil {
			return nil, errors.Wrap(err, "[service error] unable to read inputs")
		}
		return matches, nil
	}
	matches, err := s.warehouse.LoadRawMatches(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[service error] unable to read raw snapshot")
	}
	return matches, nil
}

func (s *LolStagingService) buildModel(ctx context.Context, model staging.Model, matches []staging.RawMatch, meta staging.RunMetadata, dryRun bool) (ModelResult, error) {
	start := s.now()
	rows := BuildRows(model, matches, meta)
	result := ModelResult{Model: model, Rows: len(rows)}

	if !dryRun {
		n, err := s.warehouse.ReplaceModel(ctx, model, rows)
		if err != nil {
			return result, errors.Wrapf(err, "[service error] unable to write %s", model)
		}
		result.Rows = n
		result.Written = true
		s.metrics.RowsWritten(string(model), n)
	}

	result.Duration = s.now().Sub(start)
	s.metrics.ObserveModel(string(model), result.Duration)
	s.log.Debug("model built", "model", string(model), "rows", result.Rows, "written", result.Written)
	return result, nil
}

// BuildRows runs the model's builder and flattens the records in column order.
func BuildRows(model staging.Model, matches []staging.RawMatch, meta staging.RunMetadata) [][]interface{} {
	var rows [][]interface{}
	switch model {
	case staging.ModelMatches:
		for _, r := range staging.BuildMatchRecords(matches, meta) {
			rows = append(rows, r.Values())
		}
	case staging.ModelParticipants:
		for _, r := range staging.BuildParticipantRecords(matches, meta) {
			rows = append(rows, r.Values())
		}
	case staging.ModelTeams:
		for _, r := range staging.BuildTeamRecords(matches, meta) {
			rows = append(rows, r.Values())
		}
	}
	return rows
}

// Load appends file rows to the raw table. Nothing is deduplicated.
func (s *LolStagingService) Load(ctx context.Context, inputs []string) (int, error) {
	matches, err := s.loader.Load(ctx, inputs)
	if err != nil {
		return 0, errors.Wrap(err, "[service error] unable to read inputs")
	}
	n, err := s.warehouse.InsertRawMatches(ctx, matches)
	if err != nil {
		return 0, errors.Wrap(err, "[service error] unable to load raw matches")
	}
	s.log.Info("raw matches loaded", "rows", n, "inputs", len(inputs))
	return n, nil
}

func (s *LolStagingService) Export(ctx context.Context, model staging.Model, w io.Writer) error {
	if err := s.warehouse.ExportModel(ctx, model, w); err != nil {
		return errors.Wrapf(err, "[service error] unable to export %s", model)
	}
	return nil
}
