package app

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/brendontj/lol-staging/pkg/logger"
	"github.com/brendontj/lol-staging/pkg/metrics"
	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/migrations"
	"github.com/brendontj/lol-staging/pkg/staging/services"
	"github.com/brendontj/lol-staging/pkg/staging/sources"
	"github.com/pkg/errors"
)

type DataWorker interface {
	Start(ctx context.Context) error
	TransformData(ctx context.Context, req services.RunRequest) (*services.RunResult, error)
	// ExtractData writes <dir>/<model>.csv for every selected model.
	ExtractData(ctx context.Context, selection staging.Selection, dir string) ([]string, error)
	LoadData(ctx context.Context, inputs []string) (int, error)
	ExportModel(ctx context.Context, model staging.Model, w io.Writer) error
	Close()
}

type dataWorker struct {
	cfg       Config
	log       *logger.Logger
	metrics   *metrics.Recorder
	warehouse services.Warehouse
	store     *sources.GCSStore

	LolStagingService services.Service
}

func NewDataWorker(cfg Config, log *logger.Logger, recorder *metrics.Recorder) DataWorker {
	return &dataWorker{cfg: cfg, log: log, metrics: recorder}
}

func (d *dataWorker) Start(ctx context.Context) error {
	if d.cfg.AutoMigrate {
		if err := Migrate(d.cfg, func(m *migrations.Migrator) error { return m.Up() }); err != nil {
			return err
		}
	}

	warehouse, err := openWarehouse(ctx, d.cfg)
	if err != nil {
		return errors.Wrap(err, "error initializating the application")
	}
	d.warehouse = warehouse

	var store sources.ObjectStore
	if d.cfg.GCSEnabled || d.cfg.GCSCredentialsPath != "" {
		gcs, err := sources.NewGCSStore(ctx, d.cfg.GCSCredentialsPath)
		if err != nil {
			d.warehouse.Close()
			return errors.Wrap(err, "error initializating the application")
		}
		d.store = gcs
		store = gcs
	}

	loader := sources.NewLoader(store, d.cfg.Workers, d.log)
	d.LolStagingService = services.NewLolStagingService(warehouse, loader, d.metrics, d.log)
	d.log.Info("data worker started", "warehouse", d.cfg.Warehouse, "gcs", d.store != nil)
	return nil
}

func openWarehouse(ctx context.Context, cfg Config) (services.Warehouse, error) {
	switch cfg.Warehouse {
	case migrations.Postgres:
		return services.NewPostgresStorage(ctx, cfg.DatabaseURL)
	case migrations.SQLite:
		return services.NewSQLiteStorage(cfg.SQLitePath)
	default:
		return nil, errors.Errorf("unknown warehouse %q", cfg.Warehouse)
	}
}

// Migrate opens a migrator for the configured warehouse, runs fn and closes it.
func Migrate(cfg Config, fn func(m *migrations.Migrator) error) error {
	m, err := migrations.New(cfg.Warehouse, cfg.DSN())
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}

func (d *dataWorker) TransformData(ctx context.Context, req services.RunRequest) (*services.RunResult, error) {
	if req.Metadata.Source == "" {
		req.Metadata.Source = d.cfg.SourceTag
	}
	return d.LolStagingService.Run(ctx, req)
}

func (d *dataWorker) ExtractData(ctx context.Context, selection staging.Selection, dir string) ([]string, error) {
	models, err := selection.Resolve()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = d.cfg.ExportDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create export directory %s", dir)
	}

	var paths []string
	for _, m := range models {
		path := filepath.Join(dir, string(m)+".csv")
		if err := d.extractModel(ctx, m, path); err != nil {
			return paths, err
		}
		d.log.Info("model exported", "model", string(m), "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func (d *dataWorker) extractModel(ctx context.Context, m staging.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	if err := d.LolStagingService.Export(ctx, m, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (d *dataWorker) LoadData(ctx context.Context, inputs []string) (int, error) {
	return d.LolStagingService.Load(ctx, inputs)
}

func (d *dataWorker) ExportModel(ctx context.Context, model staging.Model, w io.Writer) error {
	return d.LolStagingService.Export(ctx, model, w)
}

func (d *dataWorker) Close() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.log.Warn("unable to close storage client", "error", err)
		}
	}
	if d.warehouse != nil {
		d.warehouse.Close()
	}
	_ = d.log.Sync()
}
