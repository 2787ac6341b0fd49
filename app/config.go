package app

import (
	"os"
	"strings"

	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/migrations"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	envPrefix     = "LOLSTG_"
	configFileEnv = "LOLSTG_CONFIG"
)

type Config struct {
	Warehouse          string `koanf:"warehouse" validate:"required,oneof=postgres sqlite"`
	DatabaseURL        string `koanf:"database_url" validate:"required_if=Warehouse postgres"`
	SQLitePath         string `koanf:"sqlite_path" validate:"required_if=Warehouse sqlite"`
	AutoMigrate        bool   `koanf:"auto_migrate"`
	HTTPAddr           string `koanf:"http_addr" validate:"required"`
	SourceTag          string `koanf:"source_tag" validate:"required,max=64"`
	ExportDir          string `koanf:"export_dir" validate:"required"`
	InputDir           string `koanf:"input_dir" validate:"omitempty,dir"`
	LogLevel           string `koanf:"log_level" validate:"oneof=debug info warn error"`
	GCSEnabled         bool   `koanf:"gcs_enabled"`
	GCSCredentialsPath string `koanf:"gcs_credentials_path" validate:"omitempty,file"`
	Workers            int    `koanf:"workers" validate:"min=1,max=64"`
}

func DefaultConfig() Config {
	return Config{
		Warehouse:   migrations.SQLite,
		SQLitePath:  "lol_staging.db",
		AutoMigrate: true,
		HTTPAddr:    ":8080",
		SourceTag:   staging.DefaultSourceTag,
		ExportDir:   "exports",
		LogLevel:    "info",
		Workers:     4,
	}
}

// DSN is the connection string of the configured warehouse.
func (c Config) DSN() string {
	if c.Warehouse == migrations.Postgres {
		return c.DatabaseURL
	}
	return c.SQLitePath
}

// LoadConfig layers, from low to high precedence: defaults, the YAML file named by
// LOLSTG_CONFIG, and LOLSTG_* variables. envFile is read first when it exists and never
// overrides variables already set.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "unable to read %s", envFile)
		}
	}

	k := koanf.New(".")
	if path := os.Getenv(configFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "unable to read config file %s", path)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, errors.Wrap(err, "unable to read environment")
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, errors.Wrap(err, "unable to decode config")
	}
	cfg.Warehouse = strings.ToLower(strings.TrimSpace(cfg.Warehouse))

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}
