package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	TransportSMTP = "smtp"
	TransportLog  = "log"
)

type Config struct {
	Env           string        `yaml:"env" env:"ENV" env-default:"local"`
	Storage       string        `yaml:"storage" env:"STORAGE" env-default:"postgres"`
	Postgres      Postgres      `yaml:"postgres"`
	Server        Server        `yaml:"server"`
	Scheduler     Scheduler     `yaml:"scheduler"`
	Sweep         Sweep         `yaml:"sweep"`
	SMTP          SMTP          `yaml:"smtp"`
	Notifications Notifications `yaml:"notifications"`
}

type Postgres struct {
	Username        string        `env:"POSTGRES_USER"`
	Password        string        `env:"POSTGRES_PASSWORD"`
	Host            string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port            string        `env:"POSTGRES_PORT" env-default:"5432"`
	Database        string        `env:"POSTGRES_DB"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"50"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env-default:"1m"`
}

type Server struct {
	Host    string        `yaml:"host" env-default:"localhost"`
	Port    string        `yaml:"port" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

type Scheduler struct {
	Enabled    bool          `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"true"`
	Interval   time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL" env-default:"15m"`
	RunOnStart bool          `yaml:"run_on_start" env-default:"true"`
}

type Sweep struct {
	// Fanout bounds concurrent dispatch calls within one pass.
	Fanout          int           `yaml:"fanout" env-default:"8"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout" env-default:"10s"`
}

type SMTP struct {
	Host          string        `yaml:"host" env:"SMTP_HOST"`
	Port          int           `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username      string        `env:"SMTP_USER"`
	Password      string        `env:"SMTP_PASS"`
	From          string        `yaml:"from" env:"SMTP_FROM"`
	SkipTLSVerify bool          `yaml:"skip_tls_verify" env:"SMTP_SKIP_TLS_VERIFY"`
	Timeout       time.Duration `yaml:"timeout" env-default:"10s"`
}

type Notifications struct {
	Transport            string `yaml:"transport" env:"NOTIFY_TRANSPORT" env-default:"log"`
	EditorialOfficeEmail string `yaml:"editorial_office_email" env:"EDITORIAL_OFFICE_EMAIL"`
	ResponseBaseURL      string `yaml:"response_base_url" env-default:"http://localhost:8080/invitations/respond"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file does not exist: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage '%s'", c.Storage)
	}

	if c.Storage == StoragePostgres && (c.Postgres.Username == "" || c.Postgres.Database == "") {
		return errors.New("postgres storage requires POSTGRES_USER and POSTGRES_DB")
	}

	switch c.Notifications.Transport {
	case TransportLog:
	case TransportSMTP:
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			return errors.New("smtp transport requires SMTP_HOST and SMTP_FROM")
		}
	default:
		return fmt.Errorf("unknown notification transport '%s'", c.Notifications.Transport)
	}

	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	if c.Sweep.Fanout <= 0 {
		return errors.New("sweep fanout must be positive")
	}

	return nil
}
