package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/YusovID/editorial-workflow/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ilyakaznacheev/cleanenv"
)

type migrationConfig struct {
	Postgres config.Postgres `yaml:"postgres"`
	Path     string          `env:"MIGRATIONS_PATH" env-default:"./migrations"`
	Table    string          `env:"MIGRATIONS_TABLE" env-default:"schema_migrations"`
}

func main() {
	cfg, err := load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Postgres.Username, cfg.Postgres.Password),
		Host:   cfg.Postgres.Host + ":" + cfg.Postgres.Port,
		Path:   cfg.Postgres.Database,
		RawQuery: url.Values{
			"sslmode":            {"disable"},
			"x-migrations-table": {cfg.Table},
		}.Encode(),
	}

	m, err := migrate.New("file://"+cfg.Path, dsn.String())
	if err != nil {
		log.Fatalf("can't create migrator: %v", err)
	}

	var cmd string
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "down":
		if err := down(m); err != nil {
			log.Fatal(err)
		}

		fmt.Println("migrations rolled back successfully")
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatalf("can't read version: %v", err)
		}

		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
	case "", "up":
		if err := up(m); err != nil {
			log.Fatal(err)
		}

		fmt.Println("migrations applied successfully")
	default:
		log.Fatalf("unknown command '%s', expected up, down or version", cmd)
	}
}

// load reads the postgres section of the service config; MIGRATIONS_PATH and
// MIGRATIONS_TABLE come from the environment.
func load() (*migrationConfig, error) {
	var cfg migrationConfig

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("can't read env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("can't read config '%s': %w", configPath, err)
	}

	if cfg.Postgres.Username == "" || cfg.Postgres.Database == "" {
		return nil, errors.New("POSTGRES_USER and POSTGRES_DB must be set")
	}

	return &cfg, nil
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("no new migrations to apply")
			return nil
		}

		return fmt.Errorf("can't apply migrations: %w", err)
	}

	return nil
}

func down(m *migrate.Migrate) error {
	if err := m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return errors.New("no migrations to roll back")
		}

		return fmt.Errorf("can't roll back migrations: %w", err)
	}

	return nil
}
