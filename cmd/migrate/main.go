// Package main applies the PostgreSQL save-store migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cory-johannsen/rpgworld/internal/config"
)

// ErrInvalidDirection is returned for a -direction other than up or down.
var ErrInvalidDirection = errors.New("direction must be up or down")

type options struct {
	configPath string
	source     string
	direction  string
	steps      int
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "configs/dev.yaml", "path to configuration file")
	fs.StringVar(&opts.source, "source", "file://migrations", "migration source URL")
	fs.StringVar(&opts.direction, "direction", "up", "migration direction: up or down")
	fs.IntVar(&opts.steps, "steps", 0, "number of steps (0 = all)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.direction != "up" && opts.direction != "down" {
		return options{}, fmt.Errorf("%w: got %q", ErrInvalidDirection, opts.direction)
	}
	if opts.steps < 0 {
		return options{}, fmt.Errorf("steps must be >= 0, got %d", opts.steps)
	}
	return opts, nil
}

// loadDatabaseConfig reads only the storage.postgres section so the
// migrator does not depend on the rest of the config being valid.
func loadDatabaseConfig(path string) (config.DatabaseConfig, error) {
	v := config.NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("reading config: %w", err)
	}
	var dbCfg config.DatabaseConfig
	if err := v.UnmarshalKey("storage.postgres", &dbCfg); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("parsing storage.postgres config: %w", err)
	}
	return dbCfg, nil
}

func run(args []string, out io.Writer) error {
	start := time.Now()
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	dbCfg, err := loadDatabaseConfig(opts.configPath)
	if err != nil {
		return err
	}

	m, err := migrate.New(opts.source, dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case opts.steps > 0 && opts.direction == "down":
		err = m.Steps(-opts.steps)
	case opts.steps > 0:
		err = m.Steps(opts.steps)
	case opts.direction == "down":
		err = m.Down()
	default:
		err = m.Up()
	}
	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return fmt.Errorf("migrating %s: %w", opts.direction, err)
	}

	version, dirty, _ := m.Version()
	if noChange {
		fmt.Fprintf(out, "saves schema unchanged at version %d (dirty=%v) in %s\n", version, dirty, time.Since(start))
		return nil
	}
	fmt.Fprintf(out, "saves schema migrated %s to version %d (dirty=%v) in %s\n", opts.direction, version, dirty, time.Since(start))
	return nil
}
