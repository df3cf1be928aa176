// Package config provides Viper-based configuration loading for the
// simulation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend names.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds simulation settings.
type GameConfig struct {
	// ContentDir is the root of the YAML content tree.
	ContentDir string `mapstructure:"content_dir"`
	// TickRate is the fixed timestep of the game loop.
	TickRate time.Duration `mapstructure:"tick_rate"`
	// HourLength is the game time that makes up one in-game hour.
	HourLength time.Duration `mapstructure:"hour_length"`
	// StartHour is the in-game hour at game time zero.
	StartHour int `mapstructure:"start_hour"`
	// ClampedAttributes are kept within [0, max_<attr>].
	ClampedAttributes []string `mapstructure:"clamped_attributes"`
	// MaxBattleTurns bounds a battle; 0 means unbounded.
	MaxBattleTurns int `mapstructure:"max_battle_turns"`
	// TurnLength is the game time that passes on each battle turn.
	TurnLength time.Duration `mapstructure:"turn_length"`
	// InitiativeAttribute is added to the 1d20 initiative roll.
	InitiativeAttribute string `mapstructure:"initiative_attribute"`
	// SaveSlot names the save restored at startup and written on shutdown.
	// Empty disables persistence.
	SaveSlot string `mapstructure:"save_slot"`
	// AutosaveInterval is the game time between autosaves to SaveSlot; 0 disables.
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// FileConfig holds settings for the YAML file store.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// SQLiteConfig holds settings for the SQLite store.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds settings for the Redis store.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// StorageConfig selects and configures the save store.
type StorageConfig struct {
	// Backend is one of memory, file, sqlite, postgres, redis.
	Backend  string         `mapstructure:"backend"`
	File     FileConfig     `mapstructure:"file"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres DatabaseConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ScriptingConfig holds Lua scripting settings.
type ScriptingConfig struct {
	// Dir holds *.lua files; empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit is the opcode budget per script call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Game      GameConfig      `mapstructure:"game"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateGame(c.Game),
		validateStorage(c.Storage),
		validateScripting(c.Scripting),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.ContentDir == "" {
		errs = append(errs, "game.content_dir must not be empty")
	}
	if g.TickRate <= 0 {
		errs = append(errs, fmt.Sprintf("game.tick_rate must be > 0, got %s", g.TickRate))
	}
	if g.HourLength <= 0 {
		errs = append(errs, fmt.Sprintf("game.hour_length must be > 0, got %s", g.HourLength))
	}
	if g.StartHour < 0 || g.StartHour > 23 {
		errs = append(errs, fmt.Sprintf("game.start_hour must be 0-23, got %d", g.StartHour))
	}
	if g.MaxBattleTurns < 0 {
		errs = append(errs, fmt.Sprintf("game.max_battle_turns must be >= 0, got %d", g.MaxBattleTurns))
	}
	if g.TurnLength <= 0 {
		errs = append(errs, fmt.Sprintf("game.turn_length must be > 0, got %s", g.TurnLength))
	}
	if g.InitiativeAttribute == "" {
		errs = append(errs, "game.initiative_attribute must not be empty")
	}
	if g.AutosaveInterval < 0 {
		errs = append(errs, fmt.Sprintf("game.autosave_interval must be >= 0, got %s", g.AutosaveInterval))
	}
	if g.AutosaveInterval > 0 && g.SaveSlot == "" {
		errs = append(errs, "game.autosave_interval requires game.save_slot")
	}
	for _, a := range g.ClampedAttributes {
		if a == "" {
			errs = append(errs, "game.clamped_attributes must not contain empty names")
			break
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Backend {
	case BackendMemory:
		return nil
	case BackendFile:
		if s.File.Dir == "" {
			return errors.New("storage.file.dir must not be empty")
		}
		return nil
	case BackendSQLite:
		if s.SQLite.Path == "" {
			return errors.New("storage.sqlite.path must not be empty")
		}
		return nil
	case BackendPostgres:
		return validateDatabase(s.Postgres)
	case BackendRedis:
		var errs []string
		if s.Redis.Addr == "" {
			errs = append(errs, "storage.redis.addr must not be empty")
		}
		if s.Redis.DB < 0 {
			errs = append(errs, fmt.Sprintf("storage.redis.db must be >= 0, got %d", s.Redis.DB))
		}
		if s.Redis.TTL < 0 {
			errs = append(errs, "storage.redis.ttl must not be negative")
		}
		if len(errs) > 0 {
			return errors.New(strings.Join(errs, "; "))
		}
		return nil
	default:
		return fmt.Errorf("storage.backend must be one of [memory, file, sqlite, postgres, redis], got %q", s.Backend)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "storage.postgres.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("storage.postgres.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "storage.postgres.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "storage.postgres.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("storage.postgres.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("storage.postgres.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("storage.postgres.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "storage.postgres.min_conns must not exceed storage.postgres.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides (prefix RPG_, dots replaced by underscores), and
// validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and environment
// overrides configured but no config file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("RPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.content_dir", "content")
	v.SetDefault("game.tick_rate", "100ms")
	v.SetDefault("game.hour_length", "1m")
	v.SetDefault("game.start_hour", 8)
	v.SetDefault("game.clamped_attributes", []string{"health", "mana", "focus"})
	v.SetDefault("game.max_battle_turns", 200)
	v.SetDefault("game.turn_length", "1s")
	v.SetDefault("game.initiative_attribute", "speed")
	v.SetDefault("game.save_slot", "")
	v.SetDefault("game.autosave_interval", "0s")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.file.dir", "saves")
	v.SetDefault("storage.sqlite.path", "saves/rpgworld.db")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "rpg")
	v.SetDefault("storage.postgres.password", "rpg")
	v.SetDefault("storage.postgres.name", "rpg")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.max_conns", 10)
	v.SetDefault("storage.postgres.min_conns", 1)
	v.SetDefault("storage.postgres.max_conn_lifetime", "1h")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", "rpgworld:save:")
	v.SetDefault("storage.redis.ttl", "0s")

	v.SetDefault("scripting.dir", "content/scripts")
	v.SetDefault("scripting.instruction_limit", 100000)
}
