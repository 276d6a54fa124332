// Package config provides configuration structures for the dictionary
// service: server, corpus source, persistence backend and logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig       `yaml:"server"`
	Dictionary DictionarySettings `yaml:"dictionary"`
	Store      StoreConfig        `yaml:"store"`
	Log        LogConfig          `yaml:"log"`
	Jobs       JobsConfig         `yaml:"jobs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"1048576"`
	Mode            string        `yaml:"mode"             env:"GIN_MODE"                env-default:"release"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverFile     = "file"
	StoreDriverSQLite   = "sqlite"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

// StoreConfig selects and configures the key-value store used for history,
// favorites and vocabulary progress.
type StoreConfig struct {
	Driver        string        `yaml:"driver"         env:"STORE_DRIVER"         env-default:"file"`
	DataDir       string        `yaml:"data_dir"       env:"STORE_DATA_DIR"       env-default:"./lexicon_data"`
	SQLitePath    string        `yaml:"sqlite_path"    env:"STORE_SQLITE_PATH"`
	RedisAddr     string        `yaml:"redis_addr"     env:"STORE_REDIS_ADDR"     env-default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password" env:"STORE_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"       env:"STORE_REDIS_DB"       env-default:"0"`
	KeyPrefix     string        `yaml:"key_prefix"     env:"STORE_KEY_PREFIX"     env-default:"lexicon:"`
	PostgresDSN   string        `yaml:"postgres_dsn"   env:"STORE_POSTGRES_DSN"`
	PostgresTable string        `yaml:"postgres_table" env:"STORE_POSTGRES_TABLE" env-default:"lexicon_kv"`
	FlushInterval time.Duration `yaml:"flush_interval" env:"STORE_FLUSH_INTERVAL" env-default:"2s"`
}

// SQLiteFile returns the SQLite database path, defaulting to a file inside DataDir.
func (s StoreConfig) SQLiteFile() string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}
	return filepath.Join(s.DataDir, "lexicon.db")
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	MaxWorkers int `yaml:"max_workers" env:"JOBS_MAX_WORKERS" env-default:"2"`
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be positive")
	}

	problems = append(problems, c.Dictionary.Validate()...)

	switch c.Store.Driver {
	case StoreDriverMemory, StoreDriverFile, StoreDriverSQLite:
	case StoreDriverRedis:
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			problems = append(problems, "store.redis_addr is required for the redis driver")
		}
	case StoreDriverPostgres:
		if strings.TrimSpace(c.Store.PostgresDSN) == "" {
			problems = append(problems, "store.postgres_dsn is required for the postgres driver")
		}
		if !validIdentifier(c.Store.PostgresTable) {
			problems = append(problems, "store.postgres_table '"+c.Store.PostgresTable+"' is not a valid table name")
		}
	default:
		problems = append(problems, "unknown store.driver '"+c.Store.Driver+"'")
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		problems = append(problems, "log.format must be 'json' or 'text'")
	}

	if c.Jobs.MaxWorkers < 1 {
		problems = append(problems, "jobs.max_workers must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
