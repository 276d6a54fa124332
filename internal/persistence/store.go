package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gcbaptista/go-lexicon/config"
)

// Keys under which the application keeps its state.
const (
	KeyVocabProgress = "vocab_progress"
	KeyHistory       = "search_history"
	KeyFavorites     = "favorites"
	KeyAnalytics     = "search_analytics"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is an opaque durable map from string keys to JSON documents.
// Operations on different keys are independent; there are no transactions
// spanning several keys.
type Store interface {
	// Get decodes the value stored under key into dst. It reports false,
	// leaving dst untouched, when the key has never been set.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value any) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "store", "driver", cfg.Driver)

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case config.StoreDriverMemory:
		s = NewMemoryStore()
	case config.StoreDriverFile:
		s, err = OpenFileStore(cfg.DataDir)
	case config.StoreDriverSQLite:
		s, err = OpenSQLiteStore(ctx, cfg.SQLiteFile())
	case config.StoreDriverRedis:
		s, err = OpenRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.KeyPrefix)
	case config.StoreDriverPostgres:
		s, err = OpenPostgresStore(ctx, cfg.PostgresDSN, cfg.PostgresTable)
	default:
		return nil, fmt.Errorf("unknown store driver '%s'", cfg.Driver)
	}
	if err != nil {
		log.Error("failed to open store", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("store opened")
	return s, nil
}

func encodeValue(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for key '%s': %w", key, err)
	}
	return data, nil
}

func decodeValue(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode value for key '%s': %w", key, err)
	}
	return nil
}
