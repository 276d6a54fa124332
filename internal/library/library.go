// Package library keeps the user's search history and favorite headwords.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/persistence"
	"github.com/gcbaptista/go-lexicon/model"
)

// MaxHistory is the number of searches kept.
const MaxHistory = 50

// Library holds history and favorites. Favorites are written on each
// change; history is written in the background.
type Library struct {
	store   persistence.Store
	history *persistence.Flusher
	log     *slog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	searches  []string
	favorites []model.FavoriteEntry
}

// Option configures a Library.
type Option func(*options)

type options struct {
	flushInterval time.Duration
}

// WithFlushInterval sets how long history changes may stay unwritten.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) { o.flushInterval = d }
}

// New loads history and favorites from store. Close must be called to write
// the last searches.
func New(ctx context.Context, store persistence.Store, logger *slog.Logger, opts ...Option) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	l := &Library{
		store: store,
		log:   logger.With("component", "library"),
		now:   time.Now,
	}
	if _, err := store.Get(ctx, persistence.KeyHistory, &l.searches); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if _, err := store.Get(ctx, persistence.KeyFavorites, &l.favorites); err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	l.history = persistence.NewFlusher(store, persistence.KeyHistory, o.flushInterval, l.historySnapshot, logger)
	return l, nil
}

func (l *Library) historySnapshot() any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string{}, l.searches...)
}

// RecordSearch moves word to the front of the history, dropping any earlier
// occurrence and the oldest entries beyond MaxHistory. The history is
// written to the store later.
func (l *Library) RecordSearch(word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return internalErrors.NewValidationError("word", "word cannot be empty")
	}

	l.mu.Lock()
	next := make([]string, 0, min(len(l.searches)+1, MaxHistory))
	next = append(next, word)
	for _, h := range l.searches {
		if len(next) >= MaxHistory {
			break
		}
		if h != word {
			next = append(next, h)
		}
	}
	l.searches = next
	l.mu.Unlock()

	l.history.Mark()
	return nil
}

// AddHistory records word like RecordSearch and writes the history now.
func (l *Library) AddHistory(ctx context.Context, word string) error {
	if err := l.RecordSearch(word); err != nil {
		return err
	}
	if err := l.history.Flush(ctx); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// History returns the searches, most recent first.
func (l *Library) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string{}, l.searches...)
}

// ClearHistory forgets every search.
func (l *Library) ClearHistory(ctx context.Context) error {
	l.mu.Lock()
	l.searches = nil
	l.mu.Unlock()

	l.history.Mark()
	if err := l.history.Flush(ctx); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Close writes any pending history and stops background writes.
func (l *Library) Close(ctx context.Context) error {
	return l.history.Close(ctx)
}

// ToggleFavorite adds entry to the front of the favorites, or removes it
// when it is already there. It reports whether the word is a favorite
// afterwards.
func (l *Library) ToggleFavorite(ctx context.Context, entry model.WordEntry) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.favoriteIndexLocked(entry.Word); i >= 0 {
		next := append(append([]model.FavoriteEntry{}, l.favorites[:i]...), l.favorites[i+1:]...)
		if err := l.saveFavoritesLocked(ctx, next); err != nil {
			return true, err
		}
		return false, nil
	}

	fav := model.FavoriteEntry{
		Word:          entry.Word,
		Phonetic:      entry.Phonetic,
		PartsOfSpeech: append([]model.PartOfSpeech(nil), entry.PartsOfSpeech...),
		AddedAt:       l.now(),
	}
	next := append([]model.FavoriteEntry{fav}, l.favorites...)
	if err := l.saveFavoritesLocked(ctx, next); err != nil {
		return false, err
	}
	l.log.Debug("favorite added", slog.String("word", entry.Word))
	return true, nil
}

// RemoveFavorite drops word from the favorites. Removing a word that is not
// a favorite is not an error.
func (l *Library) RemoveFavorite(ctx context.Context, word string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.favoriteIndexLocked(word)
	if i < 0 {
		return nil
	}
	next := append(append([]model.FavoriteEntry{}, l.favorites[:i]...), l.favorites[i+1:]...)
	return l.saveFavoritesLocked(ctx, next)
}

// IsFavorite reports whether word is a favorite.
func (l *Library) IsFavorite(word string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.favoriteIndexLocked(word) >= 0
}

// Favorites returns the favorites, most recently added first.
func (l *Library) Favorites() []model.FavoriteEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.FavoriteEntry{}, l.favorites...)
}

// ClearFavorites removes every favorite.
func (l *Library) ClearFavorites(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveFavoritesLocked(ctx, []model.FavoriteEntry{})
}

func (l *Library) favoriteIndexLocked(word string) int {
	for i, f := range l.favorites {
		if f.Word == word {
			return i
		}
	}
	return -1
}

func (l *Library) saveFavoritesLocked(ctx context.Context, next []model.FavoriteEntry) error {
	if err := l.store.Set(ctx, persistence.KeyFavorites, next); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	l.favorites = next
	return nil
}
