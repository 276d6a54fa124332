// Package progress tracks how well each word is known and picks words for
// practice.
//
// Selection is a two-phase random policy, not a spaced-repetition schedule:
// NextWord prefers words never rated and otherwise picks any word. Review
// timestamps are recorded but never influence selection.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/persistence"
	"github.com/gcbaptista/go-lexicon/model"
)

// Tracker owns the vocabulary progress records. Records are keyed by the
// word text, so they survive dictionary reloads, and they are written back
// to the store after every change.
type Tracker struct {
	store persistence.Store
	log   *slog.Logger
	now   func() time.Time
	intn  func(n int) int

	mu      sync.RWMutex
	records map[string]model.VocabProgressRecord
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithRandom replaces the source of uniform random indexes in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(t *Tracker) { t.intn = intn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.log = logger }
}

// NewTracker loads existing records from store.
func NewTracker(ctx context.Context, store persistence.Store, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:   store,
		log:     slog.Default(),
		now:     time.Now,
		intn:    rand.IntN,
		records: make(map[string]model.VocabProgressRecord),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With("component", "progress")

	if _, err := store.Get(ctx, persistence.KeyVocabProgress, &t.records); err != nil {
		return nil, fmt.Errorf("load vocabulary progress: %w", err)
	}
	if t.records == nil {
		t.records = make(map[string]model.VocabProgressRecord)
	}
	return t, nil
}

func normalizeWord(word string) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", internalErrors.NewValidationError("word", "word cannot be empty")
	}
	return word, nil
}

// Rate records a review: the quality is replaced, the review count goes up
// by one and the review time is stamped. The word does not have to be in
// the current corpus.
func (t *Tracker) Rate(ctx context.Context, word string, quality model.Quality) (model.VocabProgressRecord, error) {
	word, err := normalizeWord(word)
	if err != nil {
		return model.VocabProgressRecord{}, err
	}
	if !quality.Valid() {
		return model.VocabProgressRecord{}, internalErrors.NewValidationError("quality", fmt.Sprintf("quality must be 0, 1 or 2, got %d", int(quality)))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	previous, existed := t.records[word]
	record := model.VocabProgressRecord{
		Quality:     quality,
		ReviewCount: previous.ReviewCount + 1,
		LastReview:  t.now(),
	}
	t.records[word] = record

	if err := t.saveLocked(ctx); err != nil {
		t.restoreLocked(word, previous, existed)
		return model.VocabProgressRecord{}, err
	}

	t.log.Debug("word rated", slog.String("word", word), slog.String("quality", quality.String()), slog.Int("count", record.ReviewCount))
	return record, nil
}

// SetQuality changes the quality of an already rated word without counting
// a review. The review time is refreshed.
func (t *Tracker) SetQuality(ctx context.Context, word string, quality model.Quality) (model.VocabProgressRecord, error) {
	word, err := normalizeWord(word)
	if err != nil {
		return model.VocabProgressRecord{}, err
	}
	if !quality.Valid() {
		return model.VocabProgressRecord{}, internalErrors.NewValidationError("quality", fmt.Sprintf("quality must be 0, 1 or 2, got %d", int(quality)))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	previous, existed := t.records[word]
	if !existed {
		return model.VocabProgressRecord{}, fmt.Errorf("%w: '%s'", internalErrors.ErrRecordNotFound, word)
	}
	record := previous
	record.Quality = quality
	record.LastReview = t.now()
	t.records[word] = record

	if err := t.saveLocked(ctx); err != nil {
		t.restoreLocked(word, previous, true)
		return model.VocabProgressRecord{}, err
	}
	return record, nil
}

// Remove deletes the record of a word.
func (t *Tracker) Remove(ctx context.Context, word string) error {
	word, err := normalizeWord(word)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	previous, existed := t.records[word]
	if !existed {
		return fmt.Errorf("%w: '%s'", internalErrors.ErrRecordNotFound, word)
	}
	delete(t.records, word)

	if err := t.saveLocked(ctx); err != nil {
		t.restoreLocked(word, previous, true)
		return err
	}
	return nil
}

// Record returns the progress of one word.
func (t *Tracker) Record(word string) (model.VocabProgressRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	record, ok := t.records[strings.TrimSpace(word)]
	return record, ok
}

// NextWord picks the next word to practise from corpus: uniformly among
// words without a record when there are any, otherwise uniformly among all
// of them.
func (t *Tracker) NextWord(corpus []model.WordEntry) (model.WordEntry, error) {
	if len(corpus) == 0 {
		return model.WordEntry{}, internalErrors.ErrEmptyCorpus
	}

	t.mu.RLock()
	unlearned := make([]int, 0, len(corpus))
	for i, entry := range corpus {
		if _, ok := t.records[entry.Word]; !ok {
			unlearned = append(unlearned, i)
		}
	}
	t.mu.RUnlock()

	if len(unlearned) > 0 {
		return corpus[unlearned[t.intn(len(unlearned))]], nil
	}
	return corpus[t.intn(len(corpus))], nil
}

// WeakWords returns every word currently rated weak, sorted.
func (t *Tracker) WeakWords() ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var weak []string
	for word, record := range t.records {
		if record.Quality == model.QualityWeak {
			weak = append(weak, word)
		}
	}
	if len(weak) == 0 {
		return nil, internalErrors.ErrNoWeakWords
	}
	sort.Strings(weak)
	return weak, nil
}

// RandomWeakWord picks one weak word uniformly.
func (t *Tracker) RandomWeakWord() (string, error) {
	weak, err := t.WeakWords()
	if err != nil {
		return "", err
	}
	return weak[t.intn(len(weak))], nil
}

// Stats counts rated and mastered words against a corpus of total words.
func (t *Tracker) Stats(total int) model.ProgressStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := model.ProgressStats{
		TotalCorpusCount: total,
		LearnedCount:     len(t.records),
	}
	for _, record := range t.records {
		if record.Quality == model.QualityMastered {
			stats.MasteredCount++
		}
	}
	return stats
}

// Learned lists every rated word, most recently reviewed first.
func (t *Tracker) Learned() []model.LearnedWord {
	t.mu.RLock()
	learned := make([]model.LearnedWord, 0, len(t.records))
	for word, record := range t.records {
		learned = append(learned, model.LearnedWord{Word: word, VocabProgressRecord: record})
	}
	t.mu.RUnlock()

	sort.Slice(learned, func(i, j int) bool {
		if !learned[i].LastReview.Equal(learned[j].LastReview) {
			return learned[i].LastReview.After(learned[j].LastReview)
		}
		return learned[i].Word < learned[j].Word
	})
	return learned
}

func (t *Tracker) saveLocked(ctx context.Context) error {
	if err := t.store.Set(ctx, persistence.KeyVocabProgress, t.records); err != nil {
		t.log.Error("failed to save vocabulary progress", slog.String("error", err.Error()))
		return fmt.Errorf("save vocabulary progress: %w", err)
	}
	return nil
}

func (t *Tracker) restoreLocked(word string, previous model.VocabProgressRecord, existed bool) {
	if existed {
		t.records[word] = previous
	} else {
		delete(t.records, word)
	}
}
