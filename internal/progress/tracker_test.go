package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/persistence"
	"github.com/gcbaptista/go-lexicon/model"
)

// fakeClock advances one minute per call.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

// failingStore fails every Set after the first failAfter calls.
type failingStore struct {
	*persistence.MemoryStore
	failAfter int
	sets      int
}

func (s *failingStore) Set(ctx context.Context, key string, value any) error {
	s.sets++
	if s.sets > s.failAfter {
		return errors.New("store offline")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func newTestTracker(t *testing.T, store persistence.Store, opts ...Option) *Tracker {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now), WithRandom(func(n int) int { return 0 })}, opts...)
	tracker, err := NewTracker(context.Background(), store, opts...)
	require.NoError(t, err)
	return tracker
}

func entries(words ...string) []model.WordEntry {
	out := make([]model.WordEntry, len(words))
	for i, w := range words {
		out[i] = model.WordEntry{Word: w}
	}
	return out
}

func TestTracker_Rate(t *testing.T) {
	tracker := newTestTracker(t, persistence.NewMemoryStore())
	ctx := context.Background()

	first, err := tracker.Rate(ctx, "chat", model.QualityWeak)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ReviewCount)

	second, err := tracker.Rate(ctx, "chat", model.QualityMastered)
	require.NoError(t, err)
	assert.Equal(t, 2, second.ReviewCount)
	assert.Equal(t, model.QualityMastered, second.Quality)
	assert.True(t, second.LastReview.After(first.LastReview))

	// Words outside any corpus can be rated.
	_, err = tracker.Rate(ctx, "inexistant", model.QualityUncertain)
	require.NoError(t, err)
}

func TestTracker_RateValidation(t *testing.T) {
	tracker := newTestTracker(t, persistence.NewMemoryStore())
	ctx := context.Background()

	_, err := tracker.Rate(ctx, "chat", model.Quality(3))
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)

	_, err = tracker.Rate(ctx, "  ", model.QualityWeak)
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)
}

func TestTracker_MasteredWordIsNotWeak(t *testing.T) {
	tracker := newTestTracker(t, persistence.NewMemoryStore())
	ctx := context.Background()

	_, err := tracker.Rate(ctx, "chien", model.QualityWeak)
	require.NoError(t, err)
	_, err = tracker.Rate(ctx, "chat", model.QualityMastered)
	require.NoError(t, err)

	weak, err := tracker.WeakWords()
	require.NoError(t, err)
	assert.NotContains(t, weak, "chat")
	assert.Equal(t, []string{"chien"}, weak)
}

func TestTracker_NoWeakWords(t *testing.T) {
	tracker := newTestTracker(t, persistence.NewMemoryStore())

	_, err := tracker.WeakWords()
	assert.ErrorIs(t, err, internalErrors.ErrNoWeakWords)

	_, err = tracker.Rate(context.Background(), "chat", model.QualityMastered)
	require.NoError(t, err)
	_, err = tracker.RandomWeakWord()
	assert.ErrorIs(t, err, internalErrors.ErrNoWeakWords)
}

func TestTracker_NextWordEmptyCorpus(t *testing.T) {
	tracker := newTestTracker(t, persistence.NewMemoryStore())

	_, err := tracker.NextWord(nil)
	assert.ErrorIs(t, err, internalErrors.ErrEmptyCorpus)
	_, err = tracker.NextWord([]model.WordEntry{})
	assert.ErrorIs(t, err, internalErrors.ErrEmptyCorpus)
}

func TestTracker_NextWordPrefersUnlearned(t *testing.T) {
	var bounds []int
	tracker := newTestTracker(t, persistence.NewMemoryStore(),
		WithRandom(func(n int) int { bounds = append(bounds, n); return n - 1 }))
	ctx := context.Background()
	corpus := entries("un", "deux", "trois")

	_, err := tracker.Rate(ctx, "trois", model.QualityWeak)
	require.NoError(t, err)

	next, err := tracker.NextWord(corpus)
	require.NoError(t, err)
	assert.Equal(t, "deux", next.Word, "last of the unlearned words")
	assert.Equal(t, []int{2}, bounds)

	for _, w := range []string{"un", "deux"} {
		_, err := tracker.Rate(ctx, w, model.QualityUncertain)
		require.NoError(t, err)
	}

	next, err = tracker.NextWord(corpus)
	require.NoError(t, err)
	assert.Equal(t, "trois", next.Word, "review mode picks among all words")
	assert.Equal(t, []int{2, 3}, bounds)
}

func TestTracker_Stats(t *testing.T) {
	tracker := newTestTracker(t, persistence.NewMemoryStore())
	ctx := context.Background()

	for word, q := range map[string]model.Quality{"a": model.QualityWeak, "b": model.QualityMastered, "c": model.QualityMastered} {
		_, err := tracker.Rate(ctx, word, q)
		require.NoError(t, err)
	}

	assert.Equal(t, model.ProgressStats{TotalCorpusCount: 100, LearnedCount: 3, MasteredCount: 2}, tracker.Stats(100))
}

func TestTracker_SetQualityAndRemove(t *testing.T) {
	tracker := newTestTracker(t, persistence.NewMemoryStore())
	ctx := context.Background()

	_, err := tracker.SetQuality(ctx, "chat", model.QualityMastered)
	assert.ErrorIs(t, err, internalErrors.ErrRecordNotFound)

	_, err = tracker.Rate(ctx, "chat", model.QualityWeak)
	require.NoError(t, err)

	record, err := tracker.SetQuality(ctx, "chat", model.QualityMastered)
	require.NoError(t, err)
	assert.Equal(t, model.QualityMastered, record.Quality)
	assert.Equal(t, 1, record.ReviewCount, "a quick toggle is not a review")

	require.NoError(t, tracker.Remove(ctx, "chat"))
	_, ok := tracker.Record("chat")
	assert.False(t, ok)
	assert.ErrorIs(t, tracker.Remove(ctx, "chat"), internalErrors.ErrRecordNotFound)
}

func TestTracker_LearnedMostRecentFirst(t *testing.T) {
	tracker := newTestTracker(t, persistence.NewMemoryStore())
	ctx := context.Background()

	for _, w := range []string{"un", "deux", "trois"} {
		_, err := tracker.Rate(ctx, w, model.QualityUncertain)
		require.NoError(t, err)
	}
	_, err := tracker.SetQuality(ctx, "un", model.QualityMastered)
	require.NoError(t, err)

	var got []string
	for _, l := range tracker.Learned() {
		got = append(got, l.Word)
	}
	assert.Equal(t, []string{"un", "trois", "deux"}, got)
}

func TestTracker_PersistsAcrossInstances(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()

	first := newTestTracker(t, store)
	_, err := first.Rate(ctx, "chat", model.QualityMastered)
	require.NoError(t, err)

	second := newTestTracker(t, store)
	record, ok := second.Record("chat")
	require.True(t, ok)
	assert.Equal(t, model.QualityMastered, record.Quality)
	assert.Equal(t, 1, record.ReviewCount)
}

func TestTracker_StoreFailureRollsBack(t *testing.T) {
	store := &failingStore{MemoryStore: persistence.NewMemoryStore(), failAfter: 1}
	tracker := newTestTracker(t, store)
	ctx := context.Background()

	_, err := tracker.Rate(ctx, "chat", model.QualityWeak)
	require.NoError(t, err)

	_, err = tracker.Rate(ctx, "chat", model.QualityMastered)
	require.Error(t, err)
	record, _ := tracker.Record("chat")
	assert.Equal(t, model.QualityWeak, record.Quality)
	assert.Equal(t, 1, record.ReviewCount)

	_, err = tracker.Rate(ctx, "chien", model.QualityWeak)
	require.Error(t, err)
	_, ok := tracker.Record("chien")
	assert.False(t, ok)
}
