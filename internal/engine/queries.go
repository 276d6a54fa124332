package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/folding"
	"github.com/gcbaptista/go-lexicon/model"
)

// Search runs a dictionary search and records the query in the history
// when something matched. History and analytics reach the store in the
// background.
func (d *Dictionary) Search(_ context.Context, query string) (model.SearchResult, error) {
	start := time.Now()
	result, err := d.searcher.Search(query)
	d.trackSearch(query, result, err, time.Since(start))
	if err != nil {
		return result, err
	}
	if err := d.library.RecordSearch(result.Query); err != nil {
		d.log.Warn("failed to record search history", slog.String("query", result.Query), slog.String("error", err.Error()))
	}
	return result, nil
}

// Lookup returns the entry whose headword folds to word.
func (d *Dictionary) Lookup(word string) (model.WordEntry, error) {
	if folding.Key(word) == "" {
		return model.WordEntry{}, internalErrors.NewValidationError("word", "word cannot be empty")
	}
	if d.Indexes().Empty() {
		return model.WordEntry{}, internalErrors.NewUnavailableError(nil)
	}
	entry, ok := d.searcher.ExactMatch(word)
	if !ok {
		return model.WordEntry{}, internalErrors.NewWordNotFoundError(folding.Whitespace(word))
	}
	return entry, nil
}

// Suggest returns autocomplete candidates for a partial query.
func (d *Dictionary) Suggest(query string) ([]model.WordEntry, error) {
	if d.Indexes().Empty() {
		return nil, internalErrors.NewUnavailableError(nil)
	}
	return d.searcher.Suggest(query), nil
}

// ByPartOfSpeech lists entries tagged with tag.
func (d *Dictionary) ByPartOfSpeech(tag string, limit int) ([]model.WordEntry, error) {
	return d.searcher.ByPartOfSpeech(tag, limit)
}

// PartsOfSpeech returns each part-of-speech key with its entry count.
func (d *Dictionary) PartsOfSpeech() map[string]int {
	return d.searcher.PartsOfSpeech()
}

// Random returns a random entry.
func (d *Dictionary) Random() (model.WordEntry, error) {
	return d.searcher.Random()
}

// progressKey returns the headword progress is recorded under: the display
// form of the dictionary entry when word is in the dictionary, otherwise
// word itself.
func (d *Dictionary) progressKey(word string) string {
	if entry, ok := d.searcher.ExactMatch(word); ok {
		return entry.Word
	}
	return word
}

// Rate records a review of word and notifies subscribers with the updated
// stats. queryID ties the update to the search that led to it; a new ID is
// generated when it is empty.
func (d *Dictionary) Rate(ctx context.Context, queryID, word string, quality model.Quality) (model.VocabProgressRecord, model.ProgressStats, error) {
	record, err := d.tracker.Rate(ctx, d.progressKey(word), quality)
	if err != nil {
		return model.VocabProgressRecord{}, model.ProgressStats{}, err
	}
	return record, d.progressUpdated(queryID), nil
}

// SetQuality changes the rating of an already reviewed word.
func (d *Dictionary) SetQuality(ctx context.Context, queryID, word string, quality model.Quality) (model.VocabProgressRecord, model.ProgressStats, error) {
	record, err := d.tracker.SetQuality(ctx, d.progressKey(word), quality)
	if err != nil {
		return model.VocabProgressRecord{}, model.ProgressStats{}, err
	}
	return record, d.progressUpdated(queryID), nil
}

// RemoveProgress forgets the progress of word.
func (d *Dictionary) RemoveProgress(ctx context.Context, word string) (model.ProgressStats, error) {
	if err := d.tracker.Remove(ctx, d.progressKey(word)); err != nil {
		return model.ProgressStats{}, err
	}
	return d.progressUpdated(""), nil
}

func (d *Dictionary) progressUpdated(queryID string) model.ProgressStats {
	if queryID == "" {
		queryID = uuid.NewString()
	}
	stats := d.ProgressStats()
	d.sink.ProgressUpdated(queryID, stats)
	return stats
}

// Progress returns the record of word, if it was ever rated.
func (d *Dictionary) Progress(word string) (model.VocabProgressRecord, bool) {
	return d.tracker.Record(d.progressKey(word))
}

// NextWord picks the next word to practise from the loaded corpus.
func (d *Dictionary) NextWord() (model.WordEntry, error) {
	if d.Indexes().Empty() {
		return model.WordEntry{}, internalErrors.NewUnavailableError(nil)
	}
	return d.tracker.NextWord(d.searcher.Entries())
}

// WeakWords returns the words rated weak.
func (d *Dictionary) WeakWords() ([]string, error) {
	return d.tracker.WeakWords()
}

// RandomWeakWord returns a weak word together with its dictionary entry
// when the word is still in the corpus.
func (d *Dictionary) RandomWeakWord() (string, *model.WordEntry, error) {
	word, err := d.tracker.RandomWeakWord()
	if err != nil {
		return "", nil, err
	}
	entry, err := d.Lookup(word)
	if err != nil {
		if errors.Is(err, internalErrors.ErrNotFound) || errors.Is(err, internalErrors.ErrUnavailable) {
			return word, nil, nil
		}
		return "", nil, err
	}
	return word, &entry, nil
}

// ProgressStats summarises progress against the loaded corpus.
func (d *Dictionary) ProgressStats() model.ProgressStats {
	return d.tracker.Stats(d.Indexes().Len())
}

// Learned lists the rated words, most recently reviewed first.
func (d *Dictionary) Learned() []model.LearnedWord {
	return d.tracker.Learned()
}

// History returns recent searches, newest first.
func (d *Dictionary) History() []string {
	return d.library.History()
}

// ClearHistory forgets every search.
func (d *Dictionary) ClearHistory(ctx context.Context) error {
	return d.library.ClearHistory(ctx)
}

// ToggleFavorite adds word to the favorites or removes it. A word that
// is no longer in the dictionary can still be removed.
func (d *Dictionary) ToggleFavorite(ctx context.Context, word string) (bool, error) {
	entry, err := d.Lookup(word)
	if err != nil {
		w := folding.Whitespace(word)
		if d.library.IsFavorite(w) {
			return false, d.library.RemoveFavorite(ctx, w)
		}
		return false, err
	}
	return d.library.ToggleFavorite(ctx, entry)
}

// Favorites returns the favorites, newest first.
func (d *Dictionary) Favorites() []model.FavoriteEntry {
	return d.library.Favorites()
}

// RemoveFavorite drops word from the favorites.
func (d *Dictionary) RemoveFavorite(ctx context.Context, word string) error {
	return d.library.RemoveFavorite(ctx, folding.Whitespace(word))
}

// ClearFavorites removes every favorite.
func (d *Dictionary) ClearFavorites(ctx context.Context) error {
	return d.library.ClearFavorites(ctx)
}

func (d *Dictionary) trackSearch(query string, result model.SearchResult, err error, took time.Duration) {
	if d.analytics == nil {
		return
	}
	event := model.SearchEvent{
		Query:        folding.Whitespace(query),
		ResultCount:  len(result.Related),
		ResponseTime: took,
	}
	switch {
	case err == nil && result.Exact != nil:
		event.Outcome = model.OutcomeExact
	case err == nil:
		event.Outcome = model.OutcomeRelated
	case errors.Is(err, internalErrors.ErrNotFound):
		event.Outcome = model.OutcomeMiss
	case errors.Is(err, internalErrors.ErrUnavailable):
		event.Outcome = model.OutcomeUnavailable
	default:
		return
	}
	d.analytics.TrackSearchEvent(event)
}

// SearchAnalytics summarizes the searches of the last 24 hours.
func (d *Dictionary) SearchAnalytics() model.AnalyticsDashboard {
	if d.analytics == nil {
		return model.AnalyticsDashboard{}
	}
	return d.analytics.GetDashboardData()
}

// ResetAnalytics forgets every recorded search.
func (d *Dictionary) ResetAnalytics(ctx context.Context) error {
	if d.analytics == nil {
		return nil
	}
	return d.analytics.Reset(ctx)
}
