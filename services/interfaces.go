// Package services declares the interfaces the HTTP layer consumes.
package services

import (
	"context"

	"github.com/gcbaptista/go-lexicon/model"
)

// DictionaryLoader controls loading and reports readiness.
type DictionaryLoader interface {
	Status() model.DictionaryStatus
	Load(ctx context.Context) error
	ReloadAsync() (string, error)
	SaveSnapshotAsync() (string, error)
}

// WordSearcher answers dictionary queries.
type WordSearcher interface {
	Search(ctx context.Context, query string) (model.SearchResult, error)
	Lookup(word string) (model.WordEntry, error)
	Suggest(query string) ([]model.WordEntry, error)
	ByPartOfSpeech(tag string, limit int) ([]model.WordEntry, error)
	PartsOfSpeech() map[string]int
	Random() (model.WordEntry, error)
}

// ProgressManager records and queries vocabulary progress.
type ProgressManager interface {
	Rate(ctx context.Context, queryID, word string, quality model.Quality) (model.VocabProgressRecord, model.ProgressStats, error)
	SetQuality(ctx context.Context, queryID, word string, quality model.Quality) (model.VocabProgressRecord, model.ProgressStats, error)
	RemoveProgress(ctx context.Context, word string) (model.ProgressStats, error)
	Progress(word string) (model.VocabProgressRecord, bool)
	NextWord() (model.WordEntry, error)
	WeakWords() ([]string, error)
	RandomWeakWord() (string, *model.WordEntry, error)
	ProgressStats() model.ProgressStats
	Learned() []model.LearnedWord
}

// LibraryManager manages search history and favorites.
type LibraryManager interface {
	History() []string
	ClearHistory(ctx context.Context) error
	ToggleFavorite(ctx context.Context, word string) (bool, error)
	Favorites() []model.FavoriteEntry
	RemoveFavorite(ctx context.Context, word string) error
	ClearFavorites(ctx context.Context) error
}

// JobManager exposes background jobs.
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
	JobMetrics() model.JobMetrics
}

// AnalyticsReporter summarizes past searches.
type AnalyticsReporter interface {
	SearchAnalytics() model.AnalyticsDashboard
	ResetAnalytics(ctx context.Context) error
}

// DictionaryManager is everything the API needs from the dictionary.
type DictionaryManager interface {
	DictionaryLoader
	WordSearcher
	ProgressManager
	LibraryManager
	JobManager
	AnalyticsReporter
}
