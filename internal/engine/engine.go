// Package engine ties the corpus loader, index builder, query engine,
// progress tracker and library together behind one Dictionary.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/gcbaptista/go-lexicon/config"
	"github.com/gcbaptista/go-lexicon/index"
	"github.com/gcbaptista/go-lexicon/internal/analytics"
	"github.com/gcbaptista/go-lexicon/internal/corpus"
	"github.com/gcbaptista/go-lexicon/internal/indexing"
	"github.com/gcbaptista/go-lexicon/internal/jobs"
	"github.com/gcbaptista/go-lexicon/internal/library"
	"github.com/gcbaptista/go-lexicon/internal/notify"
	"github.com/gcbaptista/go-lexicon/internal/persistence"
	"github.com/gcbaptista/go-lexicon/internal/progress"
	"github.com/gcbaptista/go-lexicon/internal/search"
	"github.com/gcbaptista/go-lexicon/model"
	"github.com/gcbaptista/go-lexicon/services"
)

const snapshotFile = "indexes.gob"

// Options wires a Dictionary. Loader, Tracker and Library are required.
type Options struct {
	Loader  *corpus.Loader
	Builder *indexing.Builder
	Tracker *progress.Tracker
	Library *library.Library
	Jobs    *jobs.Manager
	Sink    notify.Sink
	Logger  *slog.Logger
	// Analytics records searches; nil disables tracking.
	Analytics *analytics.Service
	// Collation orders prefix matches.
	Collation language.Tag
	// SnapshotPath is where built indexes are saved; empty disables
	// snapshots.
	SnapshotPath string
}

// Dictionary serves one corpus. It implements services.DictionaryManager.
//
// The current indexes are published through an atomic pointer after each
// successful build, so queries never observe a partial build and never
// block on a reload.
type Dictionary struct {
	loader   *corpus.Loader
	builder  *indexing.Builder
	searcher *search.Service
	tracker  *progress.Tracker
	library  *library.Library
	jobs     *jobs.Manager
	sink     notify.Sink
	log      *slog.Logger

	analytics *analytics.Service

	snapshotPath string

	current atomic.Pointer[index.Indexes]

	buildMu sync.Mutex // serializes builds

	mu        sync.RWMutex
	state     model.ReadinessState
	prevState model.ReadinessState // state to fall back to when every waiting caller gave up
	inflight  int
	lastErr   string

	closeOnce sync.Once
}

// New creates an unloaded Dictionary.
func New(opts Options) (*Dictionary, error) {
	if opts.Loader == nil || opts.Tracker == nil || opts.Library == nil {
		return nil, fmt.Errorf("engine: loader, tracker and library are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	builder := opts.Builder
	if builder == nil {
		builder = indexing.NewBuilder(logger)
	}
	sink := opts.Sink
	if sink == nil {
		sink = notify.Nop{}
	}
	collation := opts.Collation
	if collation == language.Und {
		collation = language.French
	}

	d := &Dictionary{
		loader:       opts.Loader,
		builder:      builder,
		tracker:      opts.Tracker,
		library:      opts.Library,
		jobs:         opts.Jobs,
		analytics:    opts.Analytics,
		sink:         sink,
		log:          logger.With("component", "dictionary"),
		snapshotPath: opts.SnapshotPath,
		state:        model.StateUnloaded,
	}
	d.searcher = search.NewService(d, collation)
	return d, nil
}

// Open builds a Dictionary and its collaborators from configuration. The
// returned Dictionary is unloaded; call RestoreSnapshot and Load, or
// ReloadAsync, to bring it up.
func Open(ctx context.Context, cfg *config.Config, store persistence.Store, sink notify.Sink, logger *slog.Logger) (*Dictionary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	settings := cfg.Dictionary
	settings.ApplyDefaults()

	var provider corpus.Provider
	if settings.BaseURL != "" {
		provider = corpus.NewHTTPProvider(settings.BaseURL, settings.LegacyFiles, settings.FetchTimeout, logger)
	} else {
		provider = corpus.NewDirProvider(settings.SourceDir, settings.LegacyFiles)
	}

	loader := corpus.NewLoader(provider, corpus.LoaderOptions{
		Partitions:           settings.Partitions,
		MaxConcurrentFetches: settings.MaxConcurrentFetches,
		FetchTimeout:         settings.FetchTimeout,
		Sink:                 sink,
		Logger:               logger,
	})

	tracker, err := progress.NewTracker(ctx, store, progress.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	lib, err := library.New(ctx, store, logger, library.WithFlushInterval(cfg.Store.FlushInterval))
	if err != nil {
		return nil, err
	}
	searchAnalytics, err := analytics.NewService(ctx, store, logger, analytics.WithFlushInterval(cfg.Store.FlushInterval))
	if err != nil {
		return nil, err
	}

	manager := jobs.NewManager(cfg.Jobs.MaxWorkers, logger)
	manager.Start()

	var snapshotPath string
	if settings.UseSnapshot {
		snapshotPath = filepath.Join(settings.SnapshotDir, snapshotFile)
	}

	return New(Options{
		Loader:       loader,
		Builder:      indexing.NewBuilder(logger),
		Tracker:      tracker,
		Library:      lib,
		Jobs:         manager,
		Analytics:    searchAnalytics,
		Sink:         sink,
		Logger:       logger,
		Collation:    settings.CollationTag(),
		SnapshotPath: snapshotPath,
	})
}

// Indexes returns the indexes being served, or nil before the first
// successful load.
func (d *Dictionary) Indexes() *index.Indexes {
	return d.current.Load()
}

// Searcher exposes the query engine over the current indexes.
func (d *Dictionary) Searcher() *search.Service {
	return d.searcher
}

// Status reports readiness and, once loaded, the metadata of the current
// build.
func (d *Dictionary) Status() model.DictionaryStatus {
	d.mu.RLock()
	status := model.DictionaryStatus{State: d.state, LastError: d.lastErr}
	d.mu.RUnlock()

	if ix := d.Indexes(); ix != nil {
		meta := ix.Metadata
		status.Metadata = &meta
	}
	return status
}

// Close stops background jobs and writes pending history and analytics.
func (d *Dictionary) Close() {
	d.closeOnce.Do(func() {
		if d.jobs != nil {
			d.jobs.Stop()
		}
		ctx := context.Background()
		if err := d.library.Close(ctx); err != nil {
			d.log.Error("failed to write search history", slog.String("error", err.Error()))
		}
		if d.analytics != nil {
			if err := d.analytics.Close(ctx); err != nil {
				d.log.Error("failed to write search analytics", slog.String("error", err.Error()))
			}
		}
	})
}

var _ services.DictionaryManager = (*Dictionary)(nil)
