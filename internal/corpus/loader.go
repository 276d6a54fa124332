// Package corpus fetches dictionary partitions and turns them into the flat,
// normalized entry sequence the index builder consumes.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/notify"
	"github.com/gcbaptista/go-lexicon/model"
)

const loadKey = "load"

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Partitions are fetched concurrently and concatenated in this order.
	Partitions []string
	// LegacyName is recorded as the partition name of a legacy load.
	LegacyName string
	// MaxConcurrentFetches bounds parallel partition fetches; zero means
	// one goroutine per partition.
	MaxConcurrentFetches int
	// FetchTimeout bounds each partition fetch; zero means no timeout.
	FetchTimeout time.Duration
	Sink         notify.Sink
	Logger       *slog.Logger
}

// Loader loads the corpus through a Provider. At most one load runs at a
// time: concurrent callers share the in-flight load and its outcome. Once a
// load produced entries, later calls return that outcome without fetching
// until Reset is called.
type Loader struct {
	provider      Provider
	partitions    []string
	legacyName    string
	maxConcurrent int
	fetchTimeout  time.Duration
	sink          notify.Sink
	log           *slog.Logger
	now           func() time.Time

	group singleflight.Group

	mu     sync.RWMutex
	cached *model.LoadOutcome
}

// NewLoader creates a Loader.
func NewLoader(provider Provider, opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Sink
	if sink == nil {
		sink = notify.Nop{}
	}
	legacyName := opts.LegacyName
	if legacyName == "" {
		legacyName = string(model.LoadSourceLegacy)
	}
	return &Loader{
		provider:      provider,
		partitions:    append([]string(nil), opts.Partitions...),
		legacyName:    legacyName,
		maxConcurrent: opts.MaxConcurrentFetches,
		fetchTimeout:  opts.FetchTimeout,
		sink:          sink,
		log:           logger.With("component", "corpus_loader"),
		now:           time.Now,
	}
}

// Partitions returns the configured partition order.
func (l *Loader) Partitions() []string {
	return append([]string(nil), l.partitions...)
}

// Cached returns the outcome of the last successful load, if any.
func (l *Loader) Cached() (model.LoadOutcome, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cached == nil {
		return model.LoadOutcome{}, false
	}
	return *l.cached, true
}

// Reset forgets the cached outcome so the next Load fetches again. A load
// already in flight is not affected.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

// Load returns the corpus. The shared fetch runs detached from ctx, so a
// caller that stops waiting does not cancel it for the others; ctx only
// bounds how long this caller waits.
//
// Partition failures are logged and skipped. When every partition fails the
// legacy files are tried; when those fail too the error matches
// internalErrors.ErrUnavailable.
func (l *Loader) Load(ctx context.Context) (model.LoadOutcome, error) {
	if outcome, ok := l.Cached(); ok {
		return outcome, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(loadKey, func() (any, error) {
		// Another caller may have finished a load between the cache check
		// and this call.
		if outcome, ok := l.Cached(); ok {
			return outcome, nil
		}
		return l.load(detached)
	})

	select {
	case <-ctx.Done():
		return model.LoadOutcome{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			l.log.Debug("joined in-flight corpus load")
		}
		if res.Err != nil {
			return model.LoadOutcome{}, res.Err
		}
		return res.Val.(model.LoadOutcome), nil
	}
}

func (l *Loader) load(ctx context.Context) (model.LoadOutcome, error) {
	start := l.now()
	l.sink.LoadingStarted()
	l.log.Info("corpus load started", slog.Int("partitions", len(l.partitions)))

	outcome, err := l.fetchPartitions(ctx)
	if err != nil {
		var allFailed *internalErrors.AllPartitionsFailedError
		if !errors.As(err, &allFailed) {
			l.sink.LoadFailed(err)
			return model.LoadOutcome{}, err
		}
		l.log.Warn("no corpus partition could be loaded, trying legacy files",
			slog.Int("failed", len(allFailed.Failures)))

		outcome, err = l.fetchLegacy(ctx, allFailed)
		if err != nil {
			l.log.Error("corpus unavailable", slog.String("error", err.Error()))
			l.sink.LoadFailed(err)
			return model.LoadOutcome{}, err
		}
	}
	outcome.LoadedAt = l.now()

	if len(outcome.Entries) > 0 {
		l.mu.Lock()
		cached := outcome
		l.cached = &cached
		l.mu.Unlock()
	}

	l.log.Info("corpus load finished",
		slog.Int("entries", len(outcome.Entries)),
		slog.String("source", string(outcome.Source)),
		slog.Any("failed_partitions", outcome.FailedPartitions),
		slog.Duration("took", l.now().Sub(start)),
	)
	l.sink.LoadingFinished(len(outcome.Entries))
	return outcome, nil
}

type partitionResult struct {
	entries []model.WordEntry
	err     error
}

// fetchPartitions fetches every partition concurrently and joins the results
// in configured order. It fails only when no partition succeeded.
func (l *Loader) fetchPartitions(ctx context.Context) (model.LoadOutcome, error) {
	results := make([]partitionResult, len(l.partitions))

	var g errgroup.Group
	if l.maxConcurrent > 0 {
		g.SetLimit(l.maxConcurrent)
	}
	for i, id := range l.partitions {
		g.Go(func() error {
			fetchCtx := ctx
			if l.fetchTimeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, l.fetchTimeout)
				defer cancel()
			}
			entries, err := l.provider.FetchPartition(fetchCtx, id)
			results[i] = partitionResult{entries: entries, err: err}
			// Partition failures are recorded, not propagated, so one bad
			// partition never cancels the others.
			return nil
		})
	}
	_ = g.Wait()

	outcome := model.LoadOutcome{
		CountsByPartition: make(map[string]int),
		Source:            model.LoadSourcePartitions,
	}
	var failures []*internalErrors.PartitionFetchError
	total := 0
	for _, r := range results {
		total += len(r.entries)
	}
	outcome.Entries = make([]model.WordEntry, 0, total)

	for i, r := range results {
		id := l.partitions[i]
		if r.err != nil {
			fetchErr := internalErrors.NewPartitionFetchError(id, r.err)
			failures = append(failures, fetchErr)
			outcome.FailedPartitions = append(outcome.FailedPartitions, id)
			l.log.Warn("corpus partition failed", slog.String("partition", id), slog.String("error", r.err.Error()))
			continue
		}
		outcome.Entries = append(outcome.Entries, r.entries...)
		outcome.CountsByPartition[id] = len(r.entries)
	}

	if len(failures) == len(l.partitions) {
		return model.LoadOutcome{}, &internalErrors.AllPartitionsFailedError{Failures: failures}
	}
	return outcome, nil
}

func (l *Loader) fetchLegacy(ctx context.Context, partitionsErr error) (model.LoadOutcome, error) {
	fetchCtx := ctx
	if l.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.fetchTimeout)
		defer cancel()
	}

	entries, err := l.provider.FetchLegacy(fetchCtx)
	if err != nil {
		return model.LoadOutcome{}, internalErrors.NewUnavailableError(
			errors.Join(partitionsErr, fmt.Errorf("legacy fallback: %w", err)))
	}

	return model.LoadOutcome{
		Entries:           entries,
		CountsByPartition: map[string]int{l.legacyName: len(entries)},
		FailedPartitions:  append([]string(nil), l.partitions...),
		Source:            model.LoadSourceLegacy,
	}, nil
}
