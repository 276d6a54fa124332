// Package analytics records dictionary searches and summarizes them.
package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gcbaptista/go-lexicon/internal/persistence"
	"github.com/gcbaptista/go-lexicon/model"
)

const (
	maxEventsToKeep = 5000
	popularLimit    = 5
)

// Service implements search tracking and reporting. Events are kept in
// memory; a background flusher writes them to the store.
type Service struct {
	mutex   sync.RWMutex
	events  []model.SearchEvent
	flusher *persistence.Flusher
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*options)

type options struct {
	flushInterval time.Duration
}

// WithFlushInterval sets how long changes may stay unwritten.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) { o.flushInterval = d }
}

// NewService creates an analytics service, restoring events saved by a
// previous run. Close must be called to write the last events.
func NewService(ctx context.Context, store persistence.Store, logger *slog.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service{
		events: make([]model.SearchEvent, 0),
		log:    logger.With("component", "analytics"),
		now:    time.Now,
	}
	if _, err := store.Get(ctx, persistence.KeyAnalytics, &s.events); err != nil {
		return nil, err
	}
	s.flusher = persistence.NewFlusher(store, persistence.KeyAnalytics, o.flushInterval, s.snapshot, logger)
	return s, nil
}

func (s *Service) snapshot() any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]model.SearchEvent(nil), s.events...)
}

// TrackSearchEvent records a new search event. A zero Timestamp is set to
// the current time. The event is written to the store later.
func (s *Service) TrackSearchEvent(event model.SearchEvent) {
	s.mutex.Lock()
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events = append(s.events, event)

	// Keep only the latest events to prevent unbounded growth
	if len(s.events) > maxEventsToKeep {
		s.events = append([]model.SearchEvent(nil), s.events[len(s.events)-maxEventsToKeep:]...)
	}
	s.mutex.Unlock()

	s.flusher.Mark()
}

// Reset drops every recorded event.
func (s *Service) Reset(ctx context.Context) error {
	s.mutex.Lock()
	s.events = make([]model.SearchEvent, 0)
	s.mutex.Unlock()

	s.flusher.Mark()
	return s.flusher.Flush(ctx)
}

// Flush writes pending events now.
func (s *Service) Flush(ctx context.Context) error {
	return s.flusher.Flush(ctx)
}

// Close stops background writes after writing pending events.
func (s *Service) Close(ctx context.Context) error {
	return s.flusher.Close(ctx)
}

// GetDashboardData summarizes the last 24 hours, comparing them with the
// 24 hours before.
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	yesterday := now.Add(-24 * time.Hour)
	last24hEvents := filterEventsByTimeRange(s.events, yesterday, now.Add(time.Nanosecond))
	prev24hEvents := filterEventsByTimeRange(s.events, yesterday.Add(-24*time.Hour), yesterday)

	return model.AnalyticsDashboard{
		TotalSearches:            len(last24hEvents),
		SearchesChangePercent:    calculateChangePercent(len(last24hEvents), len(prev24hEvents)),
		HitRate:                  hitRate(last24hEvents),
		AvgResponseTime:          calculateAvgResponseTime(last24hEvents),
		ResponseTimeChange:       calculateResponseTimeChange(last24hEvents, prev24hEvents),
		Outcomes:                 outcomeCounts(last24hEvents),
		PopularSearches:          topQueries(last24hEvents, nil),
		TopMisses:                topQueries(last24hEvents, isMiss),
		SearchPerformance24h:     hourlyPerformance(last24hEvents),
		ResponseTimeDistribution: responseTimeDistribution(last24hEvents),
	}
}

// filterEventsByTimeRange returns events in [start, end).
func filterEventsByTimeRange(events []model.SearchEvent, start, end time.Time) []model.SearchEvent {
	var filtered []model.SearchEvent
	for _, event := range events {
		if !event.Timestamp.Before(start) && event.Timestamp.Before(end) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

func calculateChangePercent(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(current-previous) / float64(previous) * 100.0
}

// calculateAvgResponseTime returns the mean response time in microseconds.
func calculateAvgResponseTime(events []model.SearchEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	return (total / time.Duration(len(events))).Microseconds()
}

func calculateResponseTimeChange(current, previous []model.SearchEvent) string {
	currentAvg := calculateAvgResponseTime(current)
	previousAvg := calculateAvgResponseTime(previous)

	if previousAvg == 0 {
		return "stable"
	}

	change := float64(currentAvg-previousAvg) / float64(previousAvg)
	if change > 0.1 {
		return "up"
	} else if change < -0.1 {
		return "down"
	}
	return "stable"
}

func isMiss(event model.SearchEvent) bool {
	return event.Outcome == model.OutcomeMiss
}

// hitRate is the share of answered searches that found something.
// Searches made while the dictionary was unavailable are not counted.
func hitRate(events []model.SearchEvent) float64 {
	answered, hits := 0, 0
	for _, event := range events {
		switch event.Outcome {
		case model.OutcomeExact, model.OutcomeRelated:
			hits++
			answered++
		case model.OutcomeMiss:
			answered++
		}
	}
	if answered == 0 {
		return 0
	}
	return float64(hits) / float64(answered) * 100
}

func outcomeCounts(events []model.SearchEvent) map[model.SearchOutcome]int {
	counts := make(map[model.SearchOutcome]int)
	for _, event := range events {
		counts[event.Outcome]++
	}
	return counts
}

// topQueries returns the most frequent queries accepted by keep, most
// frequent first and ties broken alphabetically.
func topQueries(events []model.SearchEvent, keep func(model.SearchEvent) bool) []model.PopularSearch {
	queryCounts := make(map[string]int)
	for _, event := range events {
		if event.Query == "" || (keep != nil && !keep(event)) {
			continue
		}
		queryCounts[event.Query]++
	}

	popular := make([]model.PopularSearch, 0, len(queryCounts))
	for query, count := range queryCounts {
		popular = append(popular, model.PopularSearch{Query: query, SearchCount: count})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].SearchCount != popular[j].SearchCount {
			return popular[i].SearchCount > popular[j].SearchCount
		}
		return popular[i].Query < popular[j].Query
	})

	if len(popular) > popularLimit {
		popular = popular[:popularLimit]
	}
	return popular
}

func hourlyPerformance(events []model.SearchEvent) []model.SearchPerformanceHourly {
	hourlyData := make(map[int][]model.SearchEvent)
	for _, event := range events {
		hour := event.Timestamp.Hour()
		hourlyData[hour] = append(hourlyData[hour], event)
	}

	performance := make([]model.SearchPerformanceHourly, 0, 24)
	for hour := 0; hour < 24; hour++ {
		performance = append(performance, model.SearchPerformanceHourly{
			Hour:            hour,
			SearchCount:     len(hourlyData[hour]),
			AvgResponseTime: calculateAvgResponseTime(hourlyData[hour]),
		})
	}
	return performance
}

func responseTimeDistribution(events []model.SearchEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	if len(events) == 0 {
		return dist
	}

	for _, event := range events {
		switch {
		case event.ResponseTime < time.Millisecond:
			dist.Under1ms++
		case event.ResponseTime < 10*time.Millisecond:
			dist.Under10ms++
		case event.ResponseTime < 100*time.Millisecond:
			dist.Under100ms++
		default:
			dist.Over100ms++
		}
	}

	dist.PercentUnder10ms = float64(dist.Under1ms+dist.Under10ms) / float64(len(events)) * 100
	return dist
}
