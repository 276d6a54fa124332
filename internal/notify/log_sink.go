package notify

import (
	"log/slog"

	"github.com/gcbaptista/go-lexicon/model"
)

// LogSink writes notifications to a structured logger.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger means slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{log: logger.With("component", "notify")}
}

func (s *LogSink) LoadingStarted() {
	s.log.Info("dictionary loading started")
}

func (s *LogSink) LoadingFinished(count int) {
	s.log.Info("dictionary loading finished", slog.Int("count", count))
}

func (s *LogSink) LoadFailed(err error) {
	s.log.Error("dictionary load failed", slog.String("error", err.Error()))
}

func (s *LogSink) ProgressUpdated(queryID string, stats model.ProgressStats) {
	s.log.Debug("progress updated",
		slog.String("query_id", queryID),
		slog.Int("learned", stats.LearnedCount),
		slog.Int("mastered", stats.MasteredCount),
		slog.Int("total", stats.TotalCorpusCount),
	)
}
