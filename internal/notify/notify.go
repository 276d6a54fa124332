// Package notify delivers dictionary load-state changes and progress updates
// to whoever is presenting them. Delivery is fire-and-forget: a sink never
// blocks the caller and never reports failure back.
package notify

import (
	"time"

	"github.com/gcbaptista/go-lexicon/model"
)

// Sink receives load-state transitions and per-query progress updates.
type Sink interface {
	LoadingStarted()
	LoadingFinished(count int)
	LoadFailed(err error)
	ProgressUpdated(queryID string, stats model.ProgressStats)
}

// EventType names a notification.
type EventType string

const (
	EventLoadingStarted  EventType = "loading_started"
	EventLoadingFinished EventType = "loading_finished"
	EventLoadFailed      EventType = "load_failed"
	EventProgressUpdated EventType = "progress_updated"
)

// Event is the serializable form of a notification.
type Event struct {
	Type    EventType            `json:"type"`
	Count   int                  `json:"count,omitempty"`
	Error   string               `json:"error,omitempty"`
	QueryID string               `json:"query_id,omitempty"`
	Stats   *model.ProgressStats `json:"stats,omitempty"`
	At      time.Time            `json:"at"`
}

// Nop discards every notification.
type Nop struct{}

func (Nop) LoadingStarted()                             {}
func (Nop) LoadingFinished(int)                         {}
func (Nop) LoadFailed(error)                            {}
func (Nop) ProgressUpdated(string, model.ProgressStats) {}

// Multi fans every notification out to several sinks in order.
type Multi []Sink

func (m Multi) LoadingStarted() {
	for _, s := range m {
		s.LoadingStarted()
	}
}

func (m Multi) LoadingFinished(count int) {
	for _, s := range m {
		s.LoadingFinished(count)
	}
}

func (m Multi) LoadFailed(err error) {
	for _, s := range m {
		s.LoadFailed(err)
	}
}

func (m Multi) ProgressUpdated(queryID string, stats model.ProgressStats) {
	for _, s := range m {
		s.ProgressUpdated(queryID, stats)
	}
}
