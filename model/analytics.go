package model

import "time"

// SearchOutcome classifies how a search was answered.
type SearchOutcome string

const (
	OutcomeExact       SearchOutcome = "exact"
	OutcomeRelated     SearchOutcome = "related" // No exact headword, but prefix or fuzzy matches
	OutcomeMiss        SearchOutcome = "miss"
	OutcomeUnavailable SearchOutcome = "unavailable"
)

// SearchEvent is one recorded search.
type SearchEvent struct {
	Query        string        `json:"query"`
	Outcome      SearchOutcome `json:"outcome"`
	ResultCount  int           `json:"result_count"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PopularSearch is a query and how often it was searched.
type PopularSearch struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
}

// SearchPerformanceHourly aggregates one hour of searches.
type SearchPerformanceHourly struct {
	Hour            int   `json:"hour"`
	SearchCount     int   `json:"search_count"`
	AvgResponseTime int64 `json:"avg_response_time"` // microseconds
}

// ResponseTimeDistribution buckets searches by response time.
type ResponseTimeDistribution struct {
	Under1ms         int     `json:"under_1ms"`
	Under10ms        int     `json:"under_10ms"`
	Under100ms       int     `json:"under_100ms"`
	Over100ms        int     `json:"over_100ms"`
	PercentUnder10ms float64 `json:"percent_under_10ms"`
}

// AnalyticsDashboard summarizes recent searches.
type AnalyticsDashboard struct {
	TotalSearches            int                       `json:"total_searches"` // Last 24 hours
	SearchesChangePercent    float64                   `json:"searches_change_percent"`
	HitRate                  float64                   `json:"hit_rate"`
	AvgResponseTime          int64                     `json:"avg_response_time"` // microseconds
	ResponseTimeChange       string                    `json:"response_time_change"`
	Outcomes                 map[SearchOutcome]int     `json:"outcomes"`
	PopularSearches          []PopularSearch           `json:"popular_searches"`
	TopMisses                []PopularSearch           `json:"top_misses"`
	SearchPerformance24h     []SearchPerformanceHourly `json:"search_performance_24h"`
	ResponseTimeDistribution ResponseTimeDistribution  `json:"response_time_distribution"`
}
