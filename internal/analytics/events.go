// Package analytics records what users search for. Events are aggregated
// in process for the stats endpoint and, when Kafka is configured, shipped
// in batches to the analytics topic.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventIndexBuild EventType = "index_build"
)

type SearchEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	TotalHits  int       `json:"total_hits"`
	Returned   int       `json:"returned"`
	TopDocIDs  []int     `json:"top_doc_ids,omitempty"`
	LatencyMs  int64     `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Fallback   bool      `json:"fallback"`
	LongQuery  bool      `json:"long_query"`
	Generation uint64    `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}

type IndexEvent struct {
	Type       EventType `json:"type"`
	Generation uint64    `json:"generation"`
	Documents  int       `json:"documents"`
	Terms      int       `json:"terms"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Tracker accepts SearchEvent and IndexEvent values. Implementations must
// not block the caller.
type Tracker interface {
	Track(event any)
}

// Trackers fans every event out to each member.
type Trackers []Tracker

func (ts Trackers) Track(event any) {
	for _, t := range ts {
		if t != nil {
			t.Track(event)
		}
	}
}
