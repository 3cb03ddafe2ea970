// Package metrics provides an in-memory store for generation statistics:
// per-operation records in a circular buffer plus running aggregates, read
// by the stats endpoint.
package metrics

import (
	"sync"
	"time"
)

// Operation type labels recorded by the pipeline.
const (
	OpGenerateImages  = "generate_images"
	OpGenerateCopy    = "generate_copy"
	OpRegenerateImage = "regenerate_image"
	OpRefineCopy      = "refine_copy"
)

// Record is one completed pipeline operation.
type Record struct {
	Type      string        `json:"type"`
	Status    string        `json:"status"` // "success" or "error"
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	// Scenes and Placeholders are set for image batch operations only.
	Scenes       int    `json:"scenes,omitempty"`
	Placeholders int    `json:"placeholders,omitempty"`
	ErrorKind    string `json:"errorKind,omitempty"`
}

// TypeStats aggregates all records of one operation type.
type TypeStats struct {
	Count        int64         `json:"count"`
	Succeeded    int64         `json:"succeeded"`
	Failed       int64         `json:"failed"`
	Placeholders int64         `json:"placeholders"`
	AvgDuration  time.Duration `json:"avgDuration"`

	totalDuration time.Duration
}

// Snapshot is the full stats picture returned to the front end.
type Snapshot struct {
	Uptime  time.Duration        `json:"uptime"`
	PerType map[string]TypeStats `json:"perType"`
	Recent  []Record             `json:"recent"`
}

// Store keeps recent records in a fixed-size ring and running aggregates
// per operation type. Thread-safe.
type Store struct {
	mu sync.RWMutex

	records []Record
	cap     int
	head    int
	size    int

	perType   map[string]*TypeStats
	startTime time.Time
}

// NewStore creates a store retaining the given number of recent records.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 100
	}
	return &Store{
		records:   make([]Record, capacity),
		cap:       capacity,
		perType:   make(map[string]*TypeStats),
		startTime: time.Now(),
	}
}

// Add records one completed operation.
func (s *Store) Add(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[s.head] = rec
	s.head = (s.head + 1) % s.cap
	if s.size < s.cap {
		s.size++
	}

	stats := s.perType[rec.Type]
	if stats == nil {
		stats = &TypeStats{}
		s.perType[rec.Type] = stats
	}
	stats.Count++
	if rec.Status == "success" {
		stats.Succeeded++
	} else {
		stats.Failed++
	}
	stats.Placeholders += int64(rec.Placeholders)
	stats.totalDuration += rec.Duration
	stats.AvgDuration = stats.totalDuration / time.Duration(stats.Count)
}

// Snapshot returns uptime, aggregates, and up to limit recent records,
// newest first.
func (s *Store) Snapshot(limit int) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 0 || limit > s.size {
		limit = s.size
	}
	recent := make([]Record, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.head - 1 - i + s.cap) % s.cap
		recent = append(recent, s.records[idx])
	}

	perType := make(map[string]TypeStats, len(s.perType))
	for name, stats := range s.perType {
		perType[name] = *stats
	}

	return Snapshot{
		Uptime:  time.Since(s.startTime),
		PerType: perType,
		Recent:  recent,
	}
}

// Count returns the number of retained records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}
