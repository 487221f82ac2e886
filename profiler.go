package paint

import (
	"sync"
	"time"
)

// ProfilerCategory names what a profiler sample measured.
type ProfilerCategory int

const (
	// Painting covers painting every tile of one layer.
	Painting ProfilerCategory = iota

	// PaintingPerTile covers painting one tile, measured on the worker.
	PaintingPerTile
)

// String returns the category name.
func (c ProfilerCategory) String() string {
	switch c {
	case Painting:
		return "painting"
	case PaintingPerTile:
		return "painting-per-tile"
	default:
		return "unknown"
	}
}

// Profiler receives timing samples. Record is called from the task and
// from workers concurrently.
type Profiler interface {
	Record(category ProfilerCategory, d time.Duration)
}

// ProfileSummary aggregates the samples of one category.
type ProfileSummary struct {
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average sample, or 0 without samples.
func (s ProfileSummary) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// StatsProfiler is a Profiler that keeps per-category summaries.
//
// StatsProfiler is safe for concurrent use.
type StatsProfiler struct {
	mu    sync.Mutex
	stats map[ProfilerCategory]ProfileSummary
}

// NewStatsProfiler creates an empty profiler.
func NewStatsProfiler() *StatsProfiler {
	return &StatsProfiler{stats: make(map[ProfilerCategory]ProfileSummary)}
}

// Record implements Profiler.
func (p *StatsProfiler) Record(c ProfilerCategory, d time.Duration) {
	p.mu.Lock()
	s := p.stats[c]
	s.Count++
	s.Total += d
	s.Max = max(s.Max, d)
	p.stats[c] = s
	p.mu.Unlock()
}

// Summary returns the summary of category c.
func (p *StatsProfiler) Summary(c ProfilerCategory) ProfileSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats[c]
}

// profile runs fn and records its duration when p is non-nil.
func profile(p Profiler, c ProfilerCategory, fn func()) {
	if p == nil {
		fn()
		return
	}
	start := time.Now()
	fn()
	p.Record(c, time.Since(start))
}
