package buffermap

import (
	"image"

	"github.com/gogpu/paint/layers"
)

// DefaultBudget is the default byte budget of a BufferMap.
const DefaultBudget = 10_000_000

// sizeKey packs a pixel size into a map key.
type sizeKey uint64

func keyOf(size image.Point) sizeKey {
	return sizeKey(uint64(uint32(size.X))<<32 | uint64(uint32(size.Y))) //nolint:gosec // tile sizes are non-negative
}

// entry is the stack of pooled buffers of one size.
type entry struct {
	node    *lruNode[sizeKey]
	buffers []*layers.LayerBuffer
}

// Stats reports cache activity since creation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Inserts   uint64
	Evictions uint64

	// PeakBytes is the largest total size the cache reached.
	PeakBytes int
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// BufferMap pools layer buffers by pixel size under a byte budget.
type BufferMap struct {
	entries map[sizeKey]*entry
	lru     lruList[sizeKey]
	count   int
	mem     int
	budget  int
	stats   Stats
}

// New creates a buffer map holding at most budget bytes. A budget of 0
// or less selects DefaultBudget.
func New(budget int) *BufferMap {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &BufferMap{
		entries: make(map[sizeKey]*entry),
		budget:  budget,
	}
}

// Find removes and returns a pooled buffer of the given size. The caller
// must re-stamp the buffer's placement and content age before use.
func (m *BufferMap) Find(size image.Point) (*layers.LayerBuffer, bool) {
	key := keyOf(size)
	e, ok := m.entries[key]
	if !ok || len(e.buffers) == 0 {
		m.stats.Misses++
		return nil, false
	}

	last := len(e.buffers) - 1
	buf := e.buffers[last]
	e.buffers[last] = nil
	e.buffers = e.buffers[:last]
	m.count--
	m.mem -= buf.ByteSize()

	if len(e.buffers) == 0 {
		m.removeEntry(key, e)
	} else {
		m.lru.MoveToFront(e.node)
	}
	m.stats.Hits++
	return buf, true
}

// Insert adds buf to the pool, taking ownership of it. If the pool goes
// over budget, buffers of the least recently used size are destroyed
// until it fits, possibly including buf itself.
func (m *BufferMap) Insert(buf *layers.LayerBuffer) {
	if buf == nil {
		return
	}
	key := keyOf(buf.Size())
	e, ok := m.entries[key]
	if !ok {
		e = &entry{node: m.lru.PushFront(key)}
		m.entries[key] = e
	} else {
		m.lru.MoveToFront(e.node)
	}
	e.buffers = append(e.buffers, buf)
	m.count++
	m.mem += buf.ByteSize()
	m.stats.Inserts++
	m.stats.PeakBytes = max(m.stats.PeakBytes, m.mem)

	for m.mem > m.budget {
		if !m.evictOne() {
			break
		}
	}
}

// evictOne destroys one buffer of the least recently used size.
func (m *BufferMap) evictOne() bool {
	key, ok := m.lru.Oldest()
	if !ok {
		return false
	}
	e := m.entries[key]
	last := len(e.buffers) - 1
	victim := e.buffers[last]
	e.buffers[last] = nil
	e.buffers = e.buffers[:last]
	m.count--
	m.mem -= victim.ByteSize()
	victim.Destroy()
	m.stats.Evictions++

	if len(e.buffers) == 0 {
		m.removeEntry(key, e)
	}
	return true
}

func (m *BufferMap) removeEntry(key sizeKey, e *entry) {
	m.lru.Remove(e.node)
	delete(m.entries, key)
}

// Clear destroys every pooled buffer.
func (m *BufferMap) Clear() {
	for _, e := range m.entries {
		for _, buf := range e.buffers {
			buf.Destroy()
		}
	}
	clear(m.entries)
	m.lru.Clear()
	m.count = 0
	m.mem = 0
}

// Mem returns the total byte size of pooled buffers.
func (m *BufferMap) Mem() int {
	return m.mem
}

// Budget returns the byte budget.
func (m *BufferMap) Budget() int {
	return m.budget
}

// Len returns the number of pooled buffers.
func (m *BufferMap) Len() int {
	return m.count
}

// Sizes returns the number of distinct pooled sizes.
func (m *BufferMap) Sizes() int {
	return len(m.entries)
}

// Stats returns cache statistics.
func (m *BufferMap) Stats() Stats {
	return m.stats
}
