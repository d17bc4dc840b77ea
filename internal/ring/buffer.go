// Package ring holds the fixed-capacity, newest-first store of normalized
// message records.
package ring

import (
	"sync"

	"github.com/waforge/gateway-go/internal/model"
)

// DefaultRecentLimit applies when Recent is called with a non-positive limit.
const DefaultRecentLimit = 50

type Buffer struct {
	mu       sync.RWMutex
	capacity int
	buf      []model.MessageRecord
	head     int
	size     int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{
		capacity: capacity,
		buf:      make([]model.MessageRecord, capacity),
	}
}

// Append inserts a record at the front. When the buffer is full the oldest
// record is overwritten. O(1).
func (b *Buffer) Append(record model.MessageRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.head = (b.head - 1 + b.capacity) % b.capacity
	b.buf[b.head] = record
	if b.size < b.capacity {
		b.size++
	}
}

// Recent returns up to limit records, newest first. A non-positive limit
// falls back to DefaultRecentLimit.
func (b *Buffer) Recent(limit int) []model.MessageRecord {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	n := limit
	if n > b.size {
		n = b.size
	}
	out := make([]model.MessageRecord, n)
	for i := 0; i < n; i++ {
		out[i] = b.buf[(b.head+i)%b.capacity]
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

func (b *Buffer) Capacity() int {
	return b.capacity
}
