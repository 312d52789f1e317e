// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package channel

import "sync"

// entry is one queued trace: its query key and encoded bytes.
type entry struct {
	key     string
	payload []byte
}

// size is the entry's contribution to queue and report byte counts.
func (e entry) size() int64 { return int64(len(e.key) + len(e.payload)) }

// queue is an unbounded FIFO. Bounding is the Channel's job; it checks
// the byte count before pushing.
type queue struct {
	mu      sync.Mutex
	entries []entry
}

func (q *queue) push(e entry) {
	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()
}

// pop removes the oldest entry. The boolean is false when the queue is
// empty.
func (q *queue) pop() (entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return entry{}, false
	}
	head := q.entries[0]
	q.entries[0] = entry{} // release payload for GC
	q.entries = q.entries[1:]
	return head, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
