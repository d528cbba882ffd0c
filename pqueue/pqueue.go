// Package pqueue implements a stable binary min-heap over lexicographic
// key tuples, with a monotonically increasing insertion counter as the
// final tiebreaker so equal-key entries pop in insertion order.
package pqueue

import "container/heap"

// Key is a fixed-arity lexicographic priority. Entries compare component
// by component, in order; the meeting search uses
// (elapsed_sec, arrival_abs_sec, dist_to_midpoint_m, to_stop) as described
// by the design's priority shape — to_stop is carried as a string tail so
// string-keyed stops still sort deterministically after the numeric
// components tie.
type Key struct {
	Elapsed     float64
	ArrivalAbs  float64
	MidpointDst float64
	ToStop      string
}

// Less reports whether k sorts before other, comparing components in
// order.
func (k Key) Less(other Key) bool {
	if k.Elapsed != other.Elapsed {
		return k.Elapsed < other.Elapsed
	}
	if k.ArrivalAbs != other.ArrivalAbs {
		return k.ArrivalAbs < other.ArrivalAbs
	}
	if k.MidpointDst != other.MidpointDst {
		return k.MidpointDst < other.MidpointDst
	}
	return k.ToStop < other.ToStop
}

type entry struct {
	key     Key
	payload any
	seq     uint64
}

type innerHeap []entry

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool {
	if h[i].key != h[j].key {
		return h[i].key.Less(h[j].key)
	}
	return h[i].seq < h[j].seq
}

func (h innerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *innerHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Queue is a stable min-heap: push(key, payload), pop, peek, len, all
// O(log n) except len/peek which are O(1).
type Queue struct {
	h       innerHeap
	counter uint64
}

// New returns an empty queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.h)
	return q
}

// Push inserts payload under key. Stable: among equal keys, earlier
// pushes pop first.
func (q *Queue) Push(key Key, payload any) {
	heap.Push(&q.h, entry{key: key, payload: payload, seq: q.counter})
	q.counter++
}

// Pop removes and returns the minimum entry. Panics if the queue is
// empty — callers must check Len first.
func (q *Queue) Pop() (Key, any) {
	e := heap.Pop(&q.h).(entry)
	return e.key, e.payload
}

// Peek returns the minimum entry without removing it, and whether the
// queue was non-empty.
func (q *Queue) Peek() (Key, any, bool) {
	if len(q.h) == 0 {
		return Key{}, nil, false
	}
	return q.h[0].key, q.h[0].payload, true
}

// Len returns the number of entries in the queue.
func (q *Queue) Len() int {
	return len(q.h)
}
