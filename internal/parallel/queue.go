// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

// WorkQueue hands out the tiles of one render, each exactly once.
//
// Tiles are distributed round-robin across per-worker shards. A worker pops
// from its own shard first and steals from the others when it runs dry, so a
// slow or failed worker never strands tiles. Shards are buffered channels
// that are filled and closed up front, which makes every pop a non-blocking
// atomic receive.
//
// Thread safety: WorkQueue is safe for concurrent use.
type WorkQueue struct {
	// shards holds the per-worker queues.
	shards []chan Tile

	// total is the number of tiles the queue was created with.
	total int
}

// NewWorkQueue creates a queue over tiles split into the given number of shards.
// If shards is 0 or negative, a single shard is used.
func NewWorkQueue(tiles []Tile, shards int) *WorkQueue {
	if shards <= 0 {
		shards = 1
	}

	per := (len(tiles) + shards - 1) / shards
	q := &WorkQueue{
		shards: make([]chan Tile, shards),
		total:  len(tiles),
	}
	for i := range q.shards {
		q.shards[i] = make(chan Tile, per)
	}

	// Round-robin keeps each shard in row-major order.
	for i, t := range tiles {
		q.shards[i%shards] <- t
	}
	for _, s := range q.shards {
		close(s)
	}

	return q
}

// Pop removes one tile, preferring the given shard.
// Returns false once every shard is empty.
func (q *WorkQueue) Pop(shard int) (Tile, bool) {
	n := len(q.shards)
	own := shard % n
	if own < 0 {
		own += n
	}

	// Own shard first, then try each other shard once
	for i := range n {
		if t, ok := <-q.shards[(own+i)%n]; ok {
			return t, true
		}
	}
	return Tile{}, false
}

// Len returns the number of tiles not yet popped.
// This is an approximation as shards can change while iterating.
func (q *WorkQueue) Len() int {
	n := 0
	for _, s := range q.shards {
		n += len(s)
	}
	return n
}

// Total returns the number of tiles the queue was created with.
func (q *WorkQueue) Total() int {
	return q.total
}

// Shards returns the number of shards.
func (q *WorkQueue) Shards() int {
	return len(q.shards)
}
