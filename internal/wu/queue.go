package wu

import (
	"slices"
	"sort"
)

type entry struct {
	cube     Cube
	variance float64
	terminal bool
}

// queue is the worklist of cubes. Terminal cubes, which cannot be split
// any further, sit at the front. Live cubes follow in ascending variance so
// the tail is always the next cube to split.
type queue struct {
	entries  []entry
	terminal int
}

func newQueue(capacity int) *queue {
	return &queue{entries: make([]entry, 0, capacity)}
}

// Len counts every cube in the queue, terminal or not.
func (q *queue) Len() int {
	return len(q.entries)
}

// push inserts a live cube at its sorted position. Among equal variances
// the cube queued first is popped first.
func (q *queue) push(c Cube, variance float64) {
	live := q.entries[q.terminal:]
	i := sort.Search(len(live), func(i int) bool {
		return live[i].variance >= variance
	})
	q.entries = slices.Insert(q.entries, q.terminal+i, entry{cube: c, variance: variance})
}

// retire inserts a cube that will never be split.
func (q *queue) retire(c Cube) {
	q.entries = slices.Insert(q.entries, 0, entry{cube: c, terminal: true})
	q.terminal++
}

// pop removes the live cube with the highest variance. It reports false
// once only terminal cubes remain.
func (q *queue) pop() (Cube, bool) {
	n := len(q.entries)
	if n == q.terminal {
		return Cube{}, false
	}
	e := q.entries[n-1]
	q.entries = q.entries[:n-1]
	return e.cube, true
}

func (q *queue) cubes() []Cube {
	out := make([]Cube, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.cube
	}
	return out
}
