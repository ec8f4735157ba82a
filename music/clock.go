package music

import (
	"container/heap"
	"time"
)

// Clock returns seconds elapsed since a reference instant.
type Clock interface {
	Now() float64
}

type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock only moves when told to.
type ManualClock struct {
	T float64
}

func (c *ManualClock) Now() float64 { return c.T }

func (c *ManualClock) Advance(d float64) { c.T += d }

// Owner tags queue entries with the subsystem that scheduled them.
type Owner int

const (
	OwnerScheduler Owner = iota
	OwnerRecorder
)

type timer struct {
	at    float64
	seq   uint64
	owner Owner
	fn    func()
	index int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	t := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	t.index = -1
	return t
}

// Queue is the virtual-clock timer list. Entries fire in (time, insertion)
// order when Run is called with a clock reading past their time.
type Queue struct {
	timers timerHeap
	seq    uint64
}

func (q *Queue) Schedule(owner Owner, at float64, fn func()) {
	q.seq++
	heap.Push(&q.timers, &timer{at: at, seq: q.seq, owner: owner, fn: fn})
}

// Cancel drops every pending entry of owner and returns how many it removed.
func (q *Queue) Cancel(owner Owner) int {
	kept := q.timers[:0]
	n := 0
	for _, t := range q.timers {
		if t.owner == owner {
			n++
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(q.timers); i++ {
		q.timers[i] = nil
	}
	q.timers = kept
	for i, t := range q.timers {
		t.index = i
	}
	heap.Init(&q.timers)
	return n
}

func (q *Queue) Pending(owner Owner) (n int) {
	for _, t := range q.timers {
		if t.owner == owner {
			n++
		}
	}
	return
}

func (q *Queue) Len() int { return len(q.timers) }

// Next is the fire time of the earliest entry.
func (q *Queue) Next() (float64, bool) {
	if len(q.timers) == 0 {
		return 0, false
	}
	return q.timers[0].at, true
}

// Run fires every entry due at now, including entries scheduled by the
// callbacks themselves, and returns how many fired.
func (q *Queue) Run(now float64) int {
	n := 0
	for len(q.timers) > 0 && q.timers[0].at <= now {
		t := heap.Pop(&q.timers).(*timer)
		t.fn()
		n++
	}
	return n
}
