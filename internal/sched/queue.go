package sched

import (
	"container/heap"
	"time"
)

// Queue is a delayed-task queue owned by a single goroutine. Tasks are
// scheduled relative to the wall clock and released by RunDue; the queue
// never sleeps or spawns goroutines, so the owning loop stays the only
// place where tasks execute.
type Queue struct {
	tasks taskHeap
	seq   uint64
	now   func() time.Time
}

type task struct {
	due time.Time
	seq uint64
	run func()
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{now: time.Now}
}

// Schedule enqueues run to fire after delay. A non-positive delay makes
// the task due immediately on the next RunDue.
func (q *Queue) Schedule(delay time.Duration, run func()) {
	if run == nil {
		return
	}
	q.seq++
	heap.Push(&q.tasks, task{due: q.now().Add(delay), seq: q.seq, run: run})
}

// NextDue reports the due time of the earliest pending task.
func (q *Queue) NextDue() (time.Time, bool) {
	if len(q.tasks) == 0 {
		return time.Time{}, false
	}
	return q.tasks[0].due, true
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// RunDue executes every task due at or before now, in due order with
// FIFO tie-breaking, and returns how many ran. The due set is collected
// before anything runs, so a task that schedules follow-up work always
// defers it to a later pass and cannot livelock the loop.
func (q *Queue) RunDue(now time.Time) int {
	var due []task
	for len(q.tasks) > 0 && !q.tasks[0].due.After(now) {
		due = append(due, heap.Pop(&q.tasks).(task))
	}
	for _, next := range due {
		next.run()
	}
	return len(due)
}

type taskHeap []task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
