package sched

import (
	"testing"
	"time"
)

func fixedQueue(start time.Time) *Queue {
	q := New()
	q.now = func() time.Time { return start }
	return q
}

func TestQueueRunDueOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(start)

	var order []string
	q.Schedule(200*time.Millisecond, func() { order = append(order, "b") })
	q.Schedule(100*time.Millisecond, func() { order = append(order, "a") })
	q.Schedule(300*time.Millisecond, func() { order = append(order, "c") })

	ran := q.RunDue(start.Add(250 * time.Millisecond))
	if ran != 2 {
		t.Fatalf("RunDue ran=%d, want 2", ran)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order=%v, want [a b]", order)
	}
	if q.Len() != 1 {
		t.Fatalf("Len()=%d, want 1", q.Len())
	}
}

func TestQueueRunDueBoundaryInclusive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(start)

	fired := false
	q.Schedule(time.Second, func() { fired = true })

	if ran := q.RunDue(start.Add(time.Second - time.Nanosecond)); ran != 0 {
		t.Fatalf("RunDue before due ran=%d, want 0", ran)
	}
	if ran := q.RunDue(start.Add(time.Second)); ran != 1 {
		t.Fatalf("RunDue at due ran=%d, want 1", ran)
	}
	if !fired {
		t.Fatal("task did not fire at its due time")
	}
}

func TestQueueFIFOForEqualDueTimes(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(start)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Schedule(time.Second, func() { order = append(order, i) })
	}

	q.RunDue(start.Add(time.Second))
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d]=%d, want %d", i, got, i)
		}
	}
}

func TestQueueNextDue(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(start)

	if _, ok := q.NextDue(); ok {
		t.Fatal("NextDue on empty queue ok=true, want false")
	}

	q.Schedule(2*time.Second, func() {})
	q.Schedule(time.Second, func() {})

	due, ok := q.NextDue()
	if !ok {
		t.Fatal("NextDue ok=false, want true")
	}
	if want := start.Add(time.Second); !due.Equal(want) {
		t.Fatalf("NextDue=%v, want %v", due, want)
	}
}

func TestQueueTaskMayReschedule(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := fixedQueue(start)

	fires := 0
	var tick func()
	tick = func() {
		fires++
		q.Schedule(time.Second, tick)
	}
	q.Schedule(time.Second, tick)

	// A task rescheduling itself must not run again in the same pass.
	if ran := q.RunDue(start.Add(5 * time.Second)); ran != 1 {
		t.Fatalf("RunDue ran=%d, want 1", ran)
	}
	if fires != 1 {
		t.Fatalf("fires=%d, want 1", fires)
	}
	if q.Len() != 1 {
		t.Fatalf("Len()=%d, want 1", q.Len())
	}
}
