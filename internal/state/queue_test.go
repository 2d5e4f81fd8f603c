package state

import (
	"slices"
	"sync"
	"testing"
)

func TestQueue_NewestFirst(t *testing.T) {
	q := NewQueue[int](5)

	for i := 1; i <= 3; i++ {
		if q.Push(i) {
			t.Fatalf("Push(%d) reported eviction on non-full queue", i)
		}
	}

	if got := q.Items(); !slices.Equal(got, []int{3, 2, 1}) {
		t.Errorf("Items() = %v, want [3 2 1]", got)
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
}

func TestQueue_EvictsOldest(t *testing.T) {
	q := NewQueue[int](5)

	for i := 1; i <= 5; i++ {
		q.Push(i)
	}
	if !q.Push(6) {
		t.Error("Push(6) should report eviction")
	}

	got := q.Items()
	if !slices.Equal(got, []int{6, 5, 4, 3, 2}) {
		t.Errorf("Items() = %v, want [6 5 4 3 2]", got)
	}
	if slices.Contains(got, 1) {
		t.Error("oldest item should be evicted")
	}

	stats := q.Stats()
	if stats.Count != 5 || stats.Capacity != 5 {
		t.Errorf("Stats = %+v, want Count=5 Capacity=5", stats)
	}
	if stats.TotalPushed != 6 || stats.Evicted != 1 {
		t.Errorf("Stats = %+v, want TotalPushed=6 Evicted=1", stats)
	}
}

func TestQueue_NeverExceedsCapacity(t *testing.T) {
	q := NewQueue[int](5)

	for i := 0; i < 100; i++ {
		q.Push(i)
		if q.Len() > 5 {
			t.Fatalf("Len() = %d after %d pushes, want <= 5", q.Len(), i+1)
		}
	}

	if got := q.Items(); !slices.Equal(got, []int{99, 98, 97, 96, 95}) {
		t.Errorf("Items() = %v", got)
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue[string](2)
	q.Push("a")
	q.Push("b")
	q.Push("c")
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", q.Len())
	}
	if len(q.Items()) != 0 {
		t.Errorf("Items() = %v after Clear, want empty", q.Items())
	}

	q.Push("d")
	if got := q.Items(); !slices.Equal(got, []string{"d"}) {
		t.Errorf("Items() = %v, want [d]", got)
	}
}

func TestQueue_MinCapacity(t *testing.T) {
	q := NewQueue[int](0)
	if q.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", q.Cap())
	}
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := NewQueue[int](5)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(n*100 + j)
			}
		}(i)
	}
	wg.Wait()

	if q.Len() != 5 {
		t.Errorf("Len() = %d, want 5", q.Len())
	}
	if q.Stats().TotalPushed != 1000 {
		t.Errorf("TotalPushed = %d, want 1000", q.Stats().TotalPushed)
	}
}
