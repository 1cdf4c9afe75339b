package recorder

import "testing"

func TestQueue_PushPopOrder(t *testing.T) {
	q := newQueue[int](8)

	for i := 1; i <= 5; i++ {
		if !q.push(i) {
			t.Fatalf("push(%d) returned false", i)
		}
	}
	if q.len() != 5 {
		t.Errorf("len = %d, want 5", q.len())
	}

	for i := 1; i <= 5; i++ {
		got, ok := q.tryPop()
		if !ok || got != i {
			t.Errorf("tryPop = %d %v, want %d true", got, ok, i)
		}
	}
	if _, ok := q.tryPop(); ok {
		t.Error("tryPop on empty queue should return false")
	}
}

func TestQueue_GrowsAtThreshold(t *testing.T) {
	q := newQueue[int](10)

	// The ring doubles when it would reach 70% of capacity.
	for i := 0; i < 7; i++ {
		q.push(i)
	}
	if q.cap() <= 10 {
		t.Errorf("cap = %d, want grown beyond 10", q.cap())
	}
	if q.len() != 7 {
		t.Errorf("len = %d, want 7", q.len())
	}
}

func TestQueue_GrowPreservesWrappedOrder(t *testing.T) {
	q := newQueue[int](8)

	// Wrap the ring: fill partway, pop, then push past the old tail.
	for i := 0; i < 4; i++ {
		q.push(i)
	}
	for i := 0; i < 4; i++ {
		q.tryPop()
	}
	for i := 10; i < 20; i++ {
		q.push(i)
	}

	for want := 10; want < 20; want++ {
		got, ok := q.tryPop()
		if !ok || got != want {
			t.Fatalf("tryPop = %d %v, want %d true", got, ok, want)
		}
	}
}

func TestQueue_Drain(t *testing.T) {
	q := newQueue[int](8)
	for i := 0; i < 5; i++ {
		q.push(i)
	}

	first := q.drain(3)
	if len(first) != 3 || first[0] != 0 || first[2] != 2 {
		t.Errorf("drain(3) = %v, want [0 1 2]", first)
	}

	rest := q.drain(0)
	if len(rest) != 2 || rest[0] != 3 || rest[1] != 4 {
		t.Errorf("drain(0) = %v, want [3 4]", rest)
	}

	if q.drain(0) != nil {
		t.Error("drain on empty queue should return nil")
	}
}

func TestQueue_ClosedRejectsPush(t *testing.T) {
	q := newQueue[int](4)
	q.push(1)
	q.close()

	if q.push(2) {
		t.Error("push after close should return false")
	}

	// Items queued before close stay readable.
	if got, ok := q.tryPop(); !ok || got != 1 {
		t.Errorf("tryPop = %d %v, want 1 true", got, ok)
	}
}
