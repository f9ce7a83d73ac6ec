package queue_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/sonroyaalmerol/torabot/internal/queue"
)

func TestEnqueueOrderAndLen(t *testing.T) {
	t.Parallel()

	q := queue.New[string]()
	for _, v := range []string{"a", "b", "c"} {
		q.Enqueue(v)
	}

	if got := q.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	got := q.Slice(0, q.Len())
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Slice()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDequeueWaitReturnsHead(t *testing.T) {
	t.Parallel()

	q := queue.New[int]()
	q.Enqueue(1)
	q.Enqueue(2)

	v, err := q.DequeueWait(context.Background())
	if err != nil {
		t.Fatalf("DequeueWait() error: %v", err)
	}
	if v != 1 {
		t.Errorf("DequeueWait() = %d, want 1", v)
	}
	if q.Len() != 1 {
		t.Errorf("Len() after dequeue = %d, want 1", q.Len())
	}
}

func TestDequeueWaitBlocksUntilEnqueue(t *testing.T) {
	t.Parallel()

	q := queue.New[string]()
	got := make(chan string, 1)

	go func() {
		v, err := q.DequeueWait(context.Background())
		if err != nil {
			t.Errorf("DequeueWait() error: %v", err)
		}
		got <- v
	}()

	// give the waiter time to block
	time.Sleep(20 * time.Millisecond)
	q.Enqueue("x")

	select {
	case v := <-got:
		if v != "x" {
			t.Errorf("DequeueWait() = %q, want %q", v, "x")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("DequeueWait did not wake after Enqueue")
	}
}

func TestDequeueWaitCancellation(t *testing.T) {
	t.Parallel()

	q := queue.New[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := q.DequeueWait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("DequeueWait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestRemoveAt(t *testing.T) {
	t.Parallel()

	q := queue.New[string]()
	for _, v := range []string{"a", "b", "c"} {
		q.Enqueue(v)
	}

	if err := q.RemoveAt(1); err != nil {
		t.Fatalf("RemoveAt(1) error: %v", err)
	}
	got := q.Slice(0, q.Len())
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("after RemoveAt(1): %v, want [a c]", got)
	}
}

func TestRemoveAtOutOfRange(t *testing.T) {
	t.Parallel()

	q := queue.New[string]()
	q.Enqueue("a")

	for _, i := range []int{-1, 1, 5} {
		if err := q.RemoveAt(i); !errors.Is(err, queue.ErrOutOfRange) {
			t.Errorf("RemoveAt(%d) error = %v, want ErrOutOfRange", i, err)
		}
	}
	if q.Len() != 1 {
		t.Errorf("queue modified by failed RemoveAt: Len() = %d, want 1", q.Len())
	}
}

func TestShufflePreservesContents(t *testing.T) {
	t.Parallel()

	q := queue.New[string]()
	want := []string{"a", "b", "c", "d", "e"}
	for _, v := range want {
		q.Enqueue(v)
	}

	q.Shuffle()

	got := q.Slice(0, q.Len())
	if len(got) != len(want) {
		t.Fatalf("Len() after shuffle = %d, want %d", len(got), len(want))
	}
	sort.Strings(got)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("shuffle changed contents: %v", got)
			break
		}
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	q := queue.New[int]()
	q.Enqueue(1)
	q.Enqueue(2)
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", q.Len())
	}
}

func TestSliceClamping(t *testing.T) {
	t.Parallel()

	q := queue.New[int]()
	for i := range 5 {
		q.Enqueue(i)
	}

	if got := q.Slice(3, 99); len(got) != 2 {
		t.Errorf("Slice(3, 99) len = %d, want 2", len(got))
	}
	if got := q.Slice(7, 9); len(got) != 0 {
		t.Errorf("Slice(7, 9) len = %d, want 0", len(got))
	}
	if got := q.Slice(-2, 2); len(got) != 2 {
		t.Errorf("Slice(-2, 2) len = %d, want 2", len(got))
	}
}

func TestConcurrentMutation(t *testing.T) {
	t.Parallel()

	q := queue.New[int]()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := range 100 {
			q.Enqueue(i)
		}
	}()

	for range 100 {
		if _, err := q.DequeueWait(context.Background()); err != nil {
			t.Fatalf("DequeueWait() error: %v", err)
		}
	}
	<-done

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}
