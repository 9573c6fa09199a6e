package journal

import (
	"sync"
	"testing"
	"time"
)

func drainAll(t *testing.T, buf *Buffer[int]) []int {
	t.Helper()
	return buf.Drain(0)
}

func TestBuffer_PushDrainFIFO(t *testing.T) {
	buf := NewBuffer[int](10, 0)

	for i := 0; i < 5; i++ {
		if !buf.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}
	if buf.Len() != 5 {
		t.Errorf("Len() = %d, want 5", buf.Len())
	}

	got := drainAll(t, buf)
	for i, v := range got {
		if v != i {
			t.Errorf("item %d = %d, want %d", i, v, i)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("Len() = %d, want 0", buf.Len())
	}
	if buf.Drain(0) != nil {
		t.Error("Drain on empty buffer should return nil")
	}
}

func TestBuffer_GrowAt70Percent(t *testing.T) {
	buf := NewBuffer[int](10, 0)

	for i := 0; i < 7; i++ {
		buf.Push(i)
	}

	stats := buf.Stats()
	if stats.Capacity != 20 {
		t.Errorf("Capacity = %d, want 20 after 70%% fill", stats.Capacity)
	}
	if stats.Resizes != 1 {
		t.Errorf("Resizes = %d, want 1", stats.Resizes)
	}
}

func TestBuffer_GrowthClampedToMax(t *testing.T) {
	buf := NewBuffer[int](4, 10)

	for i := 0; i < 10; i++ {
		buf.Push(i)
	}

	if buf.Cap() != 10 {
		t.Errorf("Cap() = %d, want 10", buf.Cap())
	}
	if buf.Stats().Dropped != 0 {
		t.Errorf("Dropped = %d, want 0 while within max", buf.Stats().Dropped)
	}
}

func TestBuffer_DropsOldestAtMax(t *testing.T) {
	buf := NewBuffer[int](2, 4)

	for i := 0; i < 7; i++ {
		buf.Push(i)
	}

	stats := buf.Stats()
	if stats.Capacity != 4 {
		t.Errorf("Capacity = %d, want 4", stats.Capacity)
	}
	if stats.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3", stats.Dropped)
	}

	want := []int{3, 4, 5, 6}
	got := drainAll(t, buf)
	if len(got) != len(want) {
		t.Fatalf("Drain() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Drain() = %v, want %v", got, want)
			break
		}
	}
}

func TestBuffer_DrainPartial(t *testing.T) {
	buf := NewBuffer[int](10, 0)
	for i := 0; i < 10; i++ {
		buf.Push(i)
	}

	items := buf.Drain(5)
	if len(items) != 5 {
		t.Errorf("Drain(5) returned %d items, want 5", len(items))
	}
	for i, v := range items {
		if v != i {
			t.Errorf("items[%d] = %d, want %d", i, v, i)
		}
	}
	if buf.Len() != 5 {
		t.Errorf("Len() = %d, want 5", buf.Len())
	}

	stats := buf.Stats()
	if stats.Pushed != 10 || stats.Drained != 5 {
		t.Errorf("Pushed = %d, Drained = %d, want 10, 5", stats.Pushed, stats.Drained)
	}
}

func TestBuffer_WrapAroundGrow(t *testing.T) {
	buf := NewBuffer[int](10, 0)

	for i := 0; i < 6; i++ {
		buf.Push(i)
	}
	buf.Drain(5)

	// Tail wraps past the end, then the buffer grows with a wrapped layout
	for i := 6; i < 12; i++ {
		buf.Push(i)
	}
	if buf.Stats().Resizes != 1 {
		t.Fatalf("Resizes = %d, want 1", buf.Stats().Resizes)
	}

	want := []int{5, 6, 7, 8, 9, 10, 11}
	got := drainAll(t, buf)
	if len(got) != len(want) {
		t.Fatalf("Drain() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Drain() = %v, want %v", got, want)
			break
		}
	}
}

func TestBuffer_Close(t *testing.T) {
	buf := NewBuffer[int](10, 0)
	buf.Push(1)
	buf.Push(2)
	buf.Close()

	if buf.Push(3) {
		t.Error("Push should return false after Close")
	}
	if got := drainAll(t, buf); len(got) != 2 {
		t.Errorf("Drain() after Close = %v, want [1 2]", got)
	}
}

func TestBuffer_ReadySignals(t *testing.T) {
	buf := NewBuffer[int](10, 0)

	select {
	case <-buf.Ready():
		t.Fatal("Ready fired before any push")
	default:
	}

	buf.Push(1)
	buf.Push(2)

	select {
	case <-buf.Ready():
	case <-time.After(time.Second):
		t.Fatal("Ready did not fire after push")
	}
}

func TestBuffer_ConcurrentPushDrain(t *testing.T) {
	buf := NewBuffer[int](8, 0)
	const numItems = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < numItems; i++ {
			buf.Push(i)
		}
	}()

	var received []int
	deadline := time.After(5 * time.Second)
	for len(received) < numItems {
		select {
		case <-buf.Ready():
			received = append(received, buf.Drain(0)...)
		case <-deadline:
			t.Fatalf("received %d of %d items", len(received), numItems)
		}
	}
	wg.Wait()

	for i, v := range received {
		if v != i {
			t.Fatalf("received[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestNewBuffer_MinCapacity(t *testing.T) {
	if got := NewBuffer[int](0, 0).Cap(); got != 1 {
		t.Errorf("Cap() = %d, want 1 for initial capacity 0", got)
	}
	if got := NewBuffer[int](-5, 0).Cap(); got != 1 {
		t.Errorf("Cap() = %d, want 1 for negative initial capacity", got)
	}
	if got := NewBuffer[int](8, 2).Stats(); got.Capacity != 8 {
		t.Errorf("Capacity = %d, want 8 when max is below initial", got.Capacity)
	}
}
