package status

import "testing"

func TestWhenReady_DeferredUntilConnected(t *testing.T) {
	tr := NewTracker(nil)

	runs := 0
	tr.WhenReady("room", func() { runs++ })

	if runs != 0 {
		t.Fatalf("runs = %d before connect, want 0", runs)
	}
	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 pending gate", tr.Len())
	}

	tr.Notify(true)
	if runs != 1 {
		t.Fatalf("runs = %d after connect, want 1", runs)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d after firing, want 0", tr.Len())
	}

	// Disconnect and reconnect must not run it again
	tr.Notify(false)
	tr.Notify(true)
	if runs != 1 {
		t.Errorf("runs = %d after reconnect, want 1", runs)
	}
}

func TestWhenReady_AlreadyConnected(t *testing.T) {
	tr := NewTracker(nil)
	tr.Notify(true)

	runs := 0
	tr.WhenReady("room", func() { runs++ })

	if runs != 1 {
		t.Errorf("runs = %d, want 1 (immediate)", runs)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tr.Len())
	}
}

func TestWhenReady_RearmFromInside(t *testing.T) {
	tr := NewTracker(nil)

	var order []string
	tr.WhenReady("room", func() {
		order = append(order, "first")
		// Re-arm under the same id while the first gate is firing
		tr.WhenReady("room", func() { order = append(order, "second") })
	})

	tr.Notify(true)

	// Still connected, so the re-armed gate fires immediately
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tr.Len())
	}
}

func TestWhenReady_ReplacedBeforeFiring(t *testing.T) {
	tr := NewTracker(nil)

	var fired []string
	tr.WhenReady("room", func() { fired = append(fired, "old") })
	tr.WhenReady("room", func() { fired = append(fired, "new") })

	tr.Notify(true)

	if len(fired) != 1 || fired[0] != "new" {
		t.Errorf("fired = %v, want [new]", fired)
	}
}

func TestWhenReady_DoesNotDropOtherListenerWithSameID(t *testing.T) {
	tr := NewTracker(nil)

	tr.WhenReady("room", func() {})
	var rec recorder
	tr.Listen("room", rec.listen)

	tr.Notify(true)

	if got := rec.got(); !equalCalls(got, []bool{false, true}) {
		t.Errorf("calls = %v, want [false true]", got)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestWhenReady_PanicStillDeregisters(t *testing.T) {
	tr := NewTracker(nil)

	tr.WhenReady("room", func() { panic("boom") })
	tr.Notify(true)

	if tr.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tr.Len())
	}
}
