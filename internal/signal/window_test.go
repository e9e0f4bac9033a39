// internal/signal/window_test.go
package signal

import "testing"

func TestNewWindow_Empty(t *testing.T) {
	w := NewWindow()
	if w.Len() != 0 {
		t.Errorf("new window Len() = %d, want 0", w.Len())
	}
	if got := w.Forces(); len(got) != 0 {
		t.Errorf("new window Forces() has %d entries, want 0", len(got))
	}
}

func TestWindow_PushBelowCapacity(t *testing.T) {
	w := NewWindow()
	for i := 0; i < 10; i++ {
		w.Push(ForceSample{Force: float64(i), TimestampMs: int64(i * 100)})
	}

	if w.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", w.Len())
	}
	forces := w.Forces()
	for i, f := range forces {
		if f != float64(i) {
			t.Errorf("Forces()[%d] = %v, want %v", i, f, float64(i))
		}
	}
}

func TestWindow_EvictsOldest(t *testing.T) {
	w := NewWindow()
	for i := 0; i < 150; i++ {
		w.Push(ForceSample{Force: float64(i), TimestampMs: int64(i * 100)})
	}

	if w.Len() != WindowCapacity {
		t.Fatalf("Len() = %d, want %d", w.Len(), WindowCapacity)
	}

	// Exactly the last 100 samples, in arrival order.
	forces := w.Forces()
	if len(forces) != WindowCapacity {
		t.Fatalf("Forces() has %d entries, want %d", len(forces), WindowCapacity)
	}
	for i, f := range forces {
		want := float64(50 + i)
		if f != want {
			t.Errorf("Forces()[%d] = %v, want %v", i, f, want)
		}
	}
}

func TestWindow_LenNeverExceedsCapacity(t *testing.T) {
	w := NewWindow()
	for i := 0; i < 500; i++ {
		w.Push(ForceSample{Force: float64(i)})
		if w.Len() > WindowCapacity {
			t.Fatalf("Len() = %d after %d pushes, capacity is %d", w.Len(), i+1, WindowCapacity)
		}
	}
}

func TestWindow_Reset(t *testing.T) {
	w := NewWindow()
	for i := 0; i < 30; i++ {
		w.Push(ForceSample{Force: float64(i)})
	}

	w.Reset()

	if w.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", w.Len())
	}

	// Reusable after reset.
	w.Push(ForceSample{Force: 7.5})
	forces := w.Forces()
	if len(forces) != 1 || forces[0] != 7.5 {
		t.Errorf("Forces() after Reset and Push = %v, want [7.5]", forces)
	}
}
