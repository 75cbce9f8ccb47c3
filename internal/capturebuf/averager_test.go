package capturebuf

import "testing"

func TestAveragerPushAllocatesNothing(t *testing.T) {
	a := NewAverager(3, 2, 1024)
	frame := make([]float64, 1024)
	for i := range frame {
		frame[i] = float64(i)
	}

	allocs := testing.AllocsPerRun(100, func() {
		a.Push(frame)
		_ = a.Averaged()
	})
	if allocs != 0 {
		t.Errorf("Push+Averaged allocated %.0f times per run, want 0", allocs)
	}
}

func TestAveragerUsesLatestFrameBelowMinimum(t *testing.T) {
	a := NewAverager(3, 2, 4)
	frame := []float64{1, 2, 3, 4}
	a.Push(frame)

	got := a.Averaged()
	for i, v := range got {
		if v != frame[i] {
			t.Fatalf("expected raw frame below minimum frames, got %v", got)
		}
	}
}

func TestAveragerMeansOnceMinimumReached(t *testing.T) {
	a := NewAverager(3, 2, 2)
	a.Push([]float64{2, 4})
	a.Push([]float64{4, 8})

	got := a.Averaged()
	want := []float64{3, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Averaged() = %v, want %v", got, want)
		}
	}
}

func TestAveragerEvictsOldestBeyondDepth(t *testing.T) {
	a := NewAverager(2, 2, 1)
	a.Push([]float64{10})
	a.Push([]float64{20})
	a.Push([]float64{30}) // Evicts the first frame (10).

	got := a.Averaged()
	want := 25.0 // mean(20, 30)
	if got[0] != want {
		t.Fatalf("Averaged() = %v, want %v", got[0], want)
	}
}
