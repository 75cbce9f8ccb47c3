package capturebuf

import "testing"

func TestExtractWindowNeedsEnoughSamples(t *testing.T) {
	b := NewBuffer()
	b.Append(make([]float32, 10))
	dst := make([]float64, 16)
	if b.ExtractWindow(16, dst) {
		t.Fatal("expected ExtractWindow to fail with insufficient samples")
	}
}

func TestExtractWindowRetainsOverlap(t *testing.T) {
	b := NewBuffer()
	samples := make([]float32, 16)
	for i := range samples {
		samples[i] = float32(i)
	}
	b.Append(samples)

	dst := make([]float64, 16)
	if !b.ExtractWindow(16, dst) {
		t.Fatal("expected ExtractWindow to succeed")
	}
	for i := range dst {
		if dst[i] != float64(i) {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], i)
		}
	}

	if b.Len() != 8 {
		t.Fatalf("expected 8 samples retained after 50%% overlap shift, got %d", b.Len())
	}

	// The second half of the original window should remain at the front.
	b.Append(make([]float32, 8))
	dst2 := make([]float64, 16)
	if !b.ExtractWindow(16, dst2) {
		t.Fatal("expected second ExtractWindow to succeed")
	}
	for i := 0; i < 8; i++ {
		if dst2[i] != float64(8+i) {
			t.Fatalf("dst2[%d] = %v, want %v", i, dst2[i], 8+i)
		}
	}
}

func TestResetClearsBuffer(t *testing.T) {
	b := NewBuffer()
	b.Append(make([]float32, 100))
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected 0 after reset, got %d", b.Len())
	}
}
