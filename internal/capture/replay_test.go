package capture

import (
	"path/filepath"
	"testing"

	"pianotune/internal/measure"
	"pianotune/internal/physics"
	"pianotune/pkg/utils"
)

func writeTestTone(t *testing.T, path string, f0 float64, silentFrames, toneFrames int) {
	t.Helper()

	rec, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	silence := make([]float32, silentFrames)
	for i := range silence {
		silence[i] = 1e-7
	}
	if err := rec.Write(silence); err != nil {
		t.Fatalf("write silence: %v", err)
	}

	tone := utils.GenerateSineWave(toneFrames, physics.SampleRate, f0)
	for i := range tone {
		tone[i] *= 0.6
	}
	if err := rec.Write(tone); err != nil {
		t.Fatalf("write tone: %v", err)
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestReplayWAVDrivesAnalyzer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.wav")
	midi := 69
	f0 := physics.MIDIToFrequency(midi)
	window := physics.WindowForMIDI(midi)

	writeTestTone(t, path, f0, 4096, 3*window)

	analyzer := measure.NewAnalyzer(nil)
	if err := analyzer.SetTargetNote(midi, f0); err != nil {
		t.Fatalf("SetTargetNote: %v", err)
	}

	if err := ReplayWAV(path, analyzer, 2048); err != nil {
		t.Fatalf("ReplayWAV: %v", err)
	}

	// A pure tone lacks enough partials to ever lock, but the attack
	// should still have moved the state machine out of Armed.
	if analyzer.IsMeasurementLocked() {
		t.Fatal("a pure tone should not accumulate enough partials to lock")
	}
}

func TestReplayWAVRejectsMissingFile(t *testing.T) {
	analyzer := measure.NewAnalyzer(nil)
	if err := ReplayWAV(filepath.Join(t.TempDir(), "nope.wav"), analyzer, 1024); err == nil {
		t.Fatal("expected error for missing replay file")
	}
}
