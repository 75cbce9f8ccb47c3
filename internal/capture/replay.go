package capture

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"

	"pianotune/internal/measure"
	"pianotune/internal/physics"
)

// ReplayWAV feeds a mono WAV file through analyzer.ProcessAudioBuffer
// in chunkFrames-sized blocks, for offline measurement and the test
// suite's end-to-end scenarios. The file must be recorded at the
// analyzer's required sample rate; multi-channel files are downmixed
// by taking the first channel.
func ReplayWAV(path string, analyzer *measure.Analyzer, chunkFrames int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("capture: open replay file %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return fmt.Errorf("capture: %s is not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("capture: decode %s: %w", path, err)
	}
	if buf.Format.SampleRate != int(physics.SampleRate) {
		return fmt.Errorf("capture: %s is %dHz, analyzer requires %v", path, buf.Format.SampleRate, physics.SampleRate)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	maxVal := float64(int64(1)<<uint(buf.SourceBitDepth-1) - 1)
	if buf.SourceBitDepth <= 0 {
		maxVal = math.MaxInt32
	}

	frames := len(buf.Data) / channels
	samples := make([]float32, 0, chunkFrames)

	for i := 0; i < frames; i++ {
		samples = append(samples, float32(float64(buf.Data[i*channels])/maxVal))
		if len(samples) == chunkFrames {
			analyzer.ProcessAudioBuffer(samples)
			samples = samples[:0]
		}
	}
	if len(samples) > 0 {
		analyzer.ProcessAudioBuffer(samples)
	}
	return nil
}
