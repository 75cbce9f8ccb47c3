package peaks

import "pianotune/internal/physics"

// DetectAll runs the two-pass partial scan described in §4.3 across
// every partial number from 1 to the register's max_n ceiling, using
// grid which supplies the search-center frequency for partial n.
// Results are returned in strictly increasing n order.
func DetectAll(magnitudes []float64, midi, scaleBreak int, bSmoothed float64, pass Pass, grid func(n int) float64) []Found {
	maxN := physics.MaxPartialForMIDI(midi)
	results := make([]Found, 0, maxN)

	for n := 1; n <= maxN; n++ {
		fSearch := grid(n)
		found, ok := Search(magnitudes, n, fSearch, midi, scaleBreak, bSmoothed, pass)
		if !ok {
			continue
		}
		results = append(results, found)
	}
	return results
}

// TheoreticalGrid returns the pass-1 naive harmonic grid function:
// f_search = n * fTarget.
func TheoreticalGrid(fTarget float64) func(n int) float64 {
	return func(n int) float64 { return float64(n) * fTarget }
}

// InharmonicGrid returns the pass-2 inharmonic grid function:
// f_search = n * f0 * sqrt(1 + B*n^2).
func InharmonicGrid(f0, b float64) func(n int) float64 {
	return func(n int) float64 { return physics.PartialFrequency(n, f0, b) }
}
