package measure

import (
	"math"
	"time"

	"pianotune/internal/capturebuf"
	"pianotune/internal/domain"
	"pianotune/internal/fft"
	"pianotune/internal/log"
	"pianotune/internal/peaks"
	"pianotune/internal/physics"
	"pianotune/internal/solver"
)

// noScaleBreak is passed to the peak finder and inharmonicity
// estimator in place of a real scale-break MIDI index when no piano
// metadata has been set, placing every note far outside the ±3
// semitone scale-break zone.
const noScaleBreak = -1000

// Analyzer is the core measurement engine: it owns the capture buffer,
// FFT pipeline, multi-frame averager, peak finder, inharmonicity
// estimator, f0/B solver, and the attack-triggered state machine and
// rolling selection buffer built on top of them. A single Analyzer
// measures one target note at a time.
//
// Not safe for concurrent use: ProcessAudioBuffer, SetTargetNote,
// SetPianoMetadata, and Reset must all be called from the same
// goroutine, matching the capture callback thread the teacher's audio
// engine pins with runtime.LockOSThread.
type Analyzer struct {
	sink EventSink

	target    domain.NoteTarget
	hasTarget bool

	piano        domain.PianoMetadata
	hasPianoMeta bool

	state State

	window int

	capBuf   *capturebuf.Buffer
	fftProc  *fft.Processor
	averager *capturebuf.Averager
	bHistory *solver.BHistory
	sel      *selection

	consecutiveGreen int

	haveLastBlockRMS bool
	lastBlockRMSDB   float64

	frameScratch []float64

	snapshotBufs [][]float64 // Ring of preallocated magnitude buffers for snapshot.
	snapshotIdx  int
}

// snapshotRingSize bounds how many SpectrumSnapshots a retaining sink
// (e.g. the websocket server's buffered spectrum channel) can hold onto
// before their backing array is recycled by a later snapshot call. It
// comfortably exceeds that channel's capacity.
const snapshotRingSize = 16

// NewAnalyzer constructs an Analyzer in the Idle state. A nil sink is
// replaced with NopSink.
func NewAnalyzer(sink EventSink) *Analyzer {
	if sink == nil {
		sink = NopSink{}
	}
	snapshotBufs := make([][]float64, snapshotRingSize)
	for i := range snapshotBufs {
		snapshotBufs[i] = make([]float64, physics.FFTOutLen/2)
	}
	return &Analyzer{
		sink:         sink,
		state:        Idle,
		capBuf:       capturebuf.NewBuffer(),
		fftProc:      fft.NewProcessor(),
		averager:     capturebuf.NewAverager(physics.FrameAvgDepth, physics.FrameAvgMinimum, physics.FFTOutLen/2),
		bHistory:     solver.NewBHistory(physics.BHistoryDepth, physics.TypicalInharmonicity(60)),
		sel:          newSelection(),
		frameScratch: make([]float64, physics.FFTOutLen),
		snapshotBufs: snapshotBufs,
	}
}

// SetPianoMetadata records the instrument being measured. Scale-break
// classification in the inharmonicity estimator only activates once
// this has been called.
func (a *Analyzer) SetPianoMetadata(meta domain.PianoMetadata) error {
	const minScaleBreak, maxScaleBreak = 36, 54
	const minLengthCM, maxLengthCM = 80.0, 300.0
	if meta.ScaleBreakMIDI < minScaleBreak || meta.ScaleBreakMIDI > maxScaleBreak {
		return configError("SetPianoMetadata", "scale break MIDI %d out of range [%d, %d]", meta.ScaleBreakMIDI, minScaleBreak, maxScaleBreak)
	}
	if meta.LengthCM < minLengthCM || meta.LengthCM > maxLengthCM {
		return configError("SetPianoMetadata", "length_cm %v out of range [%v, %v]", meta.LengthCM, minLengthCM, maxLengthCM)
	}

	a.piano = meta
	a.hasPianoMeta = true
	log.Infof("piano metadata set: type=%s length=%.1fcm scale_break=%d", meta.Type, meta.LengthCM, meta.ScaleBreakMIDI)
	return nil
}

// SetTargetNote arms the analyzer on a new note: freq must agree with
// the equal-tempered frequency for midi to within 1 part in 1e4. All
// buffers, history, and the rolling selection are cleared and the
// state machine returns to Armed.
func (a *Analyzer) SetTargetNote(midi int, freq float64) error {
	if midi < physics.MinMIDI || midi > physics.MaxMIDI {
		return configError("SetTargetNote", "midi %d out of range [%d, %d]", midi, physics.MinMIDI, physics.MaxMIDI)
	}
	expected := physics.MIDIToFrequency(midi)
	if rel := math.Abs(freq-expected) / expected; rel > 1e-4 {
		return configError("SetTargetNote", "freq %v does not match equal-tempered frequency %v for midi %d", freq, expected, midi)
	}

	const acceptCents = 50.0
	ratio := math.Pow(2, acceptCents/1200)

	a.target = domain.NoteTarget{
		MIDI:            midi,
		TheoreticalFreq: freq,
		AcceptWindowMin: freq / ratio,
		AcceptWindowMax: freq * ratio,
	}
	a.hasTarget = true
	a.window = physics.WindowForMIDI(midi)

	a.clearRun()
	a.bHistory.Reset(physics.TypicalInharmonicity(midi))
	a.state = Armed

	log.Infof("target set: midi=%d (%s) freq=%.3fHz window=%d", midi, physics.MIDIToNoteName(midi), freq, a.window)
	return nil
}

// Reset is the universal cancellation: it clears the current
// measurement run (buffers, history, selection) and unconditionally
// returns to Idle, regardless of whether a target note is set. Call
// SetTargetNote to arm the analyzer again.
func (a *Analyzer) Reset() {
	a.clearRun()
	if a.hasTarget {
		a.bHistory.Reset(physics.TypicalInharmonicity(a.target.MIDI))
	}
	a.state = Idle
}

func (a *Analyzer) clearRun() {
	a.capBuf.Reset()
	a.averager.Reset()
	a.sel.reset()
	a.consecutiveGreen = 0
	a.haveLastBlockRMS = false
}

// IsMeasurementLocked reports whether the state machine has auto-
// stopped on a confident measurement.
func (a *Analyzer) IsMeasurementLocked() bool {
	return a.state == Locked
}

// ProcessAudioBuffer feeds one block of mono samples (normalized to
// [-1,1]) into the analyzer. Blocks are accepted regardless of state;
// analysis only runs while Armed (attack detection) or Measuring
// (full pipeline).
func (a *Analyzer) ProcessAudioBuffer(samples []float32) {
	if !a.hasTarget || a.state == Idle || a.state == Locked {
		return
	}

	a.capBuf.Append(samples)

	if a.state == Armed {
		a.checkAttack(samples)
	}

	for a.capBuf.Len() >= a.window {
		dst := a.frameScratch[:a.window]
		if !a.capBuf.ExtractWindow(a.window, dst) {
			break
		}

		magnitude, err := a.fftProc.Process(dst)
		if err != nil {
			log.Errorf("fft process: %v", err)
			break
		}

		a.averager.Push(magnitude)
		avg := a.averager.Averaged()

		if a.state == Armed || a.state == Measuring {
			a.sink.RawSpectrumUpdated(a.snapshot(avg))
		}
		if a.state == Measuring {
			a.processFrame(avg)
		}
	}
}

// checkAttack implements §4.7's attack trigger: a block-to-block RMS
// rise greater than 15dB, with absolute RMS above -45dB, moves Armed
// to Measuring.
func (a *Analyzer) checkAttack(samples []float32) {
	rms := blockRMSdB(samples)
	if a.haveLastBlockRMS && rms-a.lastBlockRMSDB > attackDeltaDB && rms > attackFloorDB {
		a.state = Measuring
		a.sel.reset()
		a.consecutiveGreen = 0
		log.Debugf("attack detected: rms=%.1fdB delta=%.1fdB", rms, rms-a.lastBlockRMSDB)
	}
	a.lastBlockRMSDB = rms
	a.haveLastBlockRMS = true
}

func blockRMSdB(samples []float32) float64 {
	if len(samples) == 0 {
		return 20 * math.Log10(rmsFloor)
	}
	var sumSq float64
	for _, s := range samples {
		sumSq += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))
	return 20 * math.Log10(math.Max(rms, rmsFloor))
}

// effectiveScaleBreak returns the piano's scale break MIDI if known,
// or a sentinel far outside any note's ±3 semitone window otherwise,
// so scale-break-aware logic stays inert without piano metadata.
func (a *Analyzer) effectiveScaleBreak() int {
	if a.hasPianoMeta {
		return a.piano.ScaleBreakMIDI
	}
	return noScaleBreak
}

// processFrame runs the two-pass peak detection, inharmonicity
// regression, and f0/B solver over one averaged spectrum, then applies
// the accept filter and feeds the rolling selection buffer.
func (a *Analyzer) processFrame(avg []float64) {
	midi := a.target.MIDI
	scaleBreak := a.effectiveScaleBreak()
	bSmoothed := a.bHistory.Smoothed()

	roughFound := peaks.DetectAll(avg, midi, scaleBreak, bSmoothed, peaks.PassTheoretical, peaks.TheoreticalGrid(a.target.TheoreticalFreq))
	if len(roughFound) == 0 {
		return
	}
	rough := solver.Solve(toSolverPartials(roughFound), a.target.TheoreticalFreq, midi, scaleBreak, a.hasPianoMeta)

	finalFound := peaks.DetectAll(avg, midi, scaleBreak, bSmoothed, peaks.PassInharmonic, peaks.InharmonicGrid(rough.F0, rough.B))
	if len(finalFound) == 0 {
		return
	}
	result := solver.Solve(toSolverPartials(finalFound), a.target.TheoreticalFreq, midi, scaleBreak, a.hasPianoMeta)

	if result.F0 < a.target.AcceptWindowMin || result.F0 > a.target.AcceptWindowMax {
		return // Out of the ±50-cent accept window; discarded silently.
	}

	a.bHistory.Push(result.B)

	quality := classifyQuality(midi, scaleBreak, a.hasPianoMeta, len(finalFound))

	m := domain.NoteMeasurement{
		MIDI:               midi,
		TargetFrequency:    a.target.TheoreticalFreq,
		NoteName:           physics.MIDIToNoteName(midi),
		F0:                 result.F0,
		B:                  result.B,
		MeasuredPartialNum: result.AnchorPartial,
		Quality:            quality,
		Partials:           toDomainPartials(finalFound),
		MeasuredAt:         time.Now(),
	}

	a.sel.add(m)
	if quality == domain.Green {
		a.consecutiveGreen++
	} else {
		a.consecutiveGreen = 0
	}

	best, ok := a.sel.best()
	if !ok {
		return
	}
	a.sink.MeasurementUpdated(best)

	if a.consecutiveGreen >= lockStreak {
		a.state = Locked
		log.Infof("measurement locked: midi=%d f0=%.3f B=%.6g quality=%s", best.MIDI, best.F0, best.B, best.Quality)
		a.sink.MeasurementAutoStopped(best)
	}
}

// snapshot builds a SpectrumSnapshot from the current averaged
// magnitude spectrum, copying it into the next slot of a preallocated
// ring so the caller can retain it past the next averager push without
// the hot path allocating. A sink must finish with a snapshot's
// Magnitudes within snapshotRingSize frames or risk it being recycled.
func (a *Analyzer) snapshot(avg []float64) domain.SpectrumSnapshot {
	buf := a.snapshotBufs[a.snapshotIdx]
	copy(buf, avg)
	a.snapshotIdx = (a.snapshotIdx + 1) % len(a.snapshotBufs)
	return domain.SpectrumSnapshot{
		Magnitudes:      buf,
		FreqResolution:  physics.FreqPerBin,
		TargetFrequency: a.target.TheoreticalFreq,
		TargetMIDI:      a.target.MIDI,
		NoteName:        physics.MIDIToNoteName(a.target.MIDI),
		Timestamp:       time.Now(),
	}
}

func toSolverPartials(found []peaks.Found) []solver.Partial {
	out := make([]solver.Partial, len(found))
	for i, f := range found {
		out[i] = solver.Partial{N: f.N, Frequency: f.Frequency, AmplitudeDB: f.AmplitudeDB}
	}
	return out
}

func toDomainPartials(found []peaks.Found) []domain.PartialResult {
	out := make([]domain.PartialResult, len(found))
	for i, f := range found {
		out[i] = domain.PartialResult{N: f.N, Frequency: f.Frequency, AmplitudeDB: f.AmplitudeDB}
	}
	return out
}
