// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"pianotune/cmd"
	"pianotune/internal/capture"
	"pianotune/internal/config"
	"pianotune/internal/domain"
	pianolog "pianotune/internal/log"
	"pianotune/internal/measure"
	"pianotune/internal/physics"
	"pianotune/internal/store"
	"pianotune/internal/transport/udp"
	"pianotune/internal/transport/websocket"
	"pianotune/internal/tui"
	"pianotune/pkg/build"
)

// main is the entry point for the piano tuning measurement engine.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments
//   - Load and validate YAML configuration
//   - Execute one-off commands if requested (devices, replay)
//
// 2. Concurrent Phase (Hot Path):
//   - Start the analyzer, capture engine, and enabled transports
//   - Block until the TUI exits or a termination signal arrives
//
// 3. Shutdown Phase (Cold Path):
//   - Persist the measurement if one locked
//   - Stop capture, transports, and recorder
func main() {
	if err := build.Initialize(); err != nil {
		log.Fatal(err)
	}

	runtime.GOMAXPROCS(2)

	opts, err := cmd.ParseArgs()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.Fatal(err)
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if level, ok := pianolog.ParseLevel(cfg.LogLevel); ok {
		pianolog.SetLevel(level)
	}

	if err := capture.Initialize(); err != nil {
		log.Fatal(err)
	}
	defer capture.Terminate()

	switch opts.Command {
	case "devices":
		runDevicesCommand()
		return
	case "replay":
		runReplayCommand(opts, cfg)
		return
	}

	if !opts.HasTarget {
		fmt.Printf("%s: --target-midi is required to start measuring. Use the 'devices' command to list inputs.\n", build.GetBuildFlags().Name)
		return
	}

	runLive(opts, cfg)
}

func runDevicesCommand() {
	engine := capture.NewEngine(nil, 1, 1024, nil)
	devices, err := engine.Devices()
	if err != nil {
		log.Fatal(err)
	}
	for _, d := range devices {
		if d.MaxInChannels == 0 {
			continue
		}
		fmt.Printf("[%d] %s (input channels: %d)\n", d.ID, d.Name, d.MaxInChannels)
	}
}

func runReplayCommand(opts *cmd.Options, cfg *config.Config) {
	result := &lastMeasurementSink{}
	analyzer := measure.NewAnalyzer(result)
	if err := configurePianoMetadata(analyzer, cfg); err != nil {
		log.Fatal(err)
	}

	freq := physics.MIDIToFrequency(opts.TargetMIDI)
	if err := analyzer.SetTargetNote(opts.TargetMIDI, freq); err != nil {
		log.Fatal(err)
	}

	if err := capture.ReplayWAV(opts.ReplayPath, analyzer, cfg.Analyzer.FramesPerBuffer); err != nil {
		log.Fatal(err)
	}

	if !analyzer.IsMeasurementLocked() {
		fmt.Println("replay finished without locking a measurement")
		return
	}
	fmt.Println("replay locked a measurement")
	if err := persistMeasurement(cfg, result.measurement); err != nil {
		pianolog.Errorf("persisting measurement: %v", err)
	}
}

func runLive(opts *cmd.Options, cfg *config.Config) {
	program := tui.StartMeasurementUI()
	progSink := tui.NewProgramSink(program)
	result := &lastMeasurementSink{}

	var udpPub *udp.Publisher
	if cfg.Transport.UDPEnabled {
		var err error
		udpPub, err = udp.NewPublisher(cfg.Transport.UDPTargetAddress, cfg.Transport.UDPSendInterval)
		if err != nil {
			log.Fatal(err)
		}
		udpPub.Start()
		defer udpPub.Stop()
	}

	var wsServer *websocket.Server
	if cfg.Transport.WebsocketEnabled {
		wsServer = websocket.NewServer(cfg.Transport.WebsocketAddr)
		wsServer.Start()
		defer wsServer.Stop()
	}

	sink := measure.NewMultiSink(progSink, result, sinkOrNil(udpPub), sinkOrNil(wsServer))
	analyzer := measure.NewAnalyzer(sink)

	if err := configurePianoMetadata(analyzer, cfg); err != nil {
		log.Fatal(err)
	}

	freq := physics.MIDIToFrequency(opts.TargetMIDI)
	if err := analyzer.SetTargetNote(opts.TargetMIDI, freq); err != nil {
		log.Fatal(err)
	}

	var recorder *capture.Recorder
	if cfg.Analyzer.RecordRaw {
		name := filepath.Join(cfg.Analyzer.RecordDir, "capture-"+time.Now().UTC().Format("02-01-2006-150405")+".wav")
		var err error
		recorder, err = capture.NewRecorder(name)
		if err != nil {
			log.Fatal(err)
		}
	}

	engine := capture.NewEngine(analyzer, 1, cfg.Analyzer.FramesPerBuffer, recorder)

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	if err := engine.Start(cfg.Analyzer.SampleRate, cfg.Analyzer.InputDevice); err != nil {
		log.Fatal(err)
	}

	go func() {
		if _, err := program.Run(); err != nil {
			pianolog.Errorf("tui: %v", err)
		}
		done <- os.Interrupt
	}()

	<-done

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := engine.Stop(); err != nil {
		pianolog.Errorf("stopping capture engine: %v", err)
	}
	program.Quit()

	if analyzer.IsMeasurementLocked() {
		if err := persistMeasurement(cfg, result.measurement); err != nil {
			pianolog.Errorf("persisting measurement: %v", err)
		}
	}
}

func configurePianoMetadata(analyzer *measure.Analyzer, cfg *config.Config) error {
	if cfg.Piano.Type == "" {
		return nil
	}
	pianoType, ok := domain.ParsePianoType(cfg.Piano.Type)
	if !ok {
		return fmt.Errorf("unknown piano.type %q", cfg.Piano.Type)
	}
	return analyzer.SetPianoMetadata(domain.PianoMetadata{
		Type:           pianoType,
		LengthCM:       cfg.Piano.LengthCM,
		ScaleBreakMIDI: cfg.Piano.ScaleBreakMIDI,
	})
}

// lastMeasurementSink records the most recently locked measurement for
// persistence at shutdown.
type lastMeasurementSink struct {
	measurement domain.NoteMeasurement
}

func (s *lastMeasurementSink) MeasurementUpdated(domain.NoteMeasurement) {}
func (s *lastMeasurementSink) MeasurementAutoStopped(m domain.NoteMeasurement) {
	s.measurement = m
}
func (s *lastMeasurementSink) RawSpectrumUpdated(domain.SpectrumSnapshot) {}

// sinkOrNil returns nil for a nil *T so MultiSink's variadic nil check
// sees an untyped nil instead of a non-nil interface wrapping a nil
// pointer.
func sinkOrNil(s measure.EventSink) measure.EventSink {
	switch v := s.(type) {
	case *udp.Publisher:
		if v == nil {
			return nil
		}
	case *websocket.Server:
		if v == nil {
			return nil
		}
	}
	return s
}

func persistMeasurement(cfg *config.Config, m domain.NoteMeasurement) error {
	if err := os.MkdirAll(cfg.Analyzer.RecordDir, 0755); err != nil {
		return fmt.Errorf("create record dir %s: %w", cfg.Analyzer.RecordDir, err)
	}
	path := filepath.Join(cfg.Analyzer.RecordDir, "measurements.json")
	s := store.JSONStore{}

	doc, err := s.Load(path)
	if err != nil {
		doc = store.Document{
			SchemaVersion: store.SchemaVersion,
			Measurements:  map[int]domain.NoteMeasurement{},
		}
		if cfg.Piano.Type != "" {
			if pianoType, ok := domain.ParsePianoType(cfg.Piano.Type); ok {
				doc.Piano = domain.PianoMetadata{
					Type:           pianoType,
					LengthCM:       cfg.Piano.LengthCM,
					ScaleBreakMIDI: cfg.Piano.ScaleBreakMIDI,
				}
			}
		}
	}
	if doc.Measurements == nil {
		doc.Measurements = map[int]domain.NoteMeasurement{}
	}

	doc.Measurements[m.MIDI] = m
	return s.Save(path, doc)
}
