// Package udp broadcasts note measurements over UDP using a
// small fixed binary framing, for lightweight external consumers (e.g.
// a tuning-hammer rig) that don't want an HTTP/WebSocket dependency.
package udp

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"

	"pianotune/internal/domain"
	"pianotune/internal/log"
)

// Packet layout, all BigEndian:
//
//	Sequence Number   uint32
//	Timestamp (unix ns) int64
//	MIDI              uint8
//	F0 (Hz)           float32
//	B                 float32
//	Quality           uint8
//	Partial Count     uint16
//	Partials          [Partial Count]{N uint16, Frequency float32, AmplitudeDB float32}
const headerSize = 4 + 8 + 1 + 4 + 4 + 1 + 2
const partialSize = 2 + 4 + 4

// Publisher broadcasts the latest updated or auto-stopped measurement
// to a single UDP target on a fixed interval. It implements
// measure.EventSink's MeasurementUpdated/MeasurementAutoStopped
// methods so an Analyzer can feed it directly; RawSpectrumUpdated is
// ignored, that belongs to the websocket transport.
type Publisher struct {
	sender *Sender

	mu       sync.Mutex
	latest   domain.NoteMeasurement
	hasData  bool
	sequence uint32

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewPublisher creates a Publisher that sends to targetAddress every
// interval, once started.
func NewPublisher(targetAddress string, interval time.Duration) (*Publisher, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Publisher{sender: sender, interval: interval}, nil
}

// MeasurementUpdated records the latest in-progress measurement as the
// publish candidate.
func (p *Publisher) MeasurementUpdated(m domain.NoteMeasurement) {
	p.mu.Lock()
	p.latest = m
	p.hasData = true
	p.mu.Unlock()
}

// MeasurementAutoStopped records the final measurement of a capture
// run, same bookkeeping as MeasurementUpdated.
func (p *Publisher) MeasurementAutoStopped(m domain.NoteMeasurement) {
	p.MeasurementUpdated(m)
}

// RawSpectrumUpdated is a no-op; the UDP transport only ever carries
// measurement summaries, not full spectra.
func (p *Publisher) RawSpectrumUpdated(domain.SpectrumSnapshot) {}

// Start begins the ticker-driven broadcast goroutine. Safe to call
// once per Publisher.
func (p *Publisher) Start() {
	p.once.Do(func() {
		p.stopCh = make(chan struct{})
		p.wg.Add(1)
		go p.run()
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.publishOnce(); err != nil {
				log.Warnf("udp publisher: %v", err)
			}
		}
	}
}

func (p *Publisher) publishOnce() error {
	p.mu.Lock()
	if !p.hasData {
		p.mu.Unlock()
		return nil
	}
	m := p.latest
	p.sequence++
	seq := p.sequence
	p.mu.Unlock()

	packet := encodeMeasurement(seq, time.Now(), m)
	return p.sender.Send(packet)
}

// Stop halts the broadcast goroutine and closes the underlying
// connection. Safe to call multiple times.
func (p *Publisher) Stop() error {
	if p.stopCh != nil {
		select {
		case <-p.stopCh:
		default:
			close(p.stopCh)
		}
	}
	p.wg.Wait()
	return p.sender.Close()
}

func encodeMeasurement(seq uint32, ts time.Time, m domain.NoteMeasurement) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(headerSize + len(m.Partials)*partialSize)

	binary.Write(buf, binary.BigEndian, seq)
	binary.Write(buf, binary.BigEndian, ts.UnixNano())
	binary.Write(buf, binary.BigEndian, uint8(m.MIDI))
	binary.Write(buf, binary.BigEndian, float32(m.F0))
	binary.Write(buf, binary.BigEndian, float32(m.B))
	binary.Write(buf, binary.BigEndian, uint8(m.Quality))
	binary.Write(buf, binary.BigEndian, uint16(len(m.Partials)))

	for _, part := range m.Partials {
		binary.Write(buf, binary.BigEndian, uint16(part.N))
		binary.Write(buf, binary.BigEndian, float32(part.Frequency))
		binary.Write(buf, binary.BigEndian, float32(part.AmplitudeDB))
	}

	return buf.Bytes()
}
