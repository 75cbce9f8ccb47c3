// Package websocket broadcasts live spectrum snapshots and measurement
// updates to connected visualizer clients over a plain gorilla/websocket
// server. Adapted from the teacher's WebSocketTransport, generalized
// from a single untyped broadcast channel to two typed ones so spectrum
// frames (high rate) never starve measurement updates (low rate).
package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"pianotune/internal/domain"
	"pianotune/internal/log"
)

// Server upgrades /ws connections and fans spectrum and measurement
// events out to every connected client as JSON frames. It implements
// measure.EventSink.
type Server struct {
	addr     string
	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool

	spectrum    chan domain.SpectrumSnapshot
	measurement chan domain.NoteMeasurement

	server *http.Server
}

// frame is the envelope written to each client; kind distinguishes the
// two payload shapes on the wire.
type frame struct {
	Kind        string                   `json:"kind"`
	Spectrum    *domain.SpectrumSnapshot `json:"spectrum,omitempty"`
	Measurement *domain.NoteMeasurement  `json:"measurement,omitempty"`
}

// NewServer constructs a Server listening on addr. Call Start to begin
// accepting connections.
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:     make(map[*websocket.Conn]bool),
		spectrum:    make(chan domain.SpectrumSnapshot, 8),
		measurement: make(chan domain.NoteMeasurement, 64),
	}
}

// Start begins the HTTP server and the broadcast-fanout goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.server = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		log.Infof("websocket: listening on %s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("websocket: server error: %v", err)
		}
	}()

	go s.handleBroadcasts()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket: upgrade: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.clientsMu.Unlock()
	log.Infof("websocket: client connected, total=%d", n)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.clientsMu.Lock()
				delete(s.clients, conn)
				n := len(s.clients)
				s.clientsMu.Unlock()
				conn.Close()
				log.Infof("websocket: client disconnected, total=%d", n)
				return
			}
		}
	}()
}

func (s *Server) handleBroadcasts() {
	for {
		select {
		case snap, ok := <-s.spectrum:
			if !ok {
				return
			}
			s.broadcast(frame{Kind: "spectrum", Spectrum: &snap})
		case m, ok := <-s.measurement:
			if !ok {
				return
			}
			s.broadcast(frame{Kind: "measurement", Measurement: &m})
		}
	}
}

func (s *Server) broadcast(f frame) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(f); err != nil {
			log.Warnf("websocket: write to client: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}

// RawSpectrumUpdated queues a spectrum snapshot for broadcast. Drops
// the frame if the channel is full; visualizer frames are expendable.
func (s *Server) RawSpectrumUpdated(snap domain.SpectrumSnapshot) {
	select {
	case s.spectrum <- snap:
	default:
	}
}

// MeasurementUpdated queues an in-progress measurement for broadcast.
func (s *Server) MeasurementUpdated(m domain.NoteMeasurement) {
	select {
	case s.measurement <- m:
	default:
		log.Warnf("websocket: measurement broadcast channel full, dropping update for midi=%d", m.MIDI)
	}
}

// MeasurementAutoStopped queues the final measurement of a capture run.
func (s *Server) MeasurementAutoStopped(m domain.NoteMeasurement) {
	s.MeasurementUpdated(m)
}

// Stop closes every client connection and shuts down the HTTP server.
func (s *Server) Stop() error {
	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
