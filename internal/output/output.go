// Package output implements the rate-limited UDP pixel frame sender
// described by spec component C8: it wraps the pixelframe wire encoder
// with a transmit loop that never exceeds the configured frame rate,
// regardless of how often Send is called.
package output

import (
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/tapelight/tapelight-go/pkg/color"
	"github.com/tapelight/tapelight-go/pkg/pixelframe"
)

// Config holds the output socket configuration.
type Config struct {
	Enabled bool
	Addr    string
	Port    int
	FPS     int
}

// Sender is the rate-limited UDP frame emitter. The latest frame set by
// Send replaces any frame still pending; the transmit loop drains it at
// most once per tick, so a burst of Send calls never increases the wire
// rate above FPS.
type Sender struct {
	mu sync.Mutex

	enabled bool
	addr    string
	port    int
	fps     int

	conn *net.UDPConn

	pending []color.RGB
	dirty   bool

	stopChan chan struct{}
	running  bool
}

// New creates a Sender from Config. Call Start to open the socket and
// begin the transmit loop.
func New(cfg Config) *Sender {
	fps := cfg.FPS
	if fps <= 0 {
		fps = 60
	}
	return &Sender{
		enabled:  cfg.Enabled,
		addr:     cfg.Addr,
		port:     cfg.Port,
		fps:      fps,
		stopChan: make(chan struct{}),
	}
}

// Start opens the UDP socket (if enabled) and starts the transmit loop.
func (s *Sender) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if s.enabled {
		addr, err := net.ResolveUDPAddr("udp4", s.addr+":"+strconv.Itoa(s.port))
		if err != nil {
			return err
		}
		conn, err := net.DialUDP("udp4", nil, addr)
		if err != nil {
			return err
		}
		s.conn = conn
		log.Printf("output: transmitting to %s:%d at %d fps", s.addr, s.port, s.fps)
	} else {
		log.Printf("output: disabled, running in simulation mode")
	}

	s.running = true
	go s.transmitLoop()
	return nil
}

// Send hands the latest composited frame to the sender. It never blocks
// on the network; the transmit loop picks it up on its next tick.
func (s *Sender) Send(frame []color.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = frame
	s.dirty = true
}

func (s *Sender) transmitLoop() {
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.transmitPending()
		}
	}
}

func (s *Sender) transmitPending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty || !s.enabled || s.conn == nil {
		return
	}

	packet := pixelframe.Build(s.pending)
	if _, err := s.conn.Write(packet); err != nil {
		log.Printf("output: send error: %v", err)
	}
	s.dirty = false
}

// ReloadAddr updates the destination address and reconnects, enabling
// output if it was previously disabled. The transmit loop keeps
// running throughout; only the socket is swapped.
func (s *Sender) ReloadAddr(newAddr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.addr = newAddr

	addr, err := net.ResolveUDPAddr("udp4", s.addr+":"+strconv.Itoa(s.port))
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	s.conn = conn
	s.enabled = true
	log.Printf("output: broadcast address updated to %s:%d", s.addr, s.port)
	return nil
}

// Enable (re)opens the socket at the current address/port and resumes
// transmission. Use this to turn output back on without changing the
// destination address.
func (s *Sender) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	addr, err := net.ResolveUDPAddr("udp4", s.addr+":"+strconv.Itoa(s.port))
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	s.conn = conn
	s.enabled = true
	log.Printf("output: transmitting to %s:%d at %d fps", s.addr, s.port, s.fps)
	return nil
}

// Disable turns transmission off without tearing down the transmit
// loop goroutine, so Enable/ReloadAddr can resume sending frames
// later in the same process. transmitPending is a no-op while
// disabled.
func (s *Sender) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = false
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	log.Printf("output: transmission disabled")
}

// Enabled reports whether output transmission is active.
func (s *Sender) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Stop permanently halts the transmit loop and closes the socket. It
// is for process shutdown; the Sender cannot be restarted afterward.
// To turn transmission off and on again within the same process, use
// Disable/Enable or ReloadAddr instead.
func (s *Sender) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopChan)
	s.running = false
	s.enabled = false

	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
