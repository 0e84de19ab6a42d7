// Package dmxdriver sends 512-channel DMX512 frames out a serial port at a
// fixed refresh rate, with break/mark-after-break framing handled by the
// transmitter per spec §4.4. A Transmitter abstracts the physical port so the
// driver can run against a real USB-DMX adapter or a no-op simulator.
package dmxdriver

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/castlight/showcore/internal/showerr"
	"github.com/castlight/showcore/pkg/dmx512"
	"go.bug.st/serial"
)

// defaultRefreshRate is the DMX output cadence (spec §4.4: ~40Hz).
const defaultRefreshRate = 40

// breakDuration and markAfterBreakDuration approximate the DMX512-A timing
// requirements (spec §4.4) achievable by toggling the serial line's break
// signal rather than bit-banging raw UART framing.
const (
	breakDuration          = 176 * time.Microsecond
	markAfterBreakDuration = 12 * time.Microsecond
)

// Transmitter abstracts a single physical or simulated DMX512 output port.
type Transmitter interface {
	// Open prepares the port for writing. Must return showerr.ErrPortUnavailable
	// (wrapped) if the port cannot be claimed.
	Open() error
	// SendFrame writes one start-code-prefixed 513-byte frame, preceded by a
	// break/mark-after-break.
	SendFrame(frame []byte) error
	// Close releases the port. Safe to call on an already-closed or never-opened
	// Transmitter.
	Close() error
}

// Config configures a Driver (spec §6: per-universe DMX port name).
type Config struct {
	PortName    string
	RefreshRate int // Hz, defaults to 40 if <= 0
}

// Driver owns one Transmitter and republishes the latest frame it's handed
// at a fixed rate, dropping (never queuing) intermediate frames the way a
// live lighting console does (spec §4.4: "sends whatever the current frame
// is, not a queue of history").
type Driver struct {
	mu          sync.RWMutex
	transmitter Transmitter
	refreshRate int

	latest     [512]uint8
	hasFrame   bool
	stopChan   chan struct{}
	running    bool
	portName   string
	lastErr    error
}

// NewDriver builds a Driver around the given Transmitter, not yet started.
func NewDriver(cfg Config, t Transmitter) *Driver {
	rate := cfg.RefreshRate
	if rate <= 0 {
		rate = defaultRefreshRate
	}
	return &Driver{
		transmitter: t,
		refreshRate: rate,
		portName:    cfg.PortName,
		stopChan:    make(chan struct{}),
	}
}

// Start opens the transmitter and begins the send loop. Returns
// showerr.ErrPortUnavailable (wrapped) if the port cannot be opened; the
// caller may still run in simulation by swapping in a SimTransmitter (spec
// §7: PortUnavailable does not halt the show).
func (d *Driver) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	if err := d.transmitter.Open(); err != nil {
		d.mu.Unlock()
		return fmt.Errorf("%w: opening DMX port %q: %v", showerr.ErrPortUnavailable, d.portName, err)
	}
	d.running = true
	d.mu.Unlock()

	go d.sendLoop()
	return nil
}

// Stop halts the send loop and closes the transmitter.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopChan)
	d.mu.Unlock()

	if err := d.transmitter.Close(); err != nil {
		log.Printf("dmxdriver: close %q: %v", d.portName, err)
	}
}

// SetFrame updates the frame to transmit on the next tick. Non-blocking: the
// send loop always reads the most recent frame, never a queue (spec §4.4).
func (d *Driver) SetFrame(frame [512]uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = frame
	d.hasFrame = true
}

// LastError reports the most recent send error, if any, without clearing it.
func (d *Driver) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

func (d *Driver) sendLoop() {
	interval := time.Second / time.Duration(d.refreshRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.sendCurrentFrame()
		}
	}
}

func (d *Driver) sendCurrentFrame() {
	d.mu.Lock()
	if !d.hasFrame {
		d.mu.Unlock()
		return
	}
	channels := d.latest
	d.mu.Unlock()

	wire := dmx512.BuildFrame(channels)
	err := d.transmitter.SendFrame(wire)

	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()

	if err != nil {
		log.Printf("dmxdriver: send on %q failed: %v", d.portName, err)
	}
}

// SerialTransmitter sends DMX512 frames out a real serial port using
// go.bug.st/serial, driving the break via the port's SetDTR/line-break
// controls where supported (spec §4.4: 250000 baud, 8 data bits, 2 stop
// bits).
type SerialTransmitter struct {
	portName string
	port     serial.Port
}

// NewSerialTransmitter builds a SerialTransmitter for the named OS serial
// device (e.g. "/dev/ttyUSB0", "COM3").
func NewSerialTransmitter(portName string) *SerialTransmitter {
	return &SerialTransmitter{portName: portName}
}

func (s *SerialTransmitter) Open() error {
	mode := &serial.Mode{
		BaudRate: 250000,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
	port, err := serial.Open(s.portName, mode)
	if err != nil {
		return err
	}
	s.port = port
	return nil
}

func (s *SerialTransmitter) SendFrame(frame []byte) error {
	if s.port == nil {
		return fmt.Errorf("%w: %q not open", showerr.ErrPortUnavailable, s.portName)
	}
	// Break/mark-after-break: hold the line low via DTR, pause, release, then
	// write the frame (spec §4.4). Real USB-DMX adapters vary in how break is
	// signalled; this sequence is the conservative, widely-compatible one.
	if err := s.port.SetDTR(false); err != nil {
		return err
	}
	time.Sleep(breakDuration)
	if err := s.port.SetDTR(true); err != nil {
		return err
	}
	time.Sleep(markAfterBreakDuration)

	_, err := s.port.Write(frame)
	return err
}

func (s *SerialTransmitter) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// SimTransmitter is a Transmitter that discards frames, used when no
// hardware adapter is attached or a project's DMX port name is empty (spec
// §7: the show must keep running without a connected adapter). It records
// the last frame sent for test/inspection purposes.
type SimTransmitter struct {
	mu   sync.Mutex
	last []byte
	open bool
}

// NewSimTransmitter returns a ready-to-use simulation transmitter.
func NewSimTransmitter() *SimTransmitter {
	return &SimTransmitter{}
}

func (s *SimTransmitter) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

func (s *SimTransmitter) SendFrame(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return fmt.Errorf("%w: simulated port not open", showerr.ErrPortUnavailable)
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	s.last = cp
	return nil
}

func (s *SimTransmitter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

// LastFrame returns a copy of the last frame handed to SendFrame, or nil if
// none yet.
func (s *SimTransmitter) LastFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := make([]byte, len(s.last))
	copy(cp, s.last)
	return cp
}
