package gps

import (
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/intrepidcs/mic2/internal/nmea"
	"github.com/intrepidcs/mic2/internal/ubx"
)

var (
	// ErrClosed is returned by operations that need an open device.
	ErrClosed = errors.New("gps: device not open")
	// ErrInvalidDevice is returned when discovery finds no u-blox receiver.
	ErrInvalidDevice = errors.New("gps: no u-blox device found")
)

const (
	ubloxVID = 0x1546

	defaultBaud = 115200
	readTimeout = 10 * time.Millisecond
	readBufSize = 1000
)

// Transport is the byte stream a Device reads from. The read timeout bounds
// how long the read loop blocks between shutdown checks.
type Transport interface {
	io.ReadWriteCloser
	SetReadTimeout(time.Duration) error
}

// Device is a u-blox GPS receiver attached over a serial port. Open spawns a
// background reader that demultiplexes the byte stream and folds decoded
// sentences into a shared snapshot; Info and HasLock read that snapshot.
type Device struct {
	PortName string
	VID      uint16
	PID      uint16

	baud int
	dial func() (Transport, error)

	mu     sync.Mutex // serializes Open/Close
	opened atomic.Bool
	stop   chan struct{}
	done   chan struct{}

	state *state

	errMu   sync.Mutex
	readErr error
}

// NewDevice builds a device for the given port. It does not open the port.
func NewDevice(portName string, vid, pid uint16) *Device {
	d := &Device{
		PortName: portName,
		VID:      vid,
		PID:      pid,
		baud:     defaultBaud,
		state:    newState(),
	}
	d.dial = func() (Transport, error) {
		return openPort(d.PortName, d.baud)
	}
	return d
}

// SetBaud overrides the default 115200 baud. Takes effect on the next Open.
func (d *Device) SetBaud(baud int) {
	if baud > 0 {
		d.baud = baud
	}
}

// Open opens the port, sends the receiver configuration, and starts the
// background reader. It reports whether the device ended up open; opening an
// already-open device is a no-op returning (true, nil).
func (d *Device) Open() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opened.Load() {
		return true, nil
	}
	port, err := d.dial()
	if err != nil {
		return false, err
	}
	if err := d.configureReceiver(port); err != nil {
		port.Close()
		return false, err
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.setReadErr(nil)
	d.opened.Store(true)

	ready := make(chan struct{})
	go d.readLoop(port, ready)
	<-ready
	return true, nil
}

// configureReceiver resets the receiver's message set: disable every
// standard NMEA message, then enable the PUBX 00/03/04 proprietary set.
// Writes are fire and forget; the receiver's ACKs surface later on the read
// loop as ordinary UBX packets and are not awaited here.
func (d *Device) configureReceiver(port Transport) error {
	write := func(p ubx.Packet) error {
		_, err := port.Write(p.Bytes())
		return err
	}
	if err := write(ubx.New(ubx.ClassCFG, 0x04, []byte{0x00, 0x01, 0x00})); err != nil {
		return err
	}
	disable := []byte{
		0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A,
		0x0D, 0x0E, 0x0F,
		0x40, 0x41, 0x42, 0x43, 0x44,
	}
	for _, id := range disable {
		if err := write(ubx.New(ubx.ClassCFG, 0x01, []byte{0xF0, id, 0x00})); err != nil {
			return err
		}
	}
	for _, id := range []byte{0x00, 0x03, 0x04} {
		if err := write(ubx.New(ubx.ClassCFG, 0x01, []byte{0xF1, id, 0x01})); err != nil {
			return err
		}
	}
	return nil
}

// readLoop pulls bytes off the port until told to stop or the stream ends.
// The short read timeout keeps shutdown latency bounded.
func (d *Device) readLoop(port Transport, ready chan<- struct{}) {
	defer func() {
		d.opened.Store(false)
		port.Close()
		close(d.done)
	}()

	var demux Demux
	buf := make([]byte, readBufSize)
	close(ready)
	for {
		select {
		case <-d.stop:
			return
		default:
		}
		n, err := port.Read(buf)
		switch {
		case err == nil && n == 0:
			// go.bug.st/serial signals a read timeout as (0, nil).
			continue
		case errors.Is(err, io.EOF):
			return
		case err != nil && isRetryable(err):
			continue
		case err != nil && isDisconnect(err):
			return
		case err != nil:
			d.setReadErr(err)
			log.Printf("gps: %s: read failed: %v", d.PortName, err)
			return
		}
		for _, p := range demux.Update(buf[:n]) {
			d.handle(p)
		}
	}
}

func (d *Device) handle(p Packet) {
	switch v := p.(type) {
	case NMEAPacket:
		d.state.update(v.Data)
	case NMEAUnsupportedPacket:
		log.Printf("gps: %s: dropping unsupported sentence: %v", d.PortName, v.Err)
	case UBXPacket:
		// ACK/NAK and other receiver replies; nothing to aggregate.
		log.Printf("gps: %s: %s packet id 0x%02X (%d byte payload)",
			d.PortName, v.Packet.Class, v.Packet.ID, len(v.Packet.Payload))
	case UnsupportedPacket:
		log.Printf("gps: %s: dropping %d undecodable bytes: %v", d.PortName, len(v.Raw), v.Err)
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, syscall.EINTR) || errors.Is(err, os.ErrDeadlineExceeded)
}

func isDisconnect(err error) bool {
	return errors.Is(err, syscall.EPIPE) || isPortClosed(err)
}

// Close stops the reader and releases the port. Closing a device that is
// not open is a no-op.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened.Load() {
		return nil
	}
	close(d.stop)
	<-d.done
	return nil
}

// IsOpen reports whether the background reader is running.
func (d *Device) IsOpen() bool {
	return d.opened.Load()
}

// Info returns a copy of the current snapshot.
func (d *Device) Info() (Info, error) {
	if !d.opened.Load() {
		return Info{}, ErrClosed
	}
	return d.state.snapshot(), nil
}

// HasLock reports whether the receiver currently holds any kind of fix.
func (d *Device) HasLock() (bool, error) {
	info, err := d.Info()
	if err != nil {
		return false, err
	}
	return info.NavStatus != nil && *info.NavStatus != nmea.NavStatusNoFix, nil
}

// Err returns the error that terminated the read loop, if any.
func (d *Device) Err() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.readErr
}

func (d *Device) setReadErr(err error) {
	d.errMu.Lock()
	d.readErr = err
	d.errMu.Unlock()
}
