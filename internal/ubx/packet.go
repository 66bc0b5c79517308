// Package ubx implements the u-blox UBX binary framing: a 0xB5 0x62 sync
// word, class/id, a little-endian 16-bit payload length, the payload, and a
// two-byte 8-bit Fletcher checksum computed over class through payload.
package ubx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrInvalidChecksum is returned when the trailing checksum pair does
	// not match the Fletcher-8 computation over class..payload.
	ErrInvalidChecksum = errors.New("ubx: invalid checksum")
)

// HeaderError reports a frame that cannot be a UBX packet: bad sync word,
// unknown class, or a payload shorter than the declared length.
type HeaderError struct {
	Reason string
}

func (e *HeaderError) Error() string {
	return "ubx: malformed header: " + e.Reason
}

// Class groups related UBX messages.
type Class byte

const (
	// ClassNAV: navigation results (position, speed, time, DOP).
	ClassNAV Class = 0x01
	// ClassRXM: receiver manager (satellite status, RTC status).
	ClassRXM Class = 0x02
	// ClassINF: printf-style information messages.
	ClassINF Class = 0x04
	// ClassACK: ack/nack replies to CFG input messages.
	ClassACK Class = 0x05
	// ClassCFG: configuration input messages.
	ClassCFG Class = 0x06
	// ClassMON: monitoring (comm status, CPU load).
	ClassMON Class = 0x0A
	// ClassAID: AssistNow aiding data.
	ClassAID Class = 0x0B
	// ClassTIM: timing (timepulse output, timemark results).
	ClassTIM Class = 0x0D
	// ClassESF: external sensor fusion.
	ClassESF Class = 0x10
)

func (c Class) String() string {
	switch c {
	case ClassNAV:
		return "NAV"
	case ClassRXM:
		return "RXM"
	case ClassINF:
		return "INF"
	case ClassACK:
		return "ACK"
	case ClassCFG:
		return "CFG"
	case ClassMON:
		return "MON"
	case ClassAID:
		return "AID"
	case ClassTIM:
		return "TIM"
	case ClassESF:
		return "ESF"
	}
	return fmt.Sprintf("Class(0x%02X)", byte(c))
}

func parseClass(b byte) (Class, error) {
	c := Class(b)
	switch c {
	case ClassNAV, ClassRXM, ClassINF, ClassACK, ClassCFG, ClassMON, ClassAID, ClassTIM, ClassESF:
		return c, nil
	}
	return 0, &HeaderError{Reason: fmt.Sprintf("unknown class 0x%02X", b)}
}

const (
	sync1 = 0xB5
	sync2 = 0x62

	// sync(2) + class + id + length(2) + checksum(2)
	overhead = 8
)

// Packet is one UBX frame.
type Packet struct {
	Class   Class
	ID      byte
	Payload []byte
	CkA     byte
	CkB     byte
}

// New builds a packet with its checksum filled in.
func New(class Class, id byte, payload []byte) Packet {
	p := Packet{Class: class, ID: id, Payload: payload}
	p.CkA, p.CkB = p.checksum()
	return p
}

// Bytes serializes the packet, checksum included.
func (p Packet) Bytes() []byte {
	out := make([]byte, 0, overhead+len(p.Payload))
	out = append(out, sync1, sync2, byte(p.Class), p.ID)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(p.Payload)))
	out = append(out, p.Payload...)
	out = append(out, p.CkA, p.CkB)
	return out
}

// checksum runs the 8-bit Fletcher algorithm over class, id, length and
// payload.
func (p Packet) checksum() (ckA, ckB byte) {
	add := func(b byte) {
		ckA += b
		ckB += ckA
	}
	add(byte(p.Class))
	add(p.ID)
	n := uint16(len(p.Payload))
	add(byte(n))
	add(byte(n >> 8))
	for _, b := range p.Payload {
		add(b)
	}
	return ckA, ckB
}

// Decode parses one UBX frame from the start of b. Trailing bytes beyond
// the frame are ignored.
func Decode(b []byte) (Packet, error) {
	if len(b) < overhead {
		return Packet{}, &HeaderError{Reason: "truncated frame"}
	}
	if b[0] != sync1 || b[1] != sync2 {
		return Packet{}, &HeaderError{Reason: "sync word mismatch"}
	}
	class, err := parseClass(b[2])
	if err != nil {
		return Packet{}, err
	}
	length := int(binary.LittleEndian.Uint16(b[4:6]))
	if len(b) < overhead+length {
		return Packet{}, &HeaderError{Reason: fmt.Sprintf("payload shorter than declared length %d", length)}
	}
	p := Packet{
		Class:   class,
		ID:      b[3],
		Payload: append([]byte(nil), b[6:6+length]...),
		CkA:     b[6+length],
		CkB:     b[7+length],
	}
	if ckA, ckB := p.checksum(); ckA != p.CkA || ckB != p.CkB {
		return Packet{}, ErrInvalidChecksum
	}
	return p, nil
}
