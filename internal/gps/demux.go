package gps

import (
	"strings"
	"unicode/utf8"

	"github.com/intrepidcs/mic2/internal/nmea"
	"github.com/intrepidcs/mic2/internal/ubx"
)

// Packet is one demultiplexed unit out of a raw read: a decoded NMEA
// sentence, a decoded UBX frame, or one of the unsupported variants
// carrying the offending data.
type Packet interface {
	packet()
}

// NMEAPacket carries a successfully decoded NMEA sentence.
type NMEAPacket struct {
	Data nmea.Data
}

// NMEAUnsupportedPacket carries a framed sentence that failed decoding.
type NMEAUnsupportedPacket struct {
	Raw string
	Err error
}

// UBXPacket carries a decoded binary UBX frame.
type UBXPacket struct {
	Packet ubx.Packet
}

// UnsupportedPacket carries bytes that decoded as neither NMEA nor UBX.
type UnsupportedPacket struct {
	Raw []byte
	Err error
}

func (NMEAPacket) packet()            {}
func (NMEAUnsupportedPacket) packet() {}
func (UBXPacket) packet()             {}
func (UnsupportedPacket) packet()     {}

// Demux splits one read's raw bytes into protocol units. ASCII-looking data
// is tried as NMEA first, falling back to UBX on framing failure: UBX frames
// start with 0xB5, which is never valid printable NMEA text (and usually not
// valid UTF-8), so the ordering is unambiguous in practice.
//
// The demux owns the partial-sentence state; Reset clears it on (re)open.
type Demux struct {
	framer nmea.Framer
}

// Update consumes one read's bytes and returns every unit completed by it.
// A sentence completed by a partial-end segment is decoded within the same
// call, so splitting a sentence across reads yields the same result as
// feeding it whole.
func (d *Demux) Update(buf []byte) []Packet {
	if !utf8.Valid(buf) {
		return []Packet{d.binary(buf)}
	}
	var out []Packet
	for _, seg := range strings.Split(string(buf), "\r\n") {
		if seg == "" {
			continue
		}
		sentence, kind := d.framer.Feed(seg)
		switch kind {
		case nmea.SegmentComplete:
			data, err := nmea.NewSentence(sentence).Data()
			if err != nil {
				out = append(out, NMEAUnsupportedPacket{Raw: sentence, Err: err})
				continue
			}
			out = append(out, NMEAPacket{Data: data})
		case nmea.SegmentAbsorbed:
			// Waiting for the rest of the sentence.
		case nmea.SegmentInvalid:
			out = append(out, d.binary([]byte(seg)))
		}
	}
	return out
}

// Reset drops any in-flight partial sentence.
func (d *Demux) Reset() {
	d.framer.Reset()
}

func (d *Demux) binary(buf []byte) Packet {
	p, err := ubx.Decode(buf)
	if err != nil {
		return UnsupportedPacket{Raw: buf, Err: err}
	}
	return UBXPacket{Packet: p}
}
