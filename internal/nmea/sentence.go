package nmea

import (
	"strings"
)

// Sentence is a raw NMEA sentence with CR/LF stripped. A valid sentence
// starts with a $TALKERTYPE prefix and carries a *HH checksum marker.
type Sentence struct {
	Raw string
}

func NewSentence(raw string) Sentence {
	return Sentence{Raw: strings.TrimRight(raw, "\r\n")}
}

// Data decodes the sentence into its typed payload, dispatching on the
// talker/type prefix. Unknown prefixes and structurally bad sentences
// return a *DecodeError.
func (s Sentence) Data() (Data, error) {
	f := Fields(s.Raw)
	switch f[0] {
	case "$GNGST", "$GPGST":
		return parseGST(s.Raw, f)
	case "$GNGSA", "$GPGSA":
		return parseGSA(s.Raw, f)
	case "$GNGSV", "$GPGSV":
		return parseGSVCollection(s.Raw)
	case "$PUBX":
		if len(f) < 2 {
			return nil, &DecodeError{Raw: s.Raw, Reason: "PUBX sentence without message ID"}
		}
		switch f[1] {
		case "00":
			return parsePUBX00(s.Raw, f)
		case "03":
			return parsePUBX03(s.Raw, f)
		case "04":
			return parsePUBX04(s.Raw, f)
		}
		return nil, &DecodeError{Raw: s.Raw, Reason: "unsupported PUBX message " + f[1]}
	}
	return nil, &DecodeError{Raw: s.Raw, Reason: "unsupported sentence type"}
}

// SegmentKind classifies one CRLF-delimited segment fed to the Framer.
type SegmentKind int

const (
	// SegmentComplete: a whole sentence is available.
	SegmentComplete SegmentKind = iota
	// SegmentAbsorbed: the segment was buffered as part of a sentence
	// still being reassembled.
	SegmentAbsorbed
	// SegmentInvalid: the segment cannot belong to an NMEA sentence;
	// the caller should try the binary path.
	SegmentInvalid
)

// Framer reassembles sentences that arrive split across reads. Receivers
// emit some sentences (notably PUBX03) over multiple newlines, so a segment
// may be a whole sentence, the start of one, a middle chunk, or the tail.
//
// The framer is Idle until it sees a sentence start without a checksum,
// then accumulates until a checksum-bearing tail arrives.
type Framer struct {
	partial      strings.Builder
	accumulating bool
}

// Feed classifies one segment. When kind is SegmentComplete, sentence holds
// the full reassembled sentence and the framer is Idle again.
func (f *Framer) Feed(seg string) (sentence string, kind SegmentKind) {
	start := strings.HasPrefix(seg, "$")
	ck := containsChecksum(seg)
	switch {
	case start && ck:
		f.Reset()
		return seg, SegmentComplete
	case start && !ck:
		f.Reset()
		f.partial.WriteString(seg)
		f.accumulating = true
		return "", SegmentAbsorbed
	case f.accumulating && !ck:
		f.partial.WriteString(seg)
		return "", SegmentAbsorbed
	case f.accumulating && ck:
		f.partial.WriteString(seg)
		sentence = f.partial.String()
		f.Reset()
		return sentence, SegmentComplete
	}
	return "", SegmentInvalid
}

// Reset drops any in-flight partial sentence. Called on device (re)open.
func (f *Framer) Reset() {
	f.partial.Reset()
	f.accumulating = false
}

// containsChecksum reports whether s carries a *HH checksum marker.
func containsChecksum(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == '*' && isHex(s[i+1]) && isHex(s[i+2]) {
			return true
		}
	}
	return false
}

func isHex(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}
