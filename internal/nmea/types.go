package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DecodeError reports a sentence (or field) that is structurally not
// decodable: wrong arity, unknown talker, or a required field that failed to
// parse. It always carries the offending raw text.
type DecodeError struct {
	Raw    string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("nmea: %s: %q", e.Reason, e.Raw)
}

// Data is implemented by every decoded sentence payload.
type Data interface {
	sentence() string
}

func (GSTData) sentence() string       { return "GST" }
func (GSAData) sentence() string       { return "GSA" }
func (GSVCollection) sentence() string { return "GSV" }
func (PUBX00Data) sentence() string    { return "PUBX00" }
func (PUBX03Data) sentence() string    { return "PUBX03" }
func (PUBX04Data) sentence() string    { return "PUBX04" }

// NavStatus is the PUBX00 navigation fix status.
type NavStatus int

const (
	NavStatusNoFix NavStatus = iota
	NavStatusDeadReckoningOnly
	NavStatusStandAlone2D
	NavStatusStandAlone3D
	NavStatusDifferential2D
	NavStatusDifferential3D
	NavStatusCombinedGPSDeadReckoning
	NavStatusTimeOnly
)

var navStatusCodes = map[string]NavStatus{
	"NF": NavStatusNoFix,
	"DR": NavStatusDeadReckoningOnly,
	"G2": NavStatusStandAlone2D,
	"G3": NavStatusStandAlone3D,
	"D2": NavStatusDifferential2D,
	"D3": NavStatusDifferential3D,
	"RK": NavStatusCombinedGPSDeadReckoning,
	"TT": NavStatusTimeOnly,
}

func (n NavStatus) String() string {
	for code, v := range navStatusCodes {
		if v == n {
			return code
		}
	}
	return fmt.Sprintf("NavStatus(%d)", int(n))
}

func parseNavStatus(s string) (NavStatus, error) {
	if v, ok := navStatusCodes[s]; ok {
		return v, nil
	}
	return 0, &DecodeError{Raw: s, Reason: "unknown navigation status"}
}

// SelectionMode is the GSA operating-mode selection field.
type SelectionMode string

const (
	SelectionManual    SelectionMode = "M"
	SelectionAutomatic SelectionMode = "A"
)

// FixMode is the GSA fix-mode field.
type FixMode int

const (
	FixModeUnknown FixMode = iota
	FixModeNone
	FixMode2D
	FixMode3D
)

// SystemID identifies the GNSS constellation in NMEA 4.1+ sentences.
type SystemID int

const (
	SystemUnknown SystemID = iota
	SystemGPS
	SystemGLONASS
	SystemGalileo
	SystemBeiDou
)

// GSTData is GPS pseudorange noise statistics.
type GSTData struct {
	FixTime              *time.Duration
	RMSDeviation         *float64
	SemiMajorDeviation   *float64
	SemiMinorDeviation   *float64
	SemiMajorOrientation *float64
	LatitudeError        *float64
	LongitudeError       *float64
	AltitudeError        *float64
}

// GSAData is DOP and active-satellite data.
type GSAData struct {
	SelectionMode SelectionMode
	Mode          FixMode
	PRNs          []*int // always 12 entries; nil where the channel is empty
	PDOP          *float64
	HDOP          *float64
	VDOP          *float64
	SystemID      *SystemID
}

// GSVData is one satellites-in-view sentence out of a group.
type GSVData struct {
	TotalCount *int
	Count      *int
	SatsInView *int
	PRN        *int
	Elevation  *int
	Azimuth    *int
	SNR        *int
	SystemID   *SystemID
}

// GSVCollection is a group of GSV sentences reported together.
type GSVCollection struct {
	Sentences []GSVData
}

// PUBX00Data is the u-blox lat/long position sentence.
type PUBX00Data struct {
	Time        *time.Duration // UTC time of day
	Latitude    DMS
	NS          byte
	Longitude   DMS
	EW          byte
	AltitudeM   float64
	NavStatus   NavStatus
	HAccM       float64
	VAccM       float64
	SpeedKmh    float64
	CourseDeg   float64
	VerticalVel float64 // m/s, positive downward
	DGPSAge     *float64
	HDOP        float64
	VDOP        float64
	TDOP        float64
	GPSSats     int
	GLONASSSats int
	DRSats      int
}

// SatStatus is one satellite record from a PUBX03 report.
type SatStatus struct {
	PRN       int
	Used      bool
	Azimuth   *int // degrees, 000..359
	Elevation *int // degrees, 00..90
	SNR       *int // C/N0, blank when not tracking
	LockTime  int  // seconds, 0..64
}

// PUBX03Data is the u-blox satellite status sentence.
type PUBX03Data struct {
	Satellites []SatStatus
}

// PUBX04Data is the u-blox time-of-day and clock sentence.
type PUBX04Data struct {
	Time                   *time.Duration
	Date                   *time.Time // UTC date at midnight
	TimeOfWeekS            float64
	WeekNumber             *int
	LeapSeconds            int
	LeapSecondsDefault     bool // true when marked 'D' (firmware default)
	ClockBiasNs            float64
	ClockDriftNs           float64
	TimepulseGranularityNs float64
}

// Fields splits a sentence into its comma fields, treating '*' as a field
// terminator so the checksum becomes the final field.
func Fields(raw string) []string {
	raw = strings.TrimRight(raw, "\r\n")
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if i := strings.IndexByte(f, '*'); i >= 0 {
			out = append(out, f[:i], f[i+1:])
		} else {
			out = append(out, f)
		}
	}
	return out
}

func parseGST(raw string, f []string) (GSTData, error) {
	const fieldCount = 10 // including the checksum
	if len(f) != fieldCount {
		return GSTData{}, &DecodeError{Raw: raw, Reason: fmt.Sprintf("GST sentence is not %d fields", fieldCount)}
	}
	return GSTData{
		FixTime:              optTimeOfDay(f[1]),
		RMSDeviation:         optFloat(f[2]),
		SemiMajorDeviation:   optFloat(f[3]),
		SemiMinorDeviation:   optFloat(f[4]),
		SemiMajorOrientation: optFloat(f[5]),
		LatitudeError:        optFloat(f[6]),
		LongitudeError:       optFloat(f[7]),
		AltitudeError:        optFloat(f[8]),
	}, nil
}

func parseGSA(raw string, f []string) (GSAData, error) {
	const fieldCount = 19 // without the NMEA 4.1 system ID
	if len(f) < fieldCount {
		return GSAData{}, &DecodeError{Raw: raw, Reason: fmt.Sprintf("GSA sentence is shorter than %d fields", fieldCount)}
	}
	sel := SelectionMode(f[1])
	mode := FixModeUnknown
	switch f[2] {
	case "1":
		mode = FixModeNone
	case "2":
		mode = FixMode2D
	case "3":
		mode = FixMode3D
	}
	prns := make([]*int, 0, 12)
	for _, v := range f[3:15] {
		prns = append(prns, optInt(v))
	}
	data := GSAData{
		SelectionMode: sel,
		Mode:          mode,
		PRNs:          prns,
		PDOP:          optFloat(f[15]),
		HDOP:          optFloat(f[16]),
		VDOP:          optFloat(f[17]),
	}
	if len(f) > fieldCount {
		data.SystemID = optSystemID(f[18])
	}
	return data, nil
}

func parseGSV(raw string, f []string) (GSVData, error) {
	const fieldCount = 8
	if len(f) < fieldCount {
		return GSVData{}, &DecodeError{Raw: raw, Reason: fmt.Sprintf("GSV sentence is shorter than %d fields", fieldCount)}
	}
	data := GSVData{
		TotalCount: optInt(f[1]),
		Count:      optInt(f[2]),
		SatsInView: optInt(f[3]),
		PRN:        optInt(f[4]),
		Elevation:  optInt(f[5]),
		Azimuth:    optInt(f[6]),
		SNR:        optInt(f[7]),
	}
	if len(f) > fieldCount {
		data.SystemID = optSystemID(f[8])
	}
	return data, nil
}

// parseGSVCollection decodes a space-separated group of GSV sentences into
// one ordered collection.
func parseGSVCollection(raw string) (GSVCollection, error) {
	var coll GSVCollection
	for _, part := range strings.Fields(raw) {
		data, err := parseGSV(part, Fields(part))
		if err != nil {
			return GSVCollection{}, err
		}
		coll.Sentences = append(coll.Sentences, data)
	}
	if len(coll.Sentences) == 0 {
		return GSVCollection{}, &DecodeError{Raw: raw, Reason: "empty GSV group"}
	}
	return coll, nil
}

func parsePUBX00(raw string, f []string) (PUBX00Data, error) {
	const fieldCount = 21
	if len(f) < fieldCount {
		return PUBX00Data{}, &DecodeError{Raw: raw, Reason: fmt.Sprintf("PUBX00 sentence is shorter than %d fields, got %d", fieldCount, len(f))}
	}
	lat, err := FromNMEAString(f[3])
	if err != nil {
		return PUBX00Data{}, err
	}
	lon, err := FromNMEAString(f[5])
	if err != nil {
		return PUBX00Data{}, err
	}
	nav, err := parseNavStatus(f[8])
	if err != nil {
		return PUBX00Data{}, err
	}
	data := PUBX00Data{
		Time:      optTimeOfDay(f[2]),
		Latitude:  lat,
		NS:        firstByte(f[4]),
		Longitude: lon,
		EW:        firstByte(f[6]),
		NavStatus: nav,
		DGPSAge:   optFloat(f[14]),
	}
	for _, fld := range []struct {
		dst *float64
		src string
	}{
		{&data.AltitudeM, f[7]},
		{&data.HAccM, f[9]},
		{&data.VAccM, f[10]},
		{&data.SpeedKmh, f[11]},
		{&data.CourseDeg, f[12]},
		{&data.VerticalVel, f[13]},
		{&data.HDOP, f[15]},
		{&data.VDOP, f[16]},
		{&data.TDOP, f[17]},
	} {
		v, err := strconv.ParseFloat(fld.src, 64)
		if err != nil {
			return PUBX00Data{}, &DecodeError{Raw: raw, Reason: "bad PUBX00 numeric field " + fld.src}
		}
		*fld.dst = v
	}
	for _, fld := range []struct {
		dst *int
		src string
	}{
		{&data.GPSSats, f[18]},
		{&data.GLONASSSats, f[19]},
		{&data.DRSats, f[20]},
	} {
		v, err := strconv.Atoi(fld.src)
		if err != nil {
			return PUBX00Data{}, &DecodeError{Raw: raw, Reason: "bad PUBX00 satellite count " + fld.src}
		}
		*fld.dst = v
	}
	return data, nil
}

func parsePUBX03(raw string, f []string) (PUBX03Data, error) {
	const fieldCount = 4    // $PUBX, 03, count, checksum
	const satFieldCount = 6 // prn, status, azimuth, elevation, snr, lock time
	if len(f) < fieldCount {
		return PUBX03Data{}, &DecodeError{Raw: raw, Reason: fmt.Sprintf("PUBX03 sentence is shorter than %d fields, got %d", fieldCount, len(f))}
	}
	count, err := strconv.Atoi(f[2])
	if err != nil {
		return PUBX03Data{}, &DecodeError{Raw: raw, Reason: "bad PUBX03 satellite count"}
	}
	if want := fieldCount + count*satFieldCount; len(f) != want {
		return PUBX03Data{}, &DecodeError{Raw: raw, Reason: fmt.Sprintf("PUBX03 sentence is not %d fields, got %d", want, len(f))}
	}
	sats := make([]SatStatus, 0, count)
	for i := 0; i < count; i++ {
		off := fieldCount - 1 + i*satFieldCount
		prn, err := strconv.Atoi(f[off])
		if err != nil {
			return PUBX03Data{}, &DecodeError{Raw: raw, Reason: "bad PUBX03 satellite PRN " + f[off]}
		}
		lock, err := strconv.Atoi(f[off+5])
		if err != nil {
			return PUBX03Data{}, &DecodeError{Raw: raw, Reason: "bad PUBX03 lock time " + f[off+5]}
		}
		sats = append(sats, SatStatus{
			PRN:       prn,
			Used:      firstByte(f[off+1]) == 'U',
			Azimuth:   optInt(f[off+2]),
			Elevation: optInt(f[off+3]),
			SNR:       optInt(f[off+4]),
			LockTime:  lock,
		})
	}
	return PUBX03Data{Satellites: sats}, nil
}

func parsePUBX04(raw string, f []string) (PUBX04Data, error) {
	const fieldCount = 10
	if len(f) < fieldCount {
		return PUBX04Data{}, &DecodeError{Raw: raw, Reason: fmt.Sprintf("PUBX04 sentence is shorter than %d fields, got %d", fieldCount, len(f))}
	}
	leap, err := strconv.Atoi(strings.TrimSuffix(f[6], "D"))
	if err != nil {
		return PUBX04Data{}, &DecodeError{Raw: raw, Reason: "bad PUBX04 leap seconds"}
	}
	data := PUBX04Data{
		Time:               optTimeOfDay(f[2]),
		Date:               optDate(f[3]),
		WeekNumber:         optInt(f[5]),
		LeapSeconds:        leap,
		LeapSecondsDefault: strings.HasSuffix(f[6], "D"),
	}
	for _, fld := range []struct {
		dst *float64
		src string
	}{
		{&data.TimeOfWeekS, f[4]},
		{&data.ClockBiasNs, f[7]},
		{&data.ClockDriftNs, f[8]},
		{&data.TimepulseGranularityNs, f[9]},
	} {
		v, err := strconv.ParseFloat(fld.src, 64)
		if err != nil {
			return PUBX04Data{}, &DecodeError{Raw: raw, Reason: "bad PUBX04 numeric field " + fld.src}
		}
		*fld.dst = v
	}
	return data, nil
}

// Per-field helpers: malformed non-critical fields degrade to nil rather
// than failing the sentence.

func optFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func optInt(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

func optSystemID(s string) *SystemID {
	id := SystemUnknown
	switch strings.TrimSpace(s) {
	case "1":
		id = SystemGPS
	case "2":
		id = SystemGLONASS
	case "3":
		id = SystemGalileo
	case "4":
		id = SystemBeiDou
	case "":
		return nil
	}
	return &id
}

func optTimeOfDay(s string) *time.Duration {
	d, ok := parseTimeOfDay(s)
	if !ok {
		return nil
	}
	return &d
}

func optDate(s string) *time.Time {
	t, err := time.Parse("020106", strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// parseTimeOfDay parses hhmmss[.sss] into an offset from midnight UTC.
func parseTimeOfDay(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	intPart, frac, _ := strings.Cut(s, ".")
	if len(intPart) != 6 {
		return 0, false
	}
	h, err1 := strconv.Atoi(intPart[0:2])
	m, err2 := strconv.Atoi(intPart[2:4])
	sec, err3 := strconv.Atoi(intPart[4:6])
	if err1 != nil || err2 != nil || err3 != nil || h > 23 || m > 59 || sec > 60 {
		return 0, false
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
	if frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return 0, false
		}
		d += time.Duration(f * float64(time.Second))
	}
	return d, true
}

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}
