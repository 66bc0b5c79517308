package nmea

import (
	"errors"
	"testing"
	"time"
)

func mustData(t *testing.T, raw string) Data {
	t.Helper()
	data, err := NewSentence(raw).Data()
	if err != nil {
		t.Fatalf("Data(%q) error: %v", raw, err)
	}
	return data
}

func requireFloatEq(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s=nil want %v", name, want)
	}
	if *got != want {
		t.Fatalf("%s=%v want %v", name, *got, want)
	}
}

func TestData_GST(t *testing.T) {
	data := mustData(t, "$GPGST,182141.000,15.5,15.3,7.2,21.8,0.9,0.5,0.8*54")
	gst, ok := data.(GSTData)
	if !ok {
		t.Fatalf("got %T want GSTData", data)
	}
	wantTime := 18*time.Hour + 21*time.Minute + 41*time.Second
	if gst.FixTime == nil || *gst.FixTime != wantTime {
		t.Fatalf("FixTime=%v want %s", gst.FixTime, wantTime)
	}
	requireFloatEq(t, "RMSDeviation", gst.RMSDeviation, 15.5)
	requireFloatEq(t, "SemiMajorOrientation", gst.SemiMajorOrientation, 21.8)
	requireFloatEq(t, "AltitudeError", gst.AltitudeError, 0.8)
}

func TestData_GST_WrongArity(t *testing.T) {
	_, err := NewSentence("$GPGST,182141.000,15.5*54").Data()
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err=%v want *DecodeError", err)
	}
}

func TestData_GSA(t *testing.T) {
	data := mustData(t, "$GNGSA,A,3,80,71,73,79,69,,,,,,,,1.83,1.09,1.47*17")
	gsa, ok := data.(GSAData)
	if !ok {
		t.Fatalf("got %T want GSAData", data)
	}
	if gsa.SelectionMode != SelectionAutomatic {
		t.Fatalf("SelectionMode=%q want A", gsa.SelectionMode)
	}
	if gsa.Mode != FixMode3D {
		t.Fatalf("Mode=%v want FixMode3D", gsa.Mode)
	}
	if len(gsa.PRNs) != 12 {
		t.Fatalf("len(PRNs)=%d want 12", len(gsa.PRNs))
	}
	if gsa.PRNs[0] == nil || *gsa.PRNs[0] != 80 {
		t.Fatalf("PRNs[0]=%v want 80", gsa.PRNs[0])
	}
	if gsa.PRNs[4] == nil || *gsa.PRNs[4] != 69 {
		t.Fatalf("PRNs[4]=%v want 69", gsa.PRNs[4])
	}
	if gsa.PRNs[5] != nil {
		t.Fatalf("PRNs[5]=%v want nil", *gsa.PRNs[5])
	}
	requireFloatEq(t, "PDOP", gsa.PDOP, 1.83)
	requireFloatEq(t, "HDOP", gsa.HDOP, 1.09)
	requireFloatEq(t, "VDOP", gsa.VDOP, 1.47)
}

func TestData_GSVGroup(t *testing.T) {
	raw := "$GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00*74" +
		" $GPGSV,3,2,11,14,25,170,00,16,57,208,39,18,67,296,40,19,40,246,00*74" +
		" $GPGSV,3,3,11,22,42,067,42,24,14,311,43,27,05,244,00,,,,*4D"
	data := mustData(t, raw)
	coll, ok := data.(GSVCollection)
	if !ok {
		t.Fatalf("got %T want GSVCollection", data)
	}
	if len(coll.Sentences) != 3 {
		t.Fatalf("len(Sentences)=%d want 3", len(coll.Sentences))
	}
	first := coll.Sentences[0]
	if first.TotalCount == nil || *first.TotalCount != 3 {
		t.Fatalf("TotalCount=%v want 3", first.TotalCount)
	}
	if first.SatsInView == nil || *first.SatsInView != 11 {
		t.Fatalf("SatsInView=%v want 11", first.SatsInView)
	}
	if first.PRN == nil || *first.PRN != 3 {
		t.Fatalf("PRN=%v want 3", first.PRN)
	}
	third := coll.Sentences[2]
	if third.Count == nil || *third.Count != 3 {
		t.Fatalf("Count=%v want 3", third.Count)
	}
}

func TestData_PUBX00_NoFix(t *testing.T) {
	raw := "$PUBX,00,025554.00,0000.00000,N,00000.00000,E,0.000,NF,5311696,3755936,0.000,0.00,0.000,,99.99,99.99,99.99,0,0,0*28\r\n"
	data := mustData(t, raw)
	p, ok := data.(PUBX00Data)
	if !ok {
		t.Fatalf("got %T want PUBX00Data", data)
	}
	if p.NavStatus != NavStatusNoFix {
		t.Fatalf("NavStatus=%v want NF", p.NavStatus)
	}
	wantTime := 2*time.Hour + 55*time.Minute + 54*time.Second
	if p.Time == nil || *p.Time != wantTime {
		t.Fatalf("Time=%v want %s", p.Time, wantTime)
	}
	if (p.Latitude != DMS{}) || p.NS != 'N' {
		t.Fatalf("Latitude=%v NS=%c want zero N", p.Latitude, p.NS)
	}
	if (p.Longitude != DMS{}) || p.EW != 'E' {
		t.Fatalf("Longitude=%v EW=%c want zero E", p.Longitude, p.EW)
	}
	if p.HAccM != 5311696 || p.VAccM != 3755936 {
		t.Fatalf("HAccM=%v VAccM=%v want 5311696 3755936", p.HAccM, p.VAccM)
	}
	if p.DGPSAge != nil {
		t.Fatalf("DGPSAge=%v want nil", *p.DGPSAge)
	}
	if p.HDOP != 99.99 || p.VDOP != 99.99 || p.TDOP != 99.99 {
		t.Fatalf("DOP=%v/%v/%v want 99.99", p.HDOP, p.VDOP, p.TDOP)
	}
	if p.GPSSats != 0 || p.GLONASSSats != 0 || p.DRSats != 0 {
		t.Fatalf("sat counts=%d/%d/%d want 0", p.GPSSats, p.GLONASSSats, p.DRSats)
	}
}

func TestData_PUBX03_Empty(t *testing.T) {
	data := mustData(t, "$PUBX,03,00*1C\r\n")
	p, ok := data.(PUBX03Data)
	if !ok {
		t.Fatalf("got %T want PUBX03Data", data)
	}
	if len(p.Satellites) != 0 {
		t.Fatalf("len(Satellites)=%d want 0", len(p.Satellites))
	}
}

func TestData_PUBX03_Satellites(t *testing.T) {
	raw := "$PUBX,03,06,2,U,137,37,24,000,8,U,053,52,28,064,9,U,202,12,21,000,14,-,,,22,000,27,-,049,16,,000,81,-,,,08,000*54\r\n"
	data := mustData(t, raw)
	p, ok := data.(PUBX03Data)
	if !ok {
		t.Fatalf("got %T want PUBX03Data", data)
	}
	if len(p.Satellites) != 6 {
		t.Fatalf("len(Satellites)=%d want 6", len(p.Satellites))
	}
	first := p.Satellites[0]
	if first.PRN != 2 || !first.Used || first.LockTime != 0 {
		t.Fatalf("first=%+v want PRN 2 used lock 0", first)
	}
	if first.Azimuth == nil || *first.Azimuth != 137 {
		t.Fatalf("first.Azimuth=%v want 137", first.Azimuth)
	}
	if first.Elevation == nil || *first.Elevation != 37 {
		t.Fatalf("first.Elevation=%v want 37", first.Elevation)
	}
	if first.SNR == nil || *first.SNR != 24 {
		t.Fatalf("first.SNR=%v want 24", first.SNR)
	}

	second := p.Satellites[1]
	if second.PRN != 8 || second.LockTime != 64 {
		t.Fatalf("second=%+v want PRN 8 lock 64", second)
	}

	// Untracked satellite with blank azimuth/elevation.
	fourth := p.Satellites[3]
	if fourth.PRN != 14 || fourth.Used {
		t.Fatalf("fourth=%+v want PRN 14 unused", fourth)
	}
	if fourth.Azimuth != nil || fourth.Elevation != nil {
		t.Fatalf("fourth azimuth/elevation=%v/%v want nil", fourth.Azimuth, fourth.Elevation)
	}
	if fourth.SNR == nil || *fourth.SNR != 22 {
		t.Fatalf("fourth.SNR=%v want 22", fourth.SNR)
	}
}

func TestData_PUBX03_CountMismatch(t *testing.T) {
	_, err := NewSentence("$PUBX,03,02,2,U,137,37,24,000*54").Data()
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err=%v want *DecodeError", err)
	}
}

func TestData_PUBX04(t *testing.T) {
	raw := "$PUBX,04,073731.00,091202,113851.00,1196,15D,1930035,-2660.664,43,*3C"
	data := mustData(t, raw)
	p, ok := data.(PUBX04Data)
	if !ok {
		t.Fatalf("got %T want PUBX04Data", data)
	}
	wantTime := 7*time.Hour + 37*time.Minute + 31*time.Second
	if p.Time == nil || *p.Time != wantTime {
		t.Fatalf("Time=%v want %s", p.Time, wantTime)
	}
	wantDate := time.Date(2002, time.December, 9, 0, 0, 0, 0, time.UTC)
	if p.Date == nil || !p.Date.Equal(wantDate) {
		t.Fatalf("Date=%v want %s", p.Date, wantDate)
	}
	if p.TimeOfWeekS != 113851 {
		t.Fatalf("TimeOfWeekS=%v want 113851", p.TimeOfWeekS)
	}
	if p.WeekNumber == nil || *p.WeekNumber != 1196 {
		t.Fatalf("WeekNumber=%v want 1196", p.WeekNumber)
	}
	if p.LeapSeconds != 15 || !p.LeapSecondsDefault {
		t.Fatalf("LeapSeconds=%d default=%v want 15 true", p.LeapSeconds, p.LeapSecondsDefault)
	}
	if p.ClockBiasNs != 1930035 || p.ClockDriftNs != -2660.664 || p.TimepulseGranularityNs != 43 {
		t.Fatalf("clock=%v/%v/%v want 1930035/-2660.664/43", p.ClockBiasNs, p.ClockDriftNs, p.TimepulseGranularityNs)
	}
}

func TestData_Unsupported(t *testing.T) {
	for _, raw := range []string{
		"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A",
		"$PUBX,41,1,0007,0003,19200,0*25",
	} {
		_, err := NewSentence(raw).Data()
		var derr *DecodeError
		if !errors.As(err, &derr) {
			t.Fatalf("Data(%q) err=%v want *DecodeError", raw, err)
		}
	}
}

func TestFramer_Feed(t *testing.T) {
	var f Framer

	// A complete sentence passes straight through.
	got, kind := f.Feed("$PUBX,03,00*1C")
	if kind != SegmentComplete || got != "$PUBX,03,00*1C" {
		t.Fatalf("Feed(complete)=%q,%v want sentence,SegmentComplete", got, kind)
	}

	// A start without a checksum begins accumulation.
	if _, kind := f.Feed("$PUBX,03,06,2,U,137,37,24,000,"); kind != SegmentAbsorbed {
		t.Fatalf("Feed(start)=%v want SegmentAbsorbed", kind)
	}
	if _, kind := f.Feed("8,U,053,52,28,064,"); kind != SegmentAbsorbed {
		t.Fatalf("Feed(middle)=%v want SegmentAbsorbed", kind)
	}
	got, kind = f.Feed("9,U,202,12,21,000*1B")
	if kind != SegmentComplete {
		t.Fatalf("Feed(tail)=%v want SegmentComplete", kind)
	}
	want := "$PUBX,03,06,2,U,137,37,24,000,8,U,053,52,28,064,9,U,202,12,21,000*1B"
	if got != want {
		t.Fatalf("reassembled=%q want %q", got, want)
	}

	// Non-sentence bytes with nothing buffered cannot be NMEA.
	if _, kind := f.Feed("garbage"); kind != SegmentInvalid {
		t.Fatalf("Feed(garbage)=%v want SegmentInvalid", kind)
	}

	// A new start drops a stale partial.
	f.Feed("$PUBX,00,025554.00,")
	got, kind = f.Feed("$PUBX,03,00*1C")
	if kind != SegmentComplete || got != "$PUBX,03,00*1C" {
		t.Fatalf("Feed(restart)=%q,%v want fresh sentence", got, kind)
	}
}
