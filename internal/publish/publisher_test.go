package publish

import (
	"testing"
	"time"

	"github.com/intrepidcs/mic2/internal/gps"
	"github.com/intrepidcs/mic2/internal/nmea"
)

func ptr[T any](v T) *T { return &v }

func fullInfo() gps.Info {
	ts := time.Date(2024, time.June, 1, 8, 13, 50, 0, time.UTC)
	nav := nmea.NavStatusStandAlone3D
	return gps.Info{
		Timestamp: &ts,
		Latitude:  &gps.Position{DMS: nmea.DMS{Degrees: 47, Minutes: 17, Seconds: 6}, Hemisphere: 'N'},
		Longitude: &gps.Position{DMS: nmea.DMS{Degrees: 8, Minutes: 33, Seconds: 54}, Hemisphere: 'E'},
		AltitudeM: ptr(546.589),
		SpeedKmh:  ptr(0.007),
		CourseDeg: ptr(77.52),
		HDOP:      ptr(0.92),
		NavStatus: &nav,
		Satellites: []nmea.SatStatus{
			{PRN: 2, Used: true},
			{PRN: 8, Used: true},
		},
	}
}

func TestFixFromInfo(t *testing.T) {
	fix, ok := fixFromInfo(fullInfo())
	if !ok {
		t.Fatalf("fixFromInfo()=not publishable, want fix")
	}
	if fix.Latitude <= 0 || fix.Longitude <= 0 {
		t.Fatalf("lat/lon=%v/%v want positive", fix.Latitude, fix.Longitude)
	}
	if fix.AltitudeM != 546.589 || fix.SpeedKmh != 0.007 || fix.CourseDeg != 77.52 {
		t.Fatalf("fix=%+v has wrong scalars", fix)
	}
	if fix.NavStatus != "G3" {
		t.Fatalf("NavStatus=%q want G3", fix.NavStatus)
	}
	if fix.Satellites != 2 {
		t.Fatalf("Satellites=%d want 2", fix.Satellites)
	}
	if fix.HDOP != 0.92 {
		t.Fatalf("HDOP=%v want 0.92", fix.HDOP)
	}
}

func TestFixFromInfo_Incomplete(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*gps.Info)
	}{
		{name: "NoTimestamp", mod: func(i *gps.Info) { i.Timestamp = nil }},
		{name: "NoLatitude", mod: func(i *gps.Info) { i.Latitude = nil }},
		{name: "NoLongitude", mod: func(i *gps.Info) { i.Longitude = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := fullInfo()
			tc.mod(&info)
			if _, ok := fixFromInfo(info); ok {
				t.Fatalf("fixFromInfo()=publishable, want not")
			}
		})
	}
}

func TestShouldPublish_MovementGate(t *testing.T) {
	p := &Publisher{minMoveM: 50}

	// First fix always publishes.
	if !p.shouldPublish(47.285, 8.565) {
		t.Fatalf("first fix suppressed")
	}
	p.lastLat, p.lastLon, p.hasLast = 47.285, 8.565, true

	// A few meters of drift stays suppressed.
	if p.shouldPublish(47.28501, 8.56501) {
		t.Fatalf("sub-threshold move published")
	}

	// ~1.1 km north clears the gate.
	if !p.shouldPublish(47.295, 8.565) {
		t.Fatalf("large move suppressed")
	}
}

func TestShouldPublish_GateDisabled(t *testing.T) {
	p := &Publisher{}
	p.lastLat, p.lastLon, p.hasLast = 47.285, 8.565, true
	if !p.shouldPublish(47.285, 8.565) {
		t.Fatalf("zero min_move_m must always publish")
	}
}
