package gps

import (
	"log"
	"sync"
	"time"

	"github.com/intrepidcs/mic2/internal/nmea"
)

// Position is a coordinate magnitude plus its hemisphere indicator.
type Position struct {
	DMS        nmea.DMS
	Hemisphere byte // 'N'/'S' for latitude, 'E'/'W' for longitude
}

// Degrees returns signed decimal degrees: negative for 'S' and 'W'.
func (p Position) Degrees() float64 {
	v := p.DMS.Decimal(7)
	if p.Hemisphere == 'S' || p.Hemisphere == 'W' {
		return -v
	}
	return v
}

// Info is a point-in-time snapshot of everything the receiver has reported.
// Nil pointers mean the receiver has not reported that value yet.
type Info struct {
	Timestamp *time.Time

	// Position group, from PUBX00.
	Latitude    *Position
	Longitude   *Position
	AltitudeM   *float64
	HAccM       *float64
	VAccM       *float64
	SpeedKmh    *float64
	CourseDeg   *float64
	VerticalVel *float64 // m/s, positive downward
	DGPSAge     *float64
	HDOP        *float64
	VDOP        *float64
	TDOP        *float64
	NavStatus   *nmea.NavStatus

	// Satellite group, from PUBX03.
	Satellites []nmea.SatStatus

	// Clock group, from PUBX04.
	ClockBiasNs            *float64
	ClockDriftNs           *float64
	TimepulseGranularityNs *float64
}

// state is the shared aggregation store behind a Device. Updates and
// snapshots are independently locked so readers never block the read loop
// longer than a struct copy.
type state struct {
	mu   sync.RWMutex
	now  func() time.Time // swappable in tests
	info Info
}

func newState() *state {
	return &state{now: time.Now}
}

// update folds one decoded sentence into the snapshot. Each sentence owns a
// group of fields and overwrites that group wholesale; groups it does not
// own are left alone. Sentences with no aggregation rule are dropped.
func (s *state) update(d nmea.Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := d.(type) {
	case nmea.PUBX00Data:
		s.info.Latitude = &Position{DMS: v.Latitude, Hemisphere: v.NS}
		s.info.Longitude = &Position{DMS: v.Longitude, Hemisphere: v.EW}
		s.info.AltitudeM = ptr(v.AltitudeM)
		s.info.HAccM = ptr(v.HAccM)
		s.info.VAccM = ptr(v.VAccM)
		s.info.SpeedKmh = ptr(v.SpeedKmh)
		s.info.CourseDeg = ptr(v.CourseDeg)
		s.info.VerticalVel = ptr(v.VerticalVel)
		s.info.DGPSAge = v.DGPSAge
		s.info.HDOP = ptr(v.HDOP)
		s.info.VDOP = ptr(v.VDOP)
		s.info.TDOP = ptr(v.TDOP)
		s.info.NavStatus = ptr(v.NavStatus)
		// PUBX00 carries only a time of day. Fill the timestamp from the
		// local UTC date as a stopgap until PUBX04 delivers the real date;
		// never overwrite a timestamp that is already set.
		if s.info.Timestamp == nil && v.Time != nil {
			midnight := s.now().UTC().Truncate(24 * time.Hour)
			s.info.Timestamp = ptr(midnight.Add(*v.Time))
		}
	case nmea.PUBX03Data:
		s.info.Satellites = append([]nmea.SatStatus(nil), v.Satellites...)
	case nmea.PUBX04Data:
		if v.Date != nil && v.Time != nil {
			s.info.Timestamp = ptr(v.Date.Add(*v.Time))
		}
		s.info.ClockBiasNs = ptr(v.ClockBiasNs)
		s.info.ClockDriftNs = ptr(v.ClockDriftNs)
		s.info.TimepulseGranularityNs = ptr(v.TimepulseGranularityNs)
	default:
		log.Printf("gps: dropping %s sentence with no aggregation rule", sentenceName(d))
	}
}

// snapshot returns a copy safe to hold across further updates. Updates
// replace pointers rather than mutating through them, so sharing the
// pointees is fine; only the satellite slice needs a deep copy.
func (s *state) snapshot() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := s.info
	info.Satellites = append([]nmea.SatStatus(nil), s.info.Satellites...)
	return info
}

func sentenceName(d nmea.Data) string {
	switch d.(type) {
	case nmea.GSTData:
		return "GST"
	case nmea.GSAData:
		return "GSA"
	case nmea.GSVCollection:
		return "GSV"
	}
	return "unknown"
}

func ptr[T any](v T) *T {
	return &v
}
