// Package publish pushes GPS fixes to an MQTT broker as JSON.
package publish

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/intrepidcs/mic2/internal/gps"
)

// Fix is the published JSON payload.
type Fix struct {
	Time       time.Time `json:"time"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	AltitudeM  float64   `json:"alt_m"`
	SpeedKmh   float64   `json:"speed_kmh"`
	CourseDeg  float64   `json:"course_deg"`
	NavStatus  string    `json:"nav_status"`
	Satellites int       `json:"satellites"`
	HDOP       float64   `json:"hdop,omitempty"`
}

// Publisher publishes fixes to one topic, optionally suppressing publishes
// until the position has moved a minimum distance.
type Publisher struct {
	client   mqtt.Client
	topic    string
	minMoveM float64

	lastLat float64
	lastLon float64
	hasLast bool
}

// New connects to the broker and returns a ready publisher.
func New(broker, clientID, topic string, minMoveM float64) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{client: client, topic: topic, minMoveM: minMoveM}, nil
}

// Publish sends the snapshot's fix if it is complete and has moved far
// enough. It reports whether a message went out.
func (p *Publisher) Publish(info gps.Info) (bool, error) {
	fix, ok := fixFromInfo(info)
	if !ok {
		return false, nil
	}
	if !p.shouldPublish(fix.Latitude, fix.Longitude) {
		return false, nil
	}
	payload, err := json.Marshal(fix)
	if err != nil {
		return false, err
	}
	token := p.client.Publish(p.topic, 0, true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return false, err
	}
	p.lastLat, p.lastLon, p.hasLast = fix.Latitude, fix.Longitude, true
	return true, nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// fixFromInfo extracts a publishable fix. A snapshot without a timestamped
// position is not publishable.
func fixFromInfo(info gps.Info) (Fix, bool) {
	if info.Timestamp == nil || info.Latitude == nil || info.Longitude == nil {
		return Fix{}, false
	}
	fix := Fix{
		Time:       *info.Timestamp,
		Latitude:   info.Latitude.Degrees(),
		Longitude:  info.Longitude.Degrees(),
		Satellites: len(info.Satellites),
	}
	if info.AltitudeM != nil {
		fix.AltitudeM = *info.AltitudeM
	}
	if info.SpeedKmh != nil {
		fix.SpeedKmh = *info.SpeedKmh
	}
	if info.CourseDeg != nil {
		fix.CourseDeg = *info.CourseDeg
	}
	if info.NavStatus != nil {
		fix.NavStatus = info.NavStatus.String()
	}
	if info.HDOP != nil {
		fix.HDOP = *info.HDOP
	}
	return fix, true
}

// shouldPublish applies the minimum-movement gate.
func (p *Publisher) shouldPublish(lat, lon float64) bool {
	if p.minMoveM <= 0 || !p.hasLast {
		return true
	}
	return gps.DistanceMeters(p.lastLat, p.lastLon, lat, lon) >= p.minMoveM
}
