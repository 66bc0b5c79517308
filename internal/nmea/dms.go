package nmea

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DMS is a fixed-point degrees/minutes/seconds coordinate magnitude.
//
// It carries no hemisphere or sign; N/S and E/W indicators travel alongside
// it wherever latitude/longitude appear. Minutes hold the literal NMEA mm
// digits (0..99), so Decimal/FromDecimal invert the raw NMEA field encoding
// rather than the classical base-60 conversion.
type DMS struct {
	Degrees uint16
	Minutes uint8
	Seconds uint8
}

func (d DMS) String() string {
	return fmt.Sprintf("%d° %d' %d\"", d.Degrees, d.Minutes, d.Seconds)
}

// FromNMEAString parses a coordinate field as it appears on the wire.
//
// Fields with a short (<=2 digit) fraction are hhmmss.ss (seconds-first);
// anything longer is ddmm.mmmm, the format used by PUBX position fields.
func FromNMEAString(s string) (DMS, error) {
	if len(s) < 7 || !strings.Contains(s, ".") {
		return DMS{}, &DecodeError{Raw: s, Reason: "not a valid DMS field"}
	}
	intPart, frac, _ := strings.Cut(s, ".")

	if len(frac) <= 2 {
		// hhmmss.ss
		fv, err := strconv.ParseFloat(frac, 64)
		if err != nil {
			return DMS{}, &DecodeError{Raw: s, Reason: "bad fractional seconds"}
		}
		sec := math.Round(fv / 100.0 * 60.0)
		min, err := strconv.ParseUint(intPart[len(intPart)-2:], 10, 8)
		if err != nil {
			return DMS{}, &DecodeError{Raw: s, Reason: "bad minutes"}
		}
		deg, err := strconv.ParseUint(intPart[:len(intPart)-2], 10, 16)
		if err != nil {
			return DMS{}, &DecodeError{Raw: s, Reason: "bad degrees"}
		}
		return DMS{Degrees: uint16(deg), Minutes: uint8(min), Seconds: clampUint8(sec)}, nil
	}

	// ddmm.mmmm / dddmm.mmmm: the last two integer digits and the fraction
	// are minutes, everything before them is degrees.
	deg, err := strconv.ParseUint(intPart[:len(intPart)-2], 10, 16)
	if err != nil {
		return DMS{}, &DecodeError{Raw: s, Reason: "bad degrees"}
	}
	min, err := strconv.ParseFloat(intPart[len(intPart)-2:]+"."+frac, 64)
	if err != nil {
		return DMS{}, &DecodeError{Raw: s, Reason: "bad minutes"}
	}
	whole := math.Floor(min)
	sec := (min - whole) * 60.0
	return DMS{Degrees: uint16(deg), Minutes: clampUint8(whole), Seconds: clampUint8(sec)}, nil
}

// FromDecimal converts decimal degrees to DMS. The fractional degrees map to
// the NMEA mm field (x100), inverting Decimal.
func FromDecimal(deg float64) DMS {
	whole := uint16(deg)
	frac := roundHalfUp((deg-float64(whole))*100.0, 6)
	if frac >= 100 {
		whole++
		frac -= 100
	}
	min := math.Floor(frac)
	sec := roundHalfUp((frac-min)*60.0, 6)
	return DMS{Degrees: whole, Minutes: clampUint8(min), Seconds: clampUint8(sec)}
}

// Decimal converts back to decimal degrees, rounded half-up at the given
// number of decimal places.
func (d DMS) Decimal(precision int) float64 {
	v := float64(d.Degrees) + (float64(d.Minutes)+float64(d.Seconds)/60.0)/100.0
	return roundHalfUp(v, precision)
}

func roundHalfUp(f float64, precision int) float64 {
	m := math.Pow(10, float64(precision))
	return math.Floor(f*m+0.5) / m
}

func clampUint8(f float64) uint8 {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f)
}
