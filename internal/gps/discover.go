package gps

import (
	"strconv"

	"go.bug.st/serial/enumerator"
)

// u-blox USB product IDs for the receiver generations we support.
var ubloxPIDs = []uint16{0x01A8, 0x01A7}

// FindAll enumerates serial ports and returns a Device for every attached
// u-blox receiver.
func FindAll() ([]*Device, error) {
	var devices []*Device
	for _, pid := range ubloxPIDs {
		found, err := Find(ubloxVID, pid)
		if err != nil {
			return nil, err
		}
		devices = append(devices, found...)
	}
	return devices, nil
}

// Find returns a Device for every attached USB serial port matching the
// given vendor/product pair.
func Find(vid, pid uint16) ([]*Device, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	var devices []*Device
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		portVID, err1 := strconv.ParseUint(port.VID, 16, 16)
		portPID, err2 := strconv.ParseUint(port.PID, 16, 16)
		if err1 != nil || err2 != nil {
			continue
		}
		if uint16(portVID) != vid || uint16(portPID) != pid {
			continue
		}
		devices = append(devices, NewDevice(port.Name, vid, pid))
	}
	return devices, nil
}

// FindFirst returns the first attached u-blox receiver, or ErrInvalidDevice
// when none is present.
func FindFirst() (*Device, error) {
	devices, err := FindAll()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrInvalidDevice
	}
	return devices[0], nil
}
