package gps

import (
	"errors"

	"go.bug.st/serial"
)

func openPort(name string, baud int) (Transport, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// isPortClosed reports whether err means the port vanished underneath us,
// e.g. the receiver was unplugged.
func isPortClosed(err error) bool {
	var perr *serial.PortError
	return errors.As(err, &perr) && perr.Code() == serial.PortClosed
}
