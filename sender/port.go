// Package sender streams G-code to a machine controller over a serial line
// waiting for acknowledgement of every command.
package sender

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"gcpp/config"
)

// Port defines the minimal interface needed for a serial port.
type Port interface {
	io.ReadWriter
	io.Closer
}

// Mode converts configuration into serial parameters, controllers always use
// 8N1.
func Mode(conf *config.SenderConfig) *serial.Mode {
	return &serial.Mode{
		BaudRate: conf.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// OpenPort opens real serial port described by configuration.
func OpenPort(conf *config.SenderConfig) (Port, error) {
	port, err := serial.Open(conf.Port, Mode(conf))
	if err != nil {
		return nil, fmt.Errorf("unable to open serial port %q: %w", conf.Port, err)
	}
	return port, nil
}

// Ports lists serial ports present in the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
