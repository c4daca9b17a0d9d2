package intake

import (
	"bufio"
	"context"
	"log"

	"go.bug.st/serial"
)

// SerialIntake reads packet dumps from a serial port. Debug firmware
// commonly streams one hex-encoded packet per line; each decoded line is
// delivered on the Packets channel as its own buffer. Lines that fail to
// decode are logged and skipped, never fatal.
type SerialIntake struct {
	port    serial.Port
	packets chan []byte
}

// NewSerialIntake opens the named serial port at the given baud rate.
func NewSerialIntake(portName string, baudRate int) (*SerialIntake, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	return NewSerialIntakeFromPort(port), nil
}

// NewSerialIntakeFromPort wraps an already-open port. Tests supply mock
// ports here.
func NewSerialIntakeFromPort(port serial.Port) *SerialIntake {
	return &SerialIntake{
		port:    port,
		packets: make(chan []byte),
	}
}

// Packets returns the channel of decoded packet buffers.
func (s *SerialIntake) Packets() <-chan []byte {
	return s.packets
}

// Close closes the underlying port.
func (s *SerialIntake) Close() error {
	return s.port.Close()
}

// Monitor scans lines from the port until EOF or cancellation, decoding
// each line as hex (with a byte-list fallback) and forwarding the result.
func (s *SerialIntake) Monitor(ctx context.Context) error {
	defer close(s.packets)
	scan := bufio.NewScanner(s.port)
	for scan.Scan() {
		line := scan.Text()
		if line == "" {
			continue
		}

		buf, err := ParseHexDump(line)
		if err != nil {
			buf, err = ParseByteDump(line)
		}
		if err != nil {
			log.Printf("serial: skipping undecodable line %q: %v", line, err)
			continue
		}

		select {
		case s.packets <- buf:
		case <-ctx.Done():
			return nil
		}
	}
	return scan.Err()
}
