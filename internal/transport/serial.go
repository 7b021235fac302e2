package transport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// errReadTimeout marks a read window that elapsed with no data.
var errReadTimeout = fmt.Errorf("serial read timeout")

// SerialTransport exchanges frames through a USB serial bridge (a small
// MCU that forwards each 16-bit word to the chip's SPI bus and echoes
// the word it received back). Useful for bench work on machines without
// a spidev port.
type SerialTransport struct {
	port serial.Port
}

// NewSerialTransport opens the named serial port, 8N1 at the given baud
// rate, with a one-second read timeout so a dead bridge surfaces as an
// error instead of a hang.
func NewSerialTransport(device string, baud int) (*SerialTransport, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &SerialTransport{port: port}, nil
}

// Exchange writes the command as two bytes MSB first and reads the
// two-byte response.
func (t *SerialTransport) Exchange(command uint16) (uint16, error) {
	w := []byte{byte(command >> 8), byte(command)}
	if _, err := t.port.Write(w); err != nil {
		return 0, fmt.Errorf("serial write: %w", err)
	}

	r := make([]byte, 2)
	if n, err := readFrame(t.port, r); err != nil {
		return 0, fmt.Errorf("serial read (%d of %d bytes): %w", n, len(r), err)
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}

// readFrame fills buf from the port. The port's Read returns (0, nil)
// when its read timeout elapses with no data, which io.ReadFull would
// loop on forever; here an empty window fails the exchange instead.
func readFrame(port io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := port.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, errReadTimeout
		}
	}
	return n, nil
}

// Close releases the serial port.
func (t *SerialTransport) Close() error {
	return t.port.Close()
}
