package transport

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPITransport exchanges frames over a spidev port. The chip wants SPI
// mode 1 and tolerates up to 2 MHz; chip select is asserted for the
// duration of each Tx, which is exactly the bracketing the protocol
// requires.
type SPITransport struct {
	port spi.PortCloser
	conn spi.Conn
}

// NewSPITransport opens the named spidev port (e.g. "/dev/spidev0.0").
func NewSPITransport(device string, speed physic.Frequency) (*SPITransport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	port, err := spireg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open spi port %s: %w", device, err)
	}

	conn, err := port.Connect(speed, spi.Mode1, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi port %s: %w", device, err)
	}

	return &SPITransport{port: port, conn: conn}, nil
}

// Exchange performs one full-duplex 16-bit transaction, MSB first.
func (t *SPITransport) Exchange(command uint16) (uint16, error) {
	w := []byte{byte(command >> 8), byte(command)}
	r := make([]byte, 2)
	if err := t.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("spi exchange: %w", err)
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}

// Close releases the SPI port.
func (t *SPITransport) Close() error {
	return t.port.Close()
}
