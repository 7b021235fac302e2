package adc

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MCP3008Sampler reads the three logical channels from an MCP3008
// 10-bit SPI converter. Each read is a single-ended conversion: a
// three-byte transaction carrying the start bit, the mux selection and
// the 10 result bits.
type MCP3008Sampler struct {
	port   spi.PortCloser
	conn   spi.Conn
	inputs map[Channel]int // logical channel -> converter input number
}

// NewMCP3008Sampler opens the named spidev port and maps the logical
// channels to converter inputs.
func NewMCP3008Sampler(device string, inputs map[Channel]int) (*MCP3008Sampler, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	port, err := spireg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open adc port %s: %w", device, err)
	}

	// The MCP3008 is good to 1.35 MHz at 3.3V; mode 0.
	conn, err := port.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect adc port %s: %w", device, err)
	}

	return &MCP3008Sampler{port: port, conn: conn, inputs: inputs}, nil
}

// Sample performs one single-ended conversion on the channel.
func (s *MCP3008Sampler) Sample(ch Channel) (int, error) {
	input, ok := s.inputs[ch]
	if !ok || input < 0 || input > 7 {
		return 0, fmt.Errorf("channel %s not mapped to a converter input", ch)
	}

	w := []byte{0x01, byte(0x08|input) << 4, 0x00}
	r := make([]byte, 3)
	if err := s.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("adc read %s: %w", ch, err)
	}
	return int(r[1]&0x03)<<8 | int(r[2]), nil
}

// Close releases the SPI port.
func (s *MCP3008Sampler) Close() error {
	return s.port.Close()
}
