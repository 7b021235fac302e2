// Package adc provides quantized analog sampling of the controller's
// three input channels with hardware abstraction. The real
// implementation reads an MCP3008 10-bit converter over SPI; the fake
// allows testing with scripted sample sequences.
package adc

// Channel identifies one logical analog input.
type Channel int

const (
	// ChannelUA is the lambda-proxy output of the front-end chip.
	ChannelUA Channel = iota
	// ChannelUR is the temperature-proxy output, inversely proportional
	// to the sensor element temperature.
	ChannelUR
	// ChannelUB is the supply-voltage proxy behind the divider.
	ChannelUB
)

// String returns the channel's conventional name.
func (c Channel) String() string {
	switch c {
	case ChannelUA:
		return "UA"
	case ChannelUR:
		return "UR"
	case ChannelUB:
		return "UB"
	}
	return "?"
}

// Sampler reads 10-bit samples (0..1023) from the analog channels.
type Sampler interface {
	// Sample returns the latest quantized reading of the channel.
	Sample(ch Channel) (int, error)

	// Close releases the converter.
	Close() error
}
