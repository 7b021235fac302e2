// Package transport provides the synchronous 16-bit exchange primitive
// the front-end chip speaks, with hardware abstraction. The real
// implementation uses a spidev port; a serial bridge variant exists for
// bench work, and the fake allows testing without hardware.
package transport

// Transport performs one chip-selected 16-bit frame exchange.
type Transport interface {
	// Exchange shifts the command out MSB first and returns the word
	// shifted in during the same transaction.
	Exchange(command uint16) (uint16, error)

	// Close releases the underlying port.
	Close() error
}
