package transport

// FakeTransport is a test double that answers exchanges from scripted
// per-command response queues.
type FakeTransport struct {
	// Responses maps a command word to its response queue. Each exchange
	// of that command consumes the next entry; when the queue is
	// exhausted the last entry repeats.
	Responses map[uint16][]uint16

	// Sent records every command word, in exchange order.
	Sent []uint16

	// ExchangeError, if set, will be returned by Exchange.
	ExchangeError error

	// Closed tracks if Close was called.
	Closed bool

	index map[uint16]int
}

// NewFakeTransport creates an empty FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		Responses: make(map[uint16][]uint16),
		index:     make(map[uint16]int),
	}
}

// Respond scripts the responses for a command word.
func (f *FakeTransport) Respond(command uint16, responses ...uint16) {
	f.Responses[command] = responses
}

// Exchange records the command and returns the next scripted response.
// Commands with no script return zero.
func (f *FakeTransport) Exchange(command uint16) (uint16, error) {
	if f.ExchangeError != nil {
		return 0, f.ExchangeError
	}
	f.Sent = append(f.Sent, command)

	queue := f.Responses[command]
	if len(queue) == 0 {
		return 0, nil
	}
	i := f.index[command]
	if i < len(queue)-1 {
		f.index[command] = i + 1
	}
	return queue[i], nil
}

// Close marks the transport as closed.
func (f *FakeTransport) Close() error {
	f.Closed = true
	return nil
}

// Reset clears the recorded commands and rewinds all response queues.
func (f *FakeTransport) Reset() {
	f.Sent = nil
	f.index = make(map[uint16]int)
	f.Closed = false
}
