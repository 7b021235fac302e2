package adc

import "fmt"

// FakeSampler is a test double that returns scripted per-channel sample
// sequences.
type FakeSampler struct {
	// Samples contains the scripted values per channel. Each Sample call
	// consumes the next value; when a channel's script is exhausted, the
	// last value repeats.
	Samples map[Channel][]int

	// Reads records every channel read, in order.
	Reads []Channel

	// SampleError, if set, will be returned by Sample.
	SampleError error

	// Closed tracks if Close was called.
	Closed bool

	index map[Channel]int
}

// NewFakeSampler creates a FakeSampler with the given scripts.
func NewFakeSampler(samples map[Channel][]int) *FakeSampler {
	return &FakeSampler{
		Samples: samples,
		index:   make(map[Channel]int),
	}
}

// Sample returns the next scripted value for the channel.
func (f *FakeSampler) Sample(ch Channel) (int, error) {
	if f.SampleError != nil {
		return 0, f.SampleError
	}

	script := f.Samples[ch]
	if len(script) == 0 {
		return 0, fmt.Errorf("no samples configured for channel %s", ch)
	}
	f.Reads = append(f.Reads, ch)

	i := f.index[ch]
	if i < len(script)-1 {
		f.index[ch] = i + 1
	}
	return script[i], nil
}

// Close marks the sampler as closed.
func (f *FakeSampler) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds all channel scripts and clears the read log.
func (f *FakeSampler) Reset() {
	f.index = make(map[Channel]int)
	f.Reads = nil
	f.Closed = false
}
