package transport

import (
	"errors"
	"testing"
)

// scriptedReader returns its chunks one Read at a time; an empty chunk
// models a timed-out read window ((0, nil), as go.bug.st/serial does).
type scriptedReader struct {
	chunks [][]byte
	err    error // returned after the chunks run out
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, r.err
	}
	chunk := r.chunks[0]
	r.chunks = r.chunks[1:]
	return copy(p, chunk), nil
}

func TestReadFrameWholeFrame(t *testing.T) {
	r := &scriptedReader{chunks: [][]byte{{0x28, 0xFF}}}
	buf := make([]byte, 2)
	n, err := readFrame(r, buf)
	if err != nil || n != 2 {
		t.Fatalf("readFrame = %d, %v", n, err)
	}
	if buf[0] != 0x28 || buf[1] != 0xFF {
		t.Errorf("buf = %02X", buf)
	}
}

func TestReadFrameAccumulatesPartialReads(t *testing.T) {
	r := &scriptedReader{chunks: [][]byte{{0x28}, {0xFF}}}
	buf := make([]byte, 2)
	n, err := readFrame(r, buf)
	if err != nil || n != 2 {
		t.Fatalf("readFrame = %d, %v", n, err)
	}
	if buf[0] != 0x28 || buf[1] != 0xFF {
		t.Errorf("buf = %02X", buf)
	}
}

func TestReadFrameTimeoutDoesNotSpin(t *testing.T) {
	// A dead bridge yields endless (0, nil) reads; readFrame must fail
	// after the first empty window rather than loop.
	r := &scriptedReader{chunks: [][]byte{{0x28}, {}}}
	buf := make([]byte, 2)
	n, err := readFrame(r, buf)
	if !errors.Is(err, errReadTimeout) {
		t.Fatalf("err = %v, want errReadTimeout", err)
	}
	if n != 1 {
		t.Errorf("read %d bytes before timeout, want 1", n)
	}
}

func TestReadFramePropagatesErrors(t *testing.T) {
	portErr := errors.New("port gone")
	r := &scriptedReader{err: portErr}
	if _, err := readFrame(r, make([]byte, 2)); !errors.Is(err, portErr) {
		t.Fatalf("err = %v, want wrapped port error", err)
	}
}
