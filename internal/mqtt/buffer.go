package mqtt

// bufferedMsg stores a serialized message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineBuffer is a fixed-capacity FIFO holding messages produced while
// the broker is unreachable. When full, the oldest reading is dropped
// first: a stale lambda reading is worth less than a fresh one, but
// lifecycle events (STARTUP, SHUTDOWN, RECOVERY) are rare and mark
// outages, so they are only evicted when nothing else is left.
// Not safe for concurrent use — caller must synchronize.
type offlineBuffer struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int // readings dropped since the last drain
}

func newOfflineBuffer(capacity int) *offlineBuffer {
	return &offlineBuffer{capacity: capacity}
}

func (b *offlineBuffer) push(msg bufferedMsg) {
	if len(b.msgs) == b.capacity {
		b.evict()
	}
	b.msgs = append(b.msgs, msg)
}

// evict removes the oldest reading, falling back to the oldest message
// of any kind if the buffer holds only lifecycle events.
func (b *offlineBuffer) evict() {
	idx := 0
	for i, m := range b.msgs {
		if m.topic == TopicReadings {
			idx = i
			break
		}
	}
	b.msgs = append(b.msgs[:idx], b.msgs[idx+1:]...)
	b.dropped++
}

// drainAll returns everything buffered, oldest first, along with how
// many messages were dropped during the outage, and resets the buffer.
func (b *offlineBuffer) drainAll() ([]bufferedMsg, int) {
	msgs, dropped := b.msgs, b.dropped
	b.msgs = nil
	b.dropped = 0
	return msgs, dropped
}

func (b *offlineBuffer) len() int {
	return len(b.msgs)
}
