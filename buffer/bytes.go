package buffer

import (
	"io"
	"sync"
)

// Bytes is a bounded in-memory byte channel with a writer half and a reader
// half. Writes pause once the pause threshold is occupied and resume after
// readers drain it down to the resume threshold. Closing the writer
// completes the stream: readers drain what is left and then see io.EOF.
type Bytes struct {
	mu      sync.Mutex
	ring    []byte
	head    int
	count   int
	pause   int64
	resume  int64
	paused  bool
	written int64

	writerClosed bool
	writerErr    error
	readerClosed bool
	err          error
	changed      signal

	writer *BytesWriter
	reader *BytesReader
}

// NewBytes creates a byte buffer of the given capacity. The pause threshold
// is the capacity and the resume threshold is half of it.
func NewBytes(capacity int64) *Bytes {
	if capacity < 1 {
		capacity = 1
	}
	b := &Bytes{
		ring:    make([]byte, capacity),
		pause:   capacity,
		resume:  capacity / 2,
		changed: newSignal(),
	}
	b.writer = &BytesWriter{b: b}
	b.reader = &BytesReader{b: b}
	return b
}

func (*Bytes) fresh(s Sizing) Buffer { return NewBytes(s.Bytes) }

// Kind implements Buffer.
func (*Bytes) Kind() Kind { return KindBytes }

// Writer returns the producing half.
func (b *Bytes) Writer() *BytesWriter { return b.writer }

// Reader returns the consuming half.
func (b *Bytes) Reader() *BytesReader { return b.reader }

// Thresholds returns the pause and resume thresholds in bytes.
func (b *Bytes) Thresholds() (pause, resume int64) { return b.pause, b.resume }

// Occupied implements Buffer.
func (b *Bytes) Occupied() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(b.count)
}

// Capacity implements Buffer.
func (b *Bytes) Capacity() int64 { return int64(len(b.ring)) }

// Fill implements Buffer.
func (b *Bytes) Fill() FillState { return Classify(b.Occupied(), b.Capacity()) }

// Written returns the total number of bytes accepted so far.
func (b *Bytes) Written() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

// Abort implements Buffer.
func (b *Bytes) Abort(err error) {
	if err == nil {
		err = ErrAborted
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return
	}
	b.err = err
	b.changed.broadcast()
}

// waitLocked releases the lock until the next state change.
func (b *Bytes) waitLocked() {
	ch := b.changed.wait()
	b.mu.Unlock()
	<-ch
	b.mu.Lock()
}

func (b *Bytes) write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.writableLocked(); err != nil {
		return 0, err
	}
	total := 0
	for len(p) > 0 {
		for {
			if err := b.writableLocked(); err != nil {
				return total, err
			}
			if b.paused && int64(b.count) > b.resume {
				b.waitLocked()
				continue
			}
			b.paused = false
			break
		}

		free := len(b.ring) - b.count
		n := min(free, len(p))
		tail := (b.head + b.count) % len(b.ring)
		k := copy(b.ring[tail:], p[:n])
		copy(b.ring, p[k:n])

		b.count += n
		b.written += int64(n)
		total += n
		p = p[n:]
		if int64(b.count) >= b.pause {
			b.paused = true
		}
		b.changed.broadcast()
	}
	return total, nil
}

// writableLocked reports why a write cannot proceed, if it cannot.
func (b *Bytes) writableLocked() error {
	if b.err != nil {
		return b.err
	}
	if b.writerClosed || b.readerClosed {
		return io.ErrClosedPipe
	}
	return nil
}

func (b *Bytes) read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		if b.err != nil {
			return 0, b.err
		}
		if b.count > 0 {
			break
		}
		if b.writerClosed {
			if b.writerErr != nil {
				return 0, b.writerErr
			}
			return 0, io.EOF
		}
		if b.readerClosed {
			return 0, io.ErrClosedPipe
		}
		b.waitLocked()
	}

	n := min(b.count, len(p))
	k := copy(p[:n], b.ring[b.head:min(b.head+n, len(b.ring))])
	copy(p[k:n], b.ring)
	b.head = (b.head + n) % len(b.ring)
	b.count -= n
	b.changed.broadcast()
	return n, nil
}

func (b *Bytes) closeWriter(err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writerClosed {
		return nil
	}
	b.writerClosed = true
	b.writerErr = err
	b.changed.broadcast()
	return nil
}

func (b *Bytes) closeReader() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readerClosed = true
	b.changed.broadcast()
	return nil
}

// BytesWriter is the producing half of a Bytes buffer.
type BytesWriter struct {
	b *Bytes
}

// Write implements io.Writer. It blocks while the buffer is paused.
func (w *BytesWriter) Write(p []byte) (int, error) { return w.b.write(p) }

// Close completes the stream.
func (w *BytesWriter) Close() error { return w.b.closeWriter(nil) }

// CloseWithError completes the stream; readers get err instead of io.EOF
// once the remaining data is drained.
func (w *BytesWriter) CloseWithError(err error) error { return w.b.closeWriter(err) }

// BytesReader is the consuming half of a Bytes buffer.
type BytesReader struct {
	b *Bytes
}

// Read implements io.Reader.
func (r *BytesReader) Read(p []byte) (int, error) { return r.b.read(p) }

// Close stops consumption; pending and future writes fail with io.ErrClosedPipe.
func (r *BytesReader) Close() error { return r.b.closeReader() }
