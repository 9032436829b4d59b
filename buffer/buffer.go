package buffer

import (
	"net/http"

	"github.com/kbukum/pipekit/errors"
)

// FillState is a coarse classification of how full a buffer is.
type FillState int

const (
	Empty FillState = iota
	Mixed
	Full
)

// String returns the lower-case name of the state.
func (s FillState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Mixed:
		return "mixed"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON reports.
func (s FillState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classify maps an occupancy to a FillState. A buffer is Empty below a
// quarter of its capacity and Full above half of it.
func Classify(occupied, capacity int64) FillState {
	switch {
	case occupied*4 < capacity:
		return Empty
	case occupied*2 > capacity:
		return Full
	default:
		return Mixed
	}
}

// Kind names the two buffer flavours.
type Kind string

const (
	KindBytes Kind = "bytes"
	KindItems Kind = "items"
)

// Buffer is the common surface of byte and item buffers as seen by the
// pipeline ledger and by reporting.
type Buffer interface {
	// Occupied is the current content size: bytes or items.
	Occupied() int64
	// Capacity is the maximum content size.
	Capacity() int64
	// Fill classifies Occupied against Capacity.
	Fill() FillState
	// Kind tells bytes and items apart.
	Kind() Kind
	// Abort wakes every blocked producer and consumer and makes further
	// operations fail with err.
	Abort(err error)

	fresh(s Sizing) Buffer
}

// Sizing holds the capacities used when a pipeline creates buffers.
type Sizing struct {
	// Items is the capacity of item buffers.
	Items int `yaml:"items" mapstructure:"items"`
	// Bytes is the capacity of byte buffers. Writers pause when it is
	// reached and resume once half of it has been drained.
	Bytes int64 `yaml:"bytes" mapstructure:"bytes"`
}

// DefaultSizing is used when no sizing is configured.
var DefaultSizing = Sizing{Items: 1024, Bytes: 1 << 20}

// OrDefault replaces non-positive capacities with the defaults.
func (s Sizing) OrDefault() Sizing {
	if s.Items <= 0 {
		s.Items = DefaultSizing.Items
	}
	if s.Bytes <= 0 {
		s.Bytes = DefaultSizing.Bytes
	}
	return s
}

// Make creates an empty buffer of kind B sized by s. B must be a concrete
// buffer pointer type such as *Bytes or *Items[string].
func Make[B Buffer](s Sizing) B {
	var zero B
	return zero.fresh(s.OrDefault()).(B)
}

// ErrCompleted is returned when adding to an item buffer after CompleteAdding.
var ErrCompleted = errors.New(errors.ErrCodeBufferCompleted, "buffer is complete for adding", http.StatusConflict)

// ErrAborted is the abort reason used when Abort is called with a nil error.
var ErrAborted = errors.New(errors.ErrCodeBufferAborted, "buffer aborted", http.StatusConflict)

// signal is a broadcast primitive: waiters capture the current channel under
// the owner's lock, and every state change closes it and installs a new one.
type signal struct {
	ch chan struct{}
}

func newSignal() signal { return signal{ch: make(chan struct{})} }

func (s *signal) wait() <-chan struct{} { return s.ch }

func (s *signal) broadcast() {
	close(s.ch)
	s.ch = make(chan struct{})
}
