package pipeline

// Mode is the direction a pipe end is being wired in.
type Mode int

const (
	// ModeProbe wires the graph without scheduling work.
	ModeProbe Mode = iota
	// ModeSuck pulls data out of the end into the next buffer.
	ModeSuck
	// ModeBlow pushes data from the next buffer into the end.
	ModeBlow
)

// String returns the lower-case name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeProbe:
		return "probe"
	case ModeSuck:
		return "suck"
	case ModeBlow:
		return "blow"
	default:
		return "unknown"
	}
}
