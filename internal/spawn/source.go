package spawn

import "fmt"

// Source tells which trigger produced a batch.
type Source int

const (
	SourceTimer Source = iota
	SourcePeak
)

func (s Source) String() string {
	switch s {
	case SourceTimer:
		return "timer"
	case SourcePeak:
		return "peak"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// MarshalText encodes the source by name in JSON events.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
