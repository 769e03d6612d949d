package types

import "fmt"

// Severity is an ordered alert urgency level. The zero value is None.
//
//	None < P2 < P1 < P0
type Severity int

const (
	None Severity = iota
	P2
	P1
	P0
)

// Tracked lists the severities that can hold an active alert, most severe first.
var Tracked = []Severity{P0, P1, P2}

// String returns "P0", "P1", "P2" or "none".
func (s Severity) String() string {
	switch s {
	case P0:
		return "P0"
	case P1:
		return "P1"
	case P2:
		return "P2"
	case None:
		return "none"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MoreSevereThan reports whether s ranks strictly above o.
func (s Severity) MoreSevereThan(o Severity) bool { return s > o }

// IsTracked reports whether s is one of P0, P1, P2.
func (s Severity) IsTracked() bool { return s >= P2 && s <= P0 }

// ParseSeverity accepts "P0", "p0", ..., "none" and "".
func ParseSeverity(v string) (Severity, error) {
	switch v {
	case "P0", "p0":
		return P0, nil
	case "P1", "p1":
		return P1, nil
	case "P2", "p2":
		return P2, nil
	case "none", "None", "":
		return None, nil
	default:
		return None, fmt.Errorf("unknown severity %q", v)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	if s != None && !s.IsTracked() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
