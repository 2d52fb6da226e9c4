package trafficlight

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var ErrInvalidPhase = errors.New("invalid phase")

// Phase is a state of a traffic light. Only PhaseRed and PhaseGreen exist.
type Phase uint32

const (
	PhaseRed Phase = iota
	PhaseGreen
)

func (p Phase) String() string {
	switch p {
	case PhaseRed:
		return "red"
	case PhaseGreen:
		return "green"
	default:
		return fmt.Sprintf("Phase(%d)", uint32(p))
	}
}

// Toggle returns the opposite phase.
func (p Phase) Toggle() Phase {
	if p == PhaseRed {
		return PhaseGreen
	}
	return PhaseRed
}

func (p Phase) MarshalText() ([]byte, error) {
	if p != PhaseRed && p != PhaseGreen {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPhase, uint32(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	v, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func ParsePhase(s string) (Phase, error) {
	switch s {
	case "red":
		return PhaseRed, nil
	case "green":
		return PhaseGreen, nil
	default:
		return PhaseRed, fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
}

// atomicPhase holds a Phase readable from any goroutine.
type atomicPhase struct {
	v atomic.Uint32
}

func (a *atomicPhase) Load() Phase {
	return Phase(a.v.Load())
}

func (a *atomicPhase) Store(p Phase) {
	a.v.Store(uint32(p))
}
