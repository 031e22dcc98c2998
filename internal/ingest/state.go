package ingest

import "go.uber.org/zap"

// State is a phase of a run.
//
//	Idle -> Reading -> (Normalizing -> Accumulating -> [Flushing])* -> Draining -> Closed
//
// Reading is re-entered for every input; the accumulator spans all of them.
type State uint8

const (
	StateIdle State = iota
	StateReading
	StateNormalizing
	StateAccumulating
	StateFlushing
	StateDraining
	StateClosed
)

var stateNames = [...]string{"idle", "reading", "normalizing", "accumulating", "flushing", "draining", "closed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func perRecord(s State) bool { return s == StateNormalizing || s == StateAccumulating }

// machine tracks the current State. Only one goroutine advances it at a
// time.
type machine struct {
	state   State
	logger  *zap.Logger
	observe func(from, to State)
}

func (m *machine) to(s State) {
	if m.state == s {
		return
	}
	from := m.state
	m.state = s
	if m.observe != nil {
		m.observe(from, s)
	}
	// The per-record cycle would flood debug output.
	if perRecord(from) && perRecord(s) {
		return
	}
	m.logger.Debug("state", zap.Stringer("from", from), zap.Stringer("to", s))
}
