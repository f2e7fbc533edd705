// Package progress decouples the engine from whatever renders run progress.
package progress

// Reporter receives phase and step events from the engine. Implementations
// must be cheap; they are called from the merge hot path.
type Reporter interface {
	// StartPhase begins a named phase with a known number of steps
	// (0 when the total is not known up front).
	StartPhase(name string, total int)
	// Advance marks one step of the current phase done.
	Advance()
	// EndPhase closes the current phase.
	EndPhase()
}

// Nop discards all events.
type Nop struct{}

func (Nop) StartPhase(string, int) {}
func (Nop) Advance()               {}
func (Nop) EndPhase()              {}
