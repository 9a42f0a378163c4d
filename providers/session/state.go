package session

import (
	"fmt"

	"github.com/agnivade/voicerouter/providers"
)

// validTransitions lists every allowed edge of the session lifecycle.
// Terminal states have no outgoing edges.
var validTransitions = map[providers.SessionState][]providers.SessionState{
	providers.StateConnecting:  {providers.StateOpen, providers.StateClosing, providers.StateErrored},
	providers.StateOpen:        {providers.StateConfiguring, providers.StateStreaming, providers.StateClosing, providers.StateErrored},
	providers.StateConfiguring: {providers.StateOpen, providers.StateStreaming, providers.StateClosing, providers.StateErrored},
	providers.StateStreaming:   {providers.StateConfiguring, providers.StateClosing, providers.StateErrored},
	providers.StateClosing:     {providers.StateClosed, providers.StateErrored},
}

// InvalidTransitionError is returned for an edge not in validTransitions.
type InvalidTransitionError struct {
	From, To providers.SessionState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid session transition %s -> %s", e.From, e.To)
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to providers.SessionState) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
