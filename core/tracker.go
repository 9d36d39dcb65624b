package core

// UnknownInput is displayed when a tool result arrives with no recorded call.
const UnknownInput = "unknown"

// PendingCalls associates tool results with the input of the call that produced
// them. Calls are keyed by the ID the agent loop assigns; results without a
// matching ID fall back to the most recently recorded input.
//
// A PendingCalls belongs to exactly one request and is not safe for concurrent use.
type PendingCalls struct {
	byID    map[string]string
	last    string
	hasLast bool
}

// NewPendingCalls creates an empty tracker for one request.
func NewPendingCalls() *PendingCalls {
	return &PendingCalls{byID: make(map[string]string)}
}

// Set records input for the call id, overwriting any previous value.
func (p *PendingCalls) Set(id, input string) {
	if id != "" {
		p.byID[id] = input
	}
	p.last = input
	p.hasLast = true
}

// TakeForDisplay returns the input recorded for id. The keyed entry is released;
// the last-recorded fallback stays available.
func (p *PendingCalls) TakeForDisplay(id string) string {
	if input, ok := p.byID[id]; ok && id != "" {
		delete(p.byID, id)
		return input
	}
	if p.hasLast {
		return p.last
	}
	return UnknownInput
}

// Len returns the number of keyed calls still awaiting a result.
func (p *PendingCalls) Len() int {
	return len(p.byID)
}
