package session

import "fmt"

// Status is a session's lifecycle phase.
type Status string

const (
	StatusBacklog      Status = "backlog"
	StatusExploring    Status = "exploring"
	StatusTensions     Status = "tensions"
	StatusSynthesizing Status = "synthesizing"
	StatusFormed       Status = "formed"
)

// statusOrder gives the forward ordering of lifecycle phases.
var statusOrder = map[Status]int{
	StatusBacklog:      0,
	StatusExploring:    1,
	StatusTensions:     2,
	StatusSynthesizing: 3,
	StatusFormed:       4,
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// InvalidTransitionError is returned for a lifecycle transition the state
// machine does not allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// CanTransition reports whether from -> to is allowed: any strictly forward
// move, or the single reopen edge formed -> exploring. Everything else,
// including moving back into backlog, is rejected.
func CanTransition(from, to Status) bool {
	fo, ok := statusOrder[from]
	if !ok {
		return false
	}
	no, ok := statusOrder[to]
	if !ok {
		return false
	}

	if from == StatusFormed && to == StatusExploring {
		return true
	}

	return no > fo
}
