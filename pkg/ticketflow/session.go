package ticketflow

import "time"

// Status is the session's position in the drafting state machine.
type Status string

// Session states. Backward transitions are permitted: a human edit
// after a preview returns the session to StatusCollecting while the
// draft is preserved.
const (
	StatusCollecting    Status = "collecting"
	StatusValidating    Status = "validating"
	StatusAwaitingUser  Status = "awaiting_user"
	StatusReadyToCreate Status = "ready_to_create"
	StatusCreated       Status = "created"
)

// Session identifies one logical conversation thread and its workflow
// position. It is created on the first message in a new thread.
type Session struct {
	ID         string `json:"id"`
	ChannelRef string `json:"channel_ref,omitempty"`
	Status     Status `json:"status"`

	// StepCount counts node executions across the session's lifetime,
	// including across suspend/resume. It backs the loop-protection
	// ceiling.
	StepCount int `json:"step_count"`

	// StateVersion is a monotonic counter incremented on every
	// committed mutation.
	StateVersion  int       `json:"state_version"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// touch records a committed mutation.
func (s *Session) touch(now time.Time) {
	s.StateVersion++
	s.LastUpdatedAt = now
}

// validTransitions is the directed edge set of the session state
// machine. The zero Status ("") is the pre-creation state.
var validTransitions = map[Status][]Status{
	"":                  {StatusCollecting},
	StatusCollecting:    {StatusValidating},
	StatusValidating:    {StatusAwaitingUser, StatusReadyToCreate, StatusCollecting},
	StatusAwaitingUser:  {StatusCollecting, StatusReadyToCreate},
	StatusReadyToCreate: {StatusCreated, StatusCollecting},
	StatusCreated:       {},
}

// canTransition reports whether the state machine allows from -> to.
func canTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
