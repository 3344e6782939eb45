package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// State is the stage a conversion job is in. Encoding and Verifying may
// cycle while the retry budget lasts; Accepted and Failed are terminal
// and no job state survives past them.
type State string

const (
	// StateReceived is the initial state before classification.
	StateReceived State = "RECEIVED"
	// StateClassified means the input kind has been decided from content.
	StateClassified State = "CLASSIFIED"
	// StateEncoding means an encoder search is running.
	StateEncoding State = "ENCODING"
	// StateVerifying means a candidate result is being re-measured.
	StateVerifying State = "VERIFYING"
	// StateAccepted means the result satisfies every bound.
	StateAccepted State = "ACCEPTED"
	// StateFailed means the job ended with a terminal error.
	StateFailed State = "FAILED"
)

// ErrInvalidTransition is returned when a state transition is attempted
// that the table does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines the job state machine. Verifying cycling back
// to Encoding is the bounded escalation loop.
var validTransitions = map[State][]State{
	StateReceived:   {StateClassified, StateFailed},
	StateClassified: {StateEncoding, StateFailed},
	StateEncoding:   {StateVerifying, StateFailed},
	StateVerifying:  {StateEncoding, StateAccepted, StateFailed},
	StateAccepted:   {},
	StateFailed:     {},
}

func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// job tracks one conversion end to end. Jobs are confined to a single
// goroutine, so no locking is needed.
type job struct {
	id      string
	state   State
	started time.Time
}

func newJob() *job {
	return &job{id: newJobID(), state: StateReceived, started: time.Now()}
}

func (j *job) transition(to State) error {
	if !canTransition(j.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.state, to)
	}
	j.state = to
	return nil
}

// newJobID creates a log-correlation ID for one conversion.
// Format: job-<timestamp>-<random>.
func newJobID() string {
	timestamp := time.Now().Unix()
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		return fmt.Sprintf("job-%d", timestamp)
	}
	return fmt.Sprintf("job-%d-%s", timestamp, hex.EncodeToString(random))
}
