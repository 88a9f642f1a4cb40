package transform

import (
	"time"

	"github.com/google/uuid"
)

// Step identifies one stage of a transformation attempt. Transitions are
// linear; the only backward transition is a full reset to StepIdle.
type Step string

const (
	StepIdle       Step = "idle"
	StepUploading  Step = "uploading"
	StepExtracting Step = "extracting"
	StepAIParsing  Step = "ai_parsing"
	StepValidating Step = "validating"
	StepGenerating Step = "generating"
	StepDone       Step = "done"
	StepError      Step = "error"
)

// State is the UI-facing snapshot of one transformation attempt.
type State struct {
	AttemptID uuid.UUID
	Step      Step
	Percent   int
	Message   string
	Err       string
	Filename  string
	Elapsed   string
}

// InFlight reports whether the attempt is still running.
func (s State) InFlight() bool {
	switch s.Step {
	case StepIdle, StepDone, StepError:
		return false
	default:
		return true
	}
}

// Clock abstracts wall-clock reads so elapsed-time reporting is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// remoteSteps maps step identifiers carried by progress events onto the
// orchestrator's own step machine. Unknown identifiers keep the current
// step; message and percent still apply.
var remoteSteps = map[string]Step{
	"uploading":  StepUploading,
	"extracting": StepExtracting,
	"ai_parsing": StepAIParsing,
}
