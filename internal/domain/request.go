package domain

import "time"

// RequestStatus enumerates lifecycle states for citizen requests.
type RequestStatus string

const (
	RequestStatusNew        RequestStatus = "NEW"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusResolved   RequestStatus = "RESOLVED"
	RequestStatusClosed     RequestStatus = "CLOSED"
)

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "LOW"
	PriorityMedium RequestPriority = "MEDIUM"
	PriorityHigh   RequestPriority = "HIGH"
)

// SLAStatus is derived from elapsed time against the category target.
// It is computed on read and never persisted.
type SLAStatus string

const (
	SLAOnTime   SLAStatus = "ON_TIME"
	SLAAtRisk   SLAStatus = "AT_RISK"
	SLABreached SLAStatus = "BREACHED"
)

// Citizen is the embedded submitter record. It has no lifecycle of its own;
// the citizen account directory is a separate concern.
type Citizen struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Workflow tracks a request's position in its ordered step sequence.
// CurrentStep is always a member of Steps.
type Workflow struct {
	CurrentStep string
	Steps       []string
}

// StepIndex returns the position of the current step, or -1 when the
// workflow is inconsistent.
func (w Workflow) StepIndex() int {
	for i, step := range w.Steps {
		if step == w.CurrentStep {
			return i
		}
	}
	return -1
}

// AtTerminalStep reports whether the workflow reached its last step.
func (w Workflow) AtTerminalStep() bool {
	return len(w.Steps) > 0 && w.CurrentStep == w.Steps[len(w.Steps)-1]
}

// Request is the aggregate for citizen requests.
type Request struct {
	ID      string
	Citizen Citizen
	// OwnerAccountID references the citizen portal account that submitted
	// the request. Nil for requests entered by agents on a citizen's behalf.
	OwnerAccountID   *string
	Type             string
	Category         string
	Subject          string
	Description      string
	Status           RequestStatus
	Priority         RequestPriority
	SLAStatus        SLAStatus
	AIClassification string
	Sentiment        string
	Workflow         Workflow
	AssignedAgent    *string
	Archived         bool
	Attachments      []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
}

// IsTerminal reports whether the status closes the request lifecycle.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusResolved || s == RequestStatusClosed
}
