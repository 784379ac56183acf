package call

import "time"

// Status represents the lifecycle state of an outbound call.
type Status string

const (
	// StatusInitiated indicates the call was queued with the telephony platform.
	StatusInitiated Status = "INITIATED"
	// StatusConnected indicates the far end answered and the IVR is live.
	StatusConnected Status = "CONNECTED"
	// StatusInProgress indicates the call is live and being analyzed.
	StatusInProgress Status = "IN_PROGRESS"
	// StatusCompleted indicates the call ended normally. Terminal.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the call could not complete. Terminal.
	StatusFailed Status = "FAILED"
)

// IsTerminal reports whether the status is absorbing. Any component
// observing a terminal status must stop further work for the session.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsConnected reports whether the IVR conversation is live.
func (s Status) IsConnected() bool {
	return s == StatusConnected || s == StatusInProgress
}

// FlowMode selects the prompt policy applied when resolving IVR prompts.
type FlowMode string

const (
	FlowClaims      FlowMode = "claims"
	FlowEligibility FlowMode = "eligibility"
)

// Valid reports whether the flow mode is one of the known policies.
func (f FlowMode) Valid() bool {
	return f == FlowClaims || f == FlowEligibility
}

// Participant identifies which conversational party produced a segment.
type Participant string

const (
	ParticipantCaller Participant = "CUSTOMER"
	ParticipantSystem Participant = "AGENT"
)

// Segment is one utterance fragment reported by the analysis source.
type Segment struct {
	Participant Participant `json:"participant"`
	Content     string      `json:"content"`
	// OffsetMillis is milliseconds from call start, the authoritative
	// ordering key.
	OffsetMillis int64 `json:"offset"`
	// ObservedAt is the wall-clock fetch time. Display only, never used
	// for ordering.
	ObservedAt time.Time `json:"observed_at"`
}

// Answer is the structured resolution produced for one caller utterance.
type Answer struct {
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
}

// Reserved Answer.Field markers. Any other field value names a context key.
const (
	FieldPressNumber   = "press-a-number"
	FieldVoiceOnly     = "voice-only"
	FieldTransferAgent = "transfer-to-agent"
	FieldUnknown       = "unknown"
	FieldError         = "error"
)

// NoMatchValue is returned when no context field answers the prompt.
const NoMatchValue = "No matching data found"

// Session is the server-side record of one outbound call.
type Session struct {
	ID         string            `json:"contact_id"`
	Status     Status            `json:"status"`
	FlowMode   FlowMode          `json:"flow_mode"`
	Context    map[string]string `json:"context"`
	Attributes map[string]string `json:"attributes"`
	Transcript []Segment         `json:"transcript"`
	LastAnswer *Answer           `json:"last_answer,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// StatusUpdate carries the fields of one status read. Successive reads
// may carry different subsets, so updates merge additively into the
// session rather than replacing it.
type StatusUpdate struct {
	Status     Status
	Attributes map[string]string
}

// InitiateRequest is the request body for starting an outbound call.
type InitiateRequest struct {
	PhoneNumber string            `json:"phone_number" binding:"required"`
	FlowMode    FlowMode          `json:"flow_mode" binding:"required"`
	Context     map[string]string `json:"context"`
}

// InitiateResult is returned once the telephony platform accepted the call.
type InitiateResult struct {
	ContactID string `json:"contact_id"`
	Message   string `json:"message"`
}
