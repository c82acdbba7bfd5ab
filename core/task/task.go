package task

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUnknownKind  = errors.New("no handler registered for this task kind")
)

// Deferred work kinds.
const (
	KindRecapPdf          = "recap-pdf"
	KindSignaletique      = "signaletique-injection"
	KindPaymentStatus     = "payment-status-refresh"
	KindDocumentReminders = "document-reminders"
)

// State of a task row.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateError      State = "error"
)

type (
	// Task is one unit of deferred work, persisted until a Runner picks it up.
	Task struct {
		ID        string          `json:"id"`
		Kind      string          `json:"kind"`
		State     State           `json:"state"`
		Attempts  int             `json:"attempts"`
		Payload   json.RawMessage `json:"payload,omitempty"`
		LastError string          `json:"last_error,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
		UpdatedAt time.Time       `json:"updated_at"`
		DoneAt    *time.Time      `json:"done_at,omitempty"`
	}

	Repository interface {
		CreateTask(t Task) (Task, error)
		GetTask(id string) (Task, error)
		// ClaimPending atomically moves up to limit pending rows to processing,
		// bumping their attempt count.
		ClaimPending(limit int) ([]Task, error)
		MarkDone(id string) error
		MarkError(id, reason string) error
		// ResetToPending puts a row back in line for a retry.
		ResetToPending(id, reason string) error
	}
)

// New builds a pending task; the payload is marshalled as JSON.
func New(kind string, payload interface{}) (Task, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Task{}, err
		}
		raw = b
	}
	now := time.Now().UTC()
	return Task{
		ID:        uuid.New().String(),
		Kind:      kind,
		State:     StatePending,
		Payload:   raw,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UnmarshalPayload decodes the task payload into dst.
func (t Task) UnmarshalPayload(dst interface{}) error {
	if len(t.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(t.Payload, dst)
}
