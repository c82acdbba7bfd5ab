package admission

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one line of a proposition's audit trail.
type HistoryEntry struct {
	ID            string    `json:"id"`
	PropositionID string    `json:"proposition_id"`
	Author        string    `json:"author"`
	Message       string    `json:"message"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewHistoryEntry(propositionID, author, message string, tags ...string) HistoryEntry {
	return HistoryEntry{
		ID:            uuid.New().String(),
		PropositionID: propositionID,
		Author:        author,
		Message:       message,
		Tags:          tags,
		CreatedAt:     time.Now(),
	}
}

// History records audit entries. Recording failures are logged by callers and
// never roll back the mutation they describe.
type History interface {
	Record(entry HistoryEntry) error
	List(propositionID string, tags ...string) ([]HistoryEntry, error)
}
