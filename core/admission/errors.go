package admission

import (
	"errors"
	"fmt"

	"github.com/trezcool/udahili/core"
)

var (
	// not-found conditions; raised before any business validation runs and
	// never folded into a business-error batch.
	ErrPropositionNotFound = errors.New("proposition not found")
	ErrTrainingNotFound    = errors.New("training not found")
	ErrPersonNotFound      = errors.New("person not found")
	ErrDocumentNotFound    = errors.New("document not found")
)

// Shared business-rule violations ("ADMISSION-n" codes).
func NewMaxPropositionsError(max int) *core.BusinessError {
	return core.NewBusinessError(
		"ADMISSION-1",
		fmt.Sprintf("the maximum number of in-progress propositions (%d) has been reached", max),
	)
}

func NewIncompleteCurriculumError(label string) *core.BusinessError {
	return core.NewBusinessError("ADMISSION-2", fmt.Sprintf("academic experience is incomplete: %s", label))
}

func NewMissingCurriculumFileError() *core.BusinessError {
	return core.NewBusinessError("ADMISSION-3", "a curriculum vitae file is required")
}

func NewIncompleteSecondaryStudiesError() *core.BusinessError {
	return core.NewBusinessError("ADMISSION-4", "secondary studies information is incomplete")
}

func NewDocumentNotRequestableError() *core.BusinessError {
	return core.NewBusinessError("ADMISSION-5", "only a to-be-requested document can be requested")
}

func NewDocumentNotRequestedError() *core.BusinessError {
	return core.NewBusinessError("ADMISSION-6", "the document has not been requested from the applicant")
}

// PropositionCounter counts the in-progress propositions of an applicant,
// all admission contexts included.
type PropositionCounter interface {
	CountInProgress(matricule string) (int, error)
}

// CheckPropositionCap verifies the per-applicant cap on concurrently
// in-progress propositions before a new one may be initiated.
func CheckPropositionCap(counter PropositionCounter, matricule string, max int) error {
	n, err := counter.CountInProgress(matricule)
	if err != nil {
		return err
	}
	if n >= max {
		return NewMaxPropositionsError(max)
	}
	return nil
}
