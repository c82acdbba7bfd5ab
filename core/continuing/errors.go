package continuing

import (
	"github.com/trezcool/udahili/core"
)

// Business-rule violations ("FORMATION-CONTINUE-n" codes).
var (
	ErrNotContinuingTraining = core.NewBusinessError("FORMATION-CONTINUE-1", "the training is not a continuing-education training")
	ErrNotInDraft            = core.NewBusinessError("FORMATION-CONTINUE-2", "the proposition is no longer in draft")
	ErrDecisionClosed        = core.NewBusinessError("FORMATION-CONTINUE-3", "the proposition has been closed and can no longer be cancelled")
	ErrNotFacApproved        = core.NewBusinessError("FORMATION-CONTINUE-4", "the proposition must be approved by the faculty first")
	ErrNotToValidate         = core.NewBusinessError("FORMATION-CONTINUE-5", "the proposition is not awaiting validation")
	ErrReasonRequired        = core.NewBusinessError("FORMATION-CONTINUE-6", "a reason is required for this decision")
	ErrNotSubmitted          = core.NewBusinessError("FORMATION-CONTINUE-7", "the proposition has not been submitted yet")
)
