package general

import (
	"github.com/trezcool/udahili/core"
)

// Business-rule violations ("FORMATION-GENERALE-n" codes).
var (
	ErrNotGeneralTraining = core.NewBusinessError("FORMATION-GENERALE-1", "the training is not a general-education training")
	ErrNotInDraft         = core.NewBusinessError("FORMATION-GENERALE-2", "the proposition is no longer in draft")
	ErrPaymentNotExpected = core.NewBusinessError("FORMATION-GENERALE-3", "no application fee payment is expected")
	ErrNotInFacProcessing = core.NewBusinessError("FORMATION-GENERALE-4", "the proposition is not being processed by the faculty")
	ErrDecisionFinal      = core.NewBusinessError("FORMATION-GENERALE-5", "a final decision has already been made")
	ErrReasonRequired     = core.NewBusinessError("FORMATION-GENERALE-6", "a reason is required for this decision")
	ErrNotSubmitted       = core.NewBusinessError("FORMATION-GENERALE-7", "the proposition has not been submitted yet")
	ErrDecisionClosed     = core.NewBusinessError("FORMATION-GENERALE-8", "the proposition has been closed and can no longer be cancelled")
	ErrFeeAwaitingPayment = core.NewBusinessError("FORMATION-GENERALE-9", "the application fee has not been paid")
)
