package doctorate

import (
	"github.com/trezcool/udahili/core"
)

// Business-rule violations ("PROPOSITION-n" codes).
var (
	ErrNotDoctorateTraining   = core.NewBusinessError("PROPOSITION-2", "the training is not a doctorate")
	ErrCommissionInconsistent = core.NewBusinessError("PROPOSITION-5", "the proximity commission is inconsistent with the training")
	ErrSignatoryNotFound      = core.NewBusinessError("PROPOSITION-11", "signatory not found in the supervision group")
	ErrSigningInProgressAdd   = core.NewBusinessError("PROPOSITION-12", "members cannot be added while signing is in progress")
	ErrSigningInProgressDrop  = core.NewBusinessError("PROPOSITION-13", "members cannot be removed while signing is in progress")
	ErrExternalDetailsNeeded  = core.NewBusinessError("PROPOSITION-14", "the member must be internal or be flagged as external")
	ErrAlreadyMember          = core.NewBusinessError("PROPOSITION-15", "this person is already part of the supervision group")
	ErrJustificationRequired  = core.NewBusinessError("PROPOSITION-16", "a pre-admission requires a justification")
	ErrNotAPromoter           = core.NewBusinessError("PROPOSITION-17", "the reference promoter must be a promoter of the group")
	ErrSignaturesIncomplete   = core.NewBusinessError("PROPOSITION-18", "every member of the supervision group must have approved")
	ErrPromoterRequired       = core.NewBusinessError("PROPOSITION-19", "the supervision group needs at least one promoter")
	ErrCaMemberRequired       = core.NewBusinessError("PROPOSITION-20", "the supervision group needs at least one supervision committee member")
	ErrExternalPromoterNeeded = core.NewBusinessError("PROPOSITION-21", "a cotutelle requires an external promoter")
	ErrNotInvited             = core.NewBusinessError("PROPOSITION-22", "the signatory has not been invited to sign")
	ErrNotInDraft             = core.NewBusinessError("PROPOSITION-23", "the proposition is no longer in draft")
	ErrNotAwaitingSignatures  = core.NewBusinessError("PROPOSITION-24", "the proposition is not awaiting signatures")
	ErrDecisionClosed         = core.NewBusinessError("PROPOSITION-25", "the proposition has been closed and can no longer be cancelled")
	ErrReasonRequired         = core.NewBusinessError("PROPOSITION-26", "a reason is required for this decision")
	ErrNotSubmitted           = core.NewBusinessError("PROPOSITION-27", "the proposition has not been submitted yet")
	ErrUnknownAdmissionType   = core.NewBusinessError("PROPOSITION-28", "unknown admission type")
)
