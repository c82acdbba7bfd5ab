package continuing

import (
	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
)

// Pure guards over the aggregate; violations are batched by the handlers.

func checkIsDraft(p *Proposition) error {
	if p.Status != StatusDraft {
		return ErrNotInDraft
	}
	return nil
}

func checkIsSubmitted(p *Proposition) error {
	if p.Status == StatusDraft || p.SubmittedAt == nil {
		return ErrNotSubmitted
	}
	return nil
}

func checkTrainingType(training admission.Training) error {
	if !training.Type.In(admission.ContinuingEducationTypes) {
		return ErrNotContinuingTraining
	}
	return nil
}

// checkCanCancel rejects cancellation once the decision has been closed.
func checkCanCancel(p *Proposition) error {
	if DecisionClosed.MatchesNode(p.Decision()) {
		return ErrDecisionClosed
	}
	return nil
}

func checkCanMarkToValidate(p *Proposition) error {
	if !DecisionFacApproved.MatchesNode(p.Decision()) {
		return ErrNotFacApproved
	}
	return nil
}

func checkCanValidate(p *Proposition) error {
	if !DecisionToValidate.MatchesNode(p.Decision()) {
		return ErrNotToValidate
	}
	return nil
}

func checkReason(reason string) error {
	if core.CleanString(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

func noReason(string) error { return nil }
