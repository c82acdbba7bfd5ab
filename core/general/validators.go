package general

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
	if !training.Type.In(admission.GeneralEducationTypes) {
		return ErrNotGeneralTraining
	}
	return nil
}

// checkInSicHands allows handing over to the faculty only while the central
// office holds a confirmed dossier.
func checkInSicHands(p *Proposition) error {
	switch p.Status {
	case StatusSubmitted, StatusSicProcessing, StatusBackFromFac, StatusToCompleteForSic:
		return nil
	case StatusAwaitingFeePayment:
		return ErrFeeAwaitingPayment
	}
	return ErrNotSubmitted
}

func checkInFacHands(p *Proposition) error {
	if p.Status != StatusFacProcessing && p.Status != StatusToCompleteForFac {
		return ErrNotInFacProcessing
	}
	return nil
}

// checkNotFinal rejects new decisions once the enrollment has been authorized
// or the dossier closed.
func checkNotFinal(p *Proposition) error {
	switch p.Status {
	case StatusEnrollmentAuthorized, StatusClosed, StatusCancelled:
		return ErrDecisionFinal
	case StatusDraft:
		return ErrNotSubmitted
	}
	return nil
}

func checkCanCancel(p *Proposition) error {
	if p.Status == StatusClosed {
		return ErrDecisionClosed
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
