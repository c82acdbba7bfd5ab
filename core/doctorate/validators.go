package doctorate

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

func checkAwaitingSignatures(p *Proposition) error {
	if p.Status != StatusAwaitingSignatures {
		return ErrNotAwaitingSignatures
	}
	return nil
}

func checkIsSubmitted(p *Proposition) error {
	if p.SubmittedAt == nil {
		return ErrNotSubmitted
	}
	return nil
}

func checkTrainingType(training admission.Training) error {
	if !training.Type.In(admission.DoctorateTypes) {
		return ErrNotDoctorateTraining
	}
	return nil
}

func checkAdmissionType(typ AdmissionType) error {
	if !typ.IsValid() {
		return ErrUnknownAdmissionType
	}
	return nil
}

func checkJustification(typ AdmissionType, justification string) error {
	if typ == TypePreAdmission && core.CleanString(justification) == "" {
		return ErrJustificationRequired
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
