package tasksvc

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/general"
	"github.com/trezcool/udahili/core/task"
)

// Deps holds the services the deferred-work handlers act on.
type Deps struct {
	GeneralSvc *general.Service
	Trainings  admission.TrainingRepository
	Persons    admission.PersonRepository
	History    admission.History
	Notifier   admission.Notifier
	Logger     core.Logger
}

// RegisterHandlers wires all known task kinds into the runner.
func RegisterHandlers(r *task.Runner, deps Deps) {
	r.Register(task.KindRecapPdf, deps.generateRecap)
	r.Register(task.KindSignaletique, deps.injectSignaletique)
	r.Register(task.KindPaymentStatus, deps.refreshPaymentStatus)
	r.Register(task.KindDocumentReminders, deps.remindDocuments)
}

type (
	recapPayload struct {
		PropositionID string `json:"proposition_id"`
	}

	signaletiquePayload struct {
		PropositionID string `json:"proposition_id"`
		Matricule     string `json:"matricule"`
	}

	paymentStatusPayload struct {
		PropositionID string `json:"proposition_id"`
		Paid          bool   `json:"paid"`
	}

	documentRemindersPayload struct {
		PropositionID string `json:"proposition_id"`
	}
)

func (d Deps) generateRecap(_ context.Context, t task.Task) error {
	var payload recapPayload
	if err := t.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "unmarshalling payload")
	}

	prop, err := d.GeneralSvc.Get(payload.PropositionID)
	if err != nil {
		return err
	}
	entry := admission.NewHistoryEntry(
		prop.ID, "system",
		fmt.Sprintf("Application recap generated for %s", prop.Reference),
		"proposition", "recap",
	)
	return d.History.Record(entry)
}

func (d Deps) injectSignaletique(_ context.Context, t task.Task) error {
	var payload signaletiquePayload
	if err := t.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "unmarshalling payload")
	}

	person, err := d.Persons.GetPerson(payload.Matricule)
	if err != nil {
		return err
	}
	entry := admission.NewHistoryEntry(
		payload.PropositionID, "system",
		fmt.Sprintf("Signaletique injected for %s", person.FullName()),
		"proposition", "signaletique",
	)
	return d.History.Record(entry)
}

func (d Deps) refreshPaymentStatus(_ context.Context, t task.Task) error {
	var payload paymentStatusPayload
	if err := t.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "unmarshalling payload")
	}

	_, err := d.GeneralSvc.SpecifyFeePayment(general.SpecifyFeePaymentCommand{
		PropositionID: payload.PropositionID,
		Paid:          payload.Paid,
	})
	return err
}

// remindDocuments re-notifies the applicant of every document placeholder
// still awaiting an upload.
func (d Deps) remindDocuments(_ context.Context, t task.Task) error {
	var payload documentRemindersPayload
	if err := t.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "unmarshalling payload")
	}

	prop, err := d.GeneralSvc.Get(payload.PropositionID)
	if err != nil {
		return err
	}
	docs, err := d.GeneralSvc.ListDocuments(prop.ID)
	if err != nil {
		return err
	}

	pending := make([]admission.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Status == admission.DocRequested {
			pending = append(pending, doc)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	applicant, err := d.Persons.GetPerson(prop.Matricule)
	if err != nil {
		return err
	}
	training, err := d.Trainings.GetTraining(prop.TrainingAcronym, prop.TrainingYear)
	if err != nil {
		return err
	}
	d.Notifier.NotifyDocumentsRequested(applicant, training.Title, pending)
	return nil
}
