package continuing

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/checklist"
)

type (
	Repository interface {
		GetProposition(id string) (Proposition, error)
		ListPropositions(matricule string) ([]Proposition, error)
		CreateProposition(p Proposition) (Proposition, error)
		UpdateProposition(p Proposition) (Proposition, error)
		DeleteProposition(id string) error
		NextSequence(year int) (int, error)
	}

	Service struct {
		repo      Repository
		trainings admission.TrainingRepository
		persons   admission.PersonRepository
		curricula admission.CurriculumRepository
		documents admission.DocumentRepository
		counter   admission.PropositionCounter
		history   admission.History
		notifier  admission.Notifier
		logger    core.Logger
	}
)

func NewService(
	repo Repository,
	trainings admission.TrainingRepository,
	persons admission.PersonRepository,
	curricula admission.CurriculumRepository,
	documents admission.DocumentRepository,
	counter admission.PropositionCounter,
	history admission.History,
	notifier admission.Notifier,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		trainings: trainings,
		persons:   persons,
		curricula: curricula,
		documents: documents,
		counter:   counter,
		history:   history,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *Service) Get(id string) (Proposition, error) {
	return s.repo.GetProposition(id)
}

func (s *Service) ListForApplicant(matricule string) ([]Proposition, error) {
	return s.repo.ListPropositions(core.CleanString(matricule))
}

// Initiate creates a draft proposition for the applicant, enforcing the
// per-applicant cap and the training type.
func (s *Service) Initiate(cmd InitiateCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	if _, err := s.persons.GetPerson(cmd.Matricule); err != nil {
		return Proposition{}, err
	}
	training, err := s.trainings.GetTraining(cmd.TrainingAcronym, cmd.TrainingYear)
	if err != nil {
		return Proposition{}, err
	}

	var errs core.BusinessErrors
	errs.Append(admission.CheckPropositionCap(s.counter, cmd.Matricule, core.Conf.Admission.MaxOpenPropositions))
	errs.Append(checkTrainingType(training))
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}

	seq, err := s.repo.NextSequence(cmd.TrainingYear)
	if err != nil {
		return Proposition{}, err
	}
	now := time.Now().UTC()
	prop := Proposition{
		ID:              uuid.New().String(),
		Reference:       Reference(cmd.TrainingYear, seq),
		Matricule:       cmd.Matricule,
		TrainingAcronym: training.Acronym,
		TrainingYear:    training.Year,
		Status:          StatusDraft,
		Motivations:     core.CleanString(cmd.Motivations),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	prop, err = s.repo.CreateProposition(prop)
	if err != nil {
		return Proposition{}, err
	}
	s.record(prop.ID, cmd.Matricule, "Proposition initiated", "proposition", "status-changed")
	return prop, nil
}

// ModifyTrainingChoice changes the training of a draft proposition.
func (s *Service) ModifyTrainingChoice(cmd ModifyTrainingChoiceCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}
	training, err := s.trainings.GetTraining(cmd.TrainingAcronym, cmd.TrainingYear)
	if err != nil {
		return Proposition{}, err
	}

	var errs core.BusinessErrors
	errs.Append(checkIsDraft(&prop))
	errs.Append(checkTrainingType(training))
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}

	prop.TrainingAcronym = training.Acronym
	prop.TrainingYear = training.Year
	prop.Motivations = core.CleanString(cmd.Motivations)
	prop.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateProposition(prop)
}

// CompleteCurriculum stores the curriculum attachments and the answers to the
// training-specific questions. Re-applying with empty values clears them.
func (s *Service) CompleteCurriculum(cmd CompleteCurriculumCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}
	prop.CurriculumFiles = cmd.CurriculumFiles
	prop.SpecificAnswers = cmd.SpecificAnswers
	prop.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateProposition(prop)
}

// Submit confirms a draft proposition: the curriculum must be complete; the
// checklist is initialized and the applicant notified.
func (s *Service) Submit(cmd SubmitCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}
	cur, err := s.curricula.GetCurriculum(prop.Matricule)
	if err != nil {
		return Proposition{}, err
	}
	cur.Files = append(cur.Files, prop.CurriculumFiles...)

	var errs core.BusinessErrors
	errs.Append(checkIsDraft(&prop))
	errs.Append(admission.CheckCurriculum(cur, prop.TrainingYear, core.Conf.Admission.EctsThresholdYear, false))
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}

	now := time.Now().UTC()
	prop.Status = StatusSubmitted
	prop.SubmittedAt = &now
	prop.Checklist = NewChecklist()
	prop.InitialChecklist = prop.Checklist.Clone()
	prop.UpdatedAt = now
	prop, err = s.repo.UpdateProposition(prop)
	if err != nil {
		return Proposition{}, err
	}
	s.record(prop.ID, prop.Matricule, "Proposition submitted", "proposition", "status-changed")
	s.notify(prop, func(applicant admission.Person, title string) {
		s.notifier.NotifySubmitted(applicant, title)
	})
	return prop, nil
}

// PutOnHold parks a submitted proposition until the applicant reacts.
func (s *Service) PutOnHold(cmd DecisionCommand) (Proposition, error) {
	return s.decide(cmd, StatusOnHold, DecisionOnHold, checkIsSubmitted, noReason)
}

// TakeInCharge assigns the dossier to a manager.
func (s *Service) TakeInCharge(cmd DecisionCommand) (Proposition, error) {
	return s.decide(cmd, StatusSubmitted, DecisionTakenCharge, checkIsSubmitted, noReason)
}

// ApproveByFac records the faculty's approval.
func (s *Service) ApproveByFac(cmd DecisionCommand) (Proposition, error) {
	return s.decide(cmd, StatusSubmitted, DecisionFacApproved, checkIsSubmitted, noReason)
}

// MarkToValidate queues a faculty-approved dossier for central validation.
func (s *Service) MarkToValidate(cmd DecisionCommand) (Proposition, error) {
	return s.decide(cmd, StatusToValidate, DecisionToValidate, checkCanMarkToValidate, noReason)
}

// Validate authorizes the enrollment of a dossier awaiting validation.
func (s *Service) Validate(cmd DecisionCommand) (Proposition, error) {
	return s.decide(cmd, StatusEnrollmentAuthorized, DecisionValidated, checkCanValidate, noReason)
}

// Refuse denies the enrollment; a reason is required.
func (s *Service) Refuse(cmd DecisionCommand) (Proposition, error) {
	return s.decide(cmd, StatusEnrollmentDenied, DecisionDenied, checkIsSubmitted, checkReason)
}

// Close closes the dossier without a decision.
func (s *Service) Close(cmd DecisionCommand) (Proposition, error) {
	return s.decide(cmd, StatusClosed, DecisionClosed, checkIsSubmitted, noReason)
}

// Cancel cancels the proposition at the applicant's request; impossible once
// the dossier has been closed.
func (s *Service) Cancel(cmd DecisionCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}

	var errs core.BusinessErrors
	errs.Append(checkCanCancel(&prop))
	errs.Append(checkReason(cmd.Reason))
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}

	prop.Status = StatusCancelled
	prop.CancelReason = core.CleanString(cmd.Reason)
	prop.setDecision(DecisionCancelled)
	prop.UpdatedAt = time.Now().UTC()
	prop, err = s.repo.UpdateProposition(prop)
	if err != nil {
		return Proposition{}, err
	}
	s.record(prop.ID, cmd.Author, "Proposition cancelled: "+prop.CancelReason, "proposition", "status-changed")
	s.notify(prop, func(applicant admission.Person, title string) {
		s.notifier.NotifyStatusChanged(applicant, title, string(prop.Status))
	})
	return prop, nil
}

// Delete removes a draft proposition and its document placeholders.
func (s *Service) Delete(id string) error {
	prop, err := s.repo.GetProposition(id)
	if err != nil {
		return err
	}
	var errs core.BusinessErrors
	errs.Append(checkIsDraft(&prop))
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	docs, err := s.documents.ListDocuments(id)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.documents.DeleteDocument(id, doc.Key()); err != nil {
			return err
		}
	}
	return s.repo.DeleteProposition(id)
}

// decide factors the manager decision transitions: validate, load, guard,
// mutate the status and the decision tab, persist, trace.
func (s *Service) decide(
	cmd DecisionCommand,
	status Status,
	decision checklist.StatusConfig,
	guard func(*Proposition) error,
	reasonGuard func(string) error,
) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}

	var errs core.BusinessErrors
	errs.Append(guard(&prop))
	errs.Append(reasonGuard(cmd.Reason))
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}

	prop.Status = status
	prop.setDecision(decision)
	prop.UpdatedAt = time.Now().UTC()
	prop, err = s.repo.UpdateProposition(prop)
	if err != nil {
		return Proposition{}, err
	}
	msg := "Decision: " + decision.Label
	if reason := core.CleanString(cmd.Reason); reason != "" {
		msg += " (" + reason + ")"
	}
	s.record(prop.ID, cmd.Author, msg, "proposition", "decision")
	s.notify(prop, func(applicant admission.Person, title string) {
		s.notifier.NotifyStatusChanged(applicant, title, string(prop.Status))
	})
	return prop, nil
}

func (s *Service) record(propID, author, message string, tags ...string) {
	if err := s.history.Record(admission.NewHistoryEntry(propID, author, message, tags...)); err != nil {
		s.logger.Error("continuing: recording history", "proposition", propID, "error", err)
	}
}

func (s *Service) notify(prop Proposition, send func(applicant admission.Person, trainingTitle string)) {
	applicant, err := s.persons.GetPerson(prop.Matricule)
	if err != nil {
		s.logger.Error("continuing: resolving applicant", "proposition", prop.ID, "error", err)
		return
	}
	title := prop.TrainingAcronym
	if training, err := s.trainings.GetTraining(prop.TrainingAcronym, prop.TrainingYear); err == nil {
		title = training.Title
	}
	send(applicant, title)
}
