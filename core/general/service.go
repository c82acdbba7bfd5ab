package general

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

// Initiate creates a draft proposition, enforcing the per-applicant cap and
// the training type.
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

// VerifyCurriculum reports every incompleteness of the applicant's curriculum
// as a business-error batch, nil when complete.
func (s *Service) VerifyCurriculum(id string) error {
	prop, err := s.repo.GetProposition(id)
	if err != nil {
		return err
	}
	training, err := s.trainings.GetTraining(prop.TrainingAcronym, prop.TrainingYear)
	if err != nil {
		return err
	}
	cur, err := s.curricula.GetCurriculum(prop.Matricule)
	if err != nil {
		return err
	}
	cur.Files = append(cur.Files, prop.CurriculumFiles...)

	// a bachelor admission also needs the secondary studies record
	requireSecondary := training.Type == admission.TypeBachelor
	return admission.CheckCurriculum(cur, prop.TrainingYear, core.Conf.Admission.EctsThresholdYear, requireSecondary)
}

// Submit confirms a draft proposition; the application fee is then expected
// before any processing starts.
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
	// the secondary studies record is not blocking here: a missing diploma
	// becomes a document request once the dossier is submitted
	errs.Append(admission.CheckCurriculum(cur, prop.TrainingYear, core.Conf.Admission.EctsThresholdYear, false))
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}

	now := time.Now().UTC()
	prop.Status = StatusAwaitingFeePayment
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

// SpecifyFeePayment records the application fee payment and confirms the
// proposition.
func (s *Service) SpecifyFeePayment(cmd SpecifyFeePaymentCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}
	if prop.Status != StatusAwaitingFeePayment {
		return Proposition{}, core.BusinessErrors{ErrPaymentNotExpected}
	}
	if !cmd.Paid {
		return prop, nil
	}

	now := time.Now().UTC()
	prop.Status = StatusSubmitted
	prop.FeePaidAt = &now
	prop.setTab(TabApplicationFee, checklist.StatusConfig{Label: "Application fee paid", Status: checklist.StatusSystemSuccess})
	prop.UpdatedAt = now
	prop, err = s.repo.UpdateProposition(prop)
	if err != nil {
		return Proposition{}, err
	}
	s.record(prop.ID, prop.Matricule, "Application fee paid", "proposition", "payment")
	return prop, nil
}

// SendToFac hands the dossier over to the faculty.
func (s *Service) SendToFac(cmd DecisionCommand) (Proposition, error) {
	return s.transition(cmd, StatusFacProcessing, TabFacDecision, FacInProgress, checkInSicHands, noReason)
}

// SendBackToSic returns the dossier to the central enrollment office without
// a faculty decision.
func (s *Service) SendBackToSic(cmd DecisionCommand) (Proposition, error) {
	return s.transition(cmd, StatusBackFromFac, TabFacDecision, FacToProcess, checkInFacHands, noReason)
}

// ApproveByFac records the faculty's approval; only a dossier being processed
// by the faculty may be approved.
func (s *Service) ApproveByFac(cmd DecisionCommand) (Proposition, error) {
	return s.transition(cmd, StatusBackFromFac, TabFacDecision, FacApproved, checkInFacHands, noReason)
}

// RefuseByFac records the faculty's refusal; impossible once the enrollment
// has been authorized or the dossier closed.
func (s *Service) RefuseByFac(cmd DecisionCommand) (Proposition, error) {
	return s.transition(cmd, StatusBackFromFac, TabFacDecision, FacDenied, checkNotFinal, checkReason)
}

// ApproveBySic authorizes the enrollment.
func (s *Service) ApproveBySic(cmd DecisionCommand) (Proposition, error) {
	return s.transition(cmd, StatusEnrollmentAuthorized, TabSicDecision, SicApproved, checkNotFinal, noReason)
}

// RefuseBySic denies the enrollment; a reason is required.
func (s *Service) RefuseBySic(cmd DecisionCommand) (Proposition, error) {
	return s.transition(cmd, StatusEnrollmentDenied, TabSicDecision, SicDenied, checkNotFinal, checkReason)
}

// Close closes the dossier without a decision.
func (s *Service) Close(cmd DecisionCommand) (Proposition, error) {
	return s.transition(cmd, StatusClosed, TabSicDecision, SicClosed, checkIsSubmitted, noReason)
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
	if prop.Checklist != nil {
		prop.setTab(TabSicDecision, SicCancelled)
	}
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

// RequestDocuments marks the listed placeholders as requested from the
// applicant and parks the dossier in the matching to-complete state.
func (s *Service) RequestDocuments(cmd RequestDocumentsCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}
	if err := checkIsSubmitted(&prop); err != nil {
		return Proposition{}, core.BusinessErrors{ErrNotSubmitted}
	}

	now := time.Now().UTC()
	var deadline *time.Time
	if cmd.DeadlineDays > 0 {
		d := now.AddDate(0, 0, cmd.DeadlineDays)
		deadline = &d
	}

	requested := make([]admission.Document, 0, len(cmd.Keys))
	var errs core.BusinessErrors
	for _, key := range cmd.Keys {
		doc, err := s.documents.GetDocument(prop.ID, key)
		if err != nil {
			return Proposition{}, err
		}
		if err := admission.RequestDocument(&doc, cmd.Author, cmd.Reason, admission.RequestImmediately, deadline, now); err != nil {
			errs.Append(err)
			continue
		}
		requested = append(requested, doc)
	}
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}
	if err := s.documents.SaveDocuments(prop.ID, requested); err != nil {
		return Proposition{}, err
	}

	if cmd.ForFac {
		prop.Status = StatusToCompleteForFac
	} else {
		prop.Status = StatusToCompleteForSic
	}
	prop.UpdatedAt = now
	prop, err = s.repo.UpdateProposition(prop)
	if err != nil {
		return Proposition{}, err
	}
	s.record(prop.ID, cmd.Author, "Documents requested", "proposition", "documents")
	s.notify(prop, func(applicant admission.Person, title string) {
		s.notifier.NotifyDocumentsRequested(applicant, title, requested)
	})
	return prop, nil
}

// CancelDocumentRequest reverts one requested placeholder.
func (s *Service) CancelDocumentRequest(cmd CancelDocumentRequestCommand) error {
	if err := core.Validate.Struct(cmd); err != nil {
		return err
	}
	doc, err := s.documents.GetDocument(cmd.PropositionID, cmd.Key)
	if err != nil {
		return err
	}
	var errs core.BusinessErrors
	errs.Append(admission.CancelDocumentRequest(&doc))
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	return s.documents.SaveDocuments(cmd.PropositionID, []admission.Document{doc})
}

// ResetDocuments recomputes the to-be-requested placeholders from the current
// profile. The pass is idempotent.
func (s *Service) ResetDocuments(id string) ([]admission.Document, error) {
	prop, err := s.repo.GetProposition(id)
	if err != nil {
		return nil, err
	}
	cur, err := s.curricula.GetCurriculum(prop.Matricule)
	if err != nil {
		return nil, err
	}
	existing, err := s.documents.ListDocuments(id)
	if err != nil {
		return nil, err
	}

	snap := admission.ProfileSnapshot{
		CurriculumFiles:          append(cur.Files, prop.CurriculumFiles...),
		SpecificAnswers:          prop.SpecificAnswers,
		SecondaryStudiesComplete: cur.SecondaryStudies.Complete(),
		IncompleteExperiences:    admission.IncompleteExperiences(cur.Experiences, prop.TrainingYear, core.Conf.Admission.EctsThresholdYear),
	}
	docs := admission.ResetDocuments(id, existing, admission.StandardRequirements(), snap)

	// drop placeholders removed by the recompute
	byKey := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		byKey[doc.Key()] = struct{}{}
	}
	for _, doc := range existing {
		if _, ok := byKey[doc.Key()]; !ok {
			if err := s.documents.DeleteDocument(id, doc.Key()); err != nil {
				return nil, err
			}
		}
	}
	if err := s.documents.SaveDocuments(id, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Service) ListDocuments(id string) ([]admission.Document, error) {
	if _, err := s.repo.GetProposition(id); err != nil {
		return nil, err
	}
	return s.documents.ListDocuments(id)
}

// transition factors the manager decision flows: validate, load, guard,
// mutate the status and a checklist tab, persist, trace, notify.
func (s *Service) transition(
	cmd DecisionCommand,
	status Status,
	tab string,
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
	prop.setTab(tab, decision)
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
		s.logger.Error("general: recording history", "proposition", propID, "error", err)
	}
}

func (s *Service) notify(prop Proposition, send func(applicant admission.Person, trainingTitle string)) {
	applicant, err := s.persons.GetPerson(prop.Matricule)
	if err != nil {
		s.logger.Error("general: resolving applicant", "proposition", prop.ID, "error", err)
		return
	}
	title := prop.TrainingAcronym
	if training, err := s.trainings.GetTraining(prop.TrainingAcronym, prop.TrainingYear); err == nil {
		title = training.Title
	}
	send(applicant, title)
}
