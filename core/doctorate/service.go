package doctorate

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
		groups    GroupRepository
		trainings admission.TrainingRepository
		persons   admission.PersonRepository
		counter   admission.PropositionCounter
		history   admission.History
		notifier  admission.Notifier
		logger    core.Logger
	}
)

func NewService(
	repo Repository,
	groups GroupRepository,
	trainings admission.TrainingRepository,
	persons admission.PersonRepository,
	counter admission.PropositionCounter,
	history admission.History,
	notifier admission.Notifier,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		groups:    groups,
		trainings: trainings,
		persons:   persons,
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

func (s *Service) GetGroup(propositionID string) (*Group, error) {
	if _, err := s.repo.GetProposition(propositionID); err != nil {
		return nil, err
	}
	return s.groups.GetGroup(propositionID)
}

// Initiate creates a draft doctoral proposition, checking the admission type,
// the proximity commission and the per-applicant cap.
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
	errs.Append(checkAdmissionType(cmd.AdmissionType))
	errs.Append(checkJustification(cmd.AdmissionType, cmd.Justification))
	errs.Append(ValidateCommission(training, cmd.ProximityCommission))
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}

	seq, err := s.repo.NextSequence(cmd.TrainingYear)
	if err != nil {
		return Proposition{}, err
	}
	now := time.Now().UTC()
	prop := Proposition{
		ID:                  uuid.New().String(),
		Reference:           Reference(cmd.TrainingYear, seq),
		Matricule:           cmd.Matricule,
		TrainingAcronym:     training.Acronym,
		TrainingYear:        training.Year,
		Status:              StatusDraft,
		AdmissionType:       cmd.AdmissionType,
		Justification:       core.CleanString(cmd.Justification),
		ProximityCommission: cmd.ProximityCommission,
		Cotutelle:           cmd.Cotutelle,
		ProjectTitle:        core.CleanString(cmd.ProjectTitle),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	prop, err = s.repo.CreateProposition(prop)
	if err != nil {
		return Proposition{}, err
	}
	if err := s.groups.SaveGroup(NewGroup(prop.ID)); err != nil {
		return Proposition{}, err
	}
	s.record(prop.ID, cmd.Matricule, "Proposition initiated", "proposition", "status-changed")
	return prop, nil
}

// CompleteProject stores the research project details.
func (s *Service) CompleteProject(cmd CompleteProjectCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}
	prop.ProjectTitle = core.CleanString(cmd.ProjectTitle)
	prop.ProjectDocuments = cmd.ProjectDocuments
	prop.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateProposition(prop)
}

// CompleteCurriculum stores the curriculum attachments. Re-applying with an
// empty list clears them.
func (s *Service) CompleteCurriculum(cmd CompleteCurriculumCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	prop, err := s.repo.GetProposition(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}
	prop.CurriculumFiles = cmd.CurriculumFiles
	prop.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateProposition(prop)
}

// AddPromoter adds a promoter to the supervision group.
func (s *Service) AddPromoter(cmd MemberCommand) error {
	return s.addMember(cmd, RolePromoter)
}

// AddCaMember adds a supervision committee member to the supervision group.
func (s *Service) AddCaMember(cmd MemberCommand) error {
	return s.addMember(cmd, RoleCaMember)
}

func (s *Service) addMember(cmd MemberCommand, role Role) error {
	if err := core.Validate.Struct(cmd); err != nil {
		return err
	}
	group, prop, err := s.loadGroup(cmd.PropositionID)
	if err != nil {
		return err
	}
	person, err := s.persons.GetPerson(cmd.Matricule)
	if err != nil && err != admission.ErrPersonNotFound {
		return err
	}
	internal := err == nil && !person.IsExternal
	external := err == nil && person.IsExternal

	var errs core.BusinessErrors
	errs.Append(group.AddMember(cmd.Matricule, role, internal, external))
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	if err := s.groups.SaveGroup(group); err != nil {
		return err
	}
	s.record(prop.ID, prop.Matricule, "Supervision member added: "+cmd.Matricule, "supervision")
	return nil
}

// RemoveMember drops a member from the supervision group.
func (s *Service) RemoveMember(cmd MemberCommand) error {
	if err := core.Validate.Struct(cmd); err != nil {
		return err
	}
	group, prop, err := s.loadGroup(cmd.PropositionID)
	if err != nil {
		return err
	}
	var errs core.BusinessErrors
	errs.Append(group.RemoveMember(cmd.Matricule))
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	if err := s.groups.SaveGroup(group); err != nil {
		return err
	}
	s.record(prop.ID, prop.Matricule, "Supervision member removed: "+cmd.Matricule, "supervision")
	return nil
}

// DesignateReferencePromoter marks one promoter as the reference promoter.
func (s *Service) DesignateReferencePromoter(cmd MemberCommand) error {
	if err := core.Validate.Struct(cmd); err != nil {
		return err
	}
	group, _, err := s.loadGroup(cmd.PropositionID)
	if err != nil {
		return err
	}
	var errs core.BusinessErrors
	errs.Append(group.DesignateReferencePromoter(cmd.Matricule))
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	return s.groups.SaveGroup(group)
}

// InviteToSign opens the signing round: the group composition is verified,
// every member is invited and the proposition awaits signatures.
func (s *Service) InviteToSign(cmd SubmitCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	group, prop, err := s.loadGroup(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}

	var errs core.BusinessErrors
	errs.Append(checkIsDraft(&prop))
	errs.Append(group.VerifyComposition(prop.Cotutelle))
	if err := errs.ErrOrNil(); err != nil {
		return Proposition{}, err
	}

	invited := group.InviteToSign()
	if err := s.groups.SaveGroup(group); err != nil {
		return Proposition{}, err
	}

	prop.Status = StatusAwaitingSignatures
	prop.UpdatedAt = time.Now().UTC()
	prop, err = s.repo.UpdateProposition(prop)
	if err != nil {
		return Proposition{}, err
	}
	s.record(prop.ID, prop.Matricule, "Signatures requested", "proposition", "supervision")
	s.notifyInvitations(prop, invited)
	return prop, nil
}

// ResendInvitations re-notifies the members that have been invited but have
// not decided yet; only valid while the signing round is in progress.
func (s *Service) ResendInvitations(cmd SubmitCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	group, prop, err := s.loadGroup(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}
	if prop.Status != StatusAwaitingSignatures {
		return Proposition{}, core.BusinessErrors{ErrNotAwaitingSignatures}
	}

	s.record(prop.ID, prop.Matricule, "Signature invitations resent", "supervision")
	s.notifyInvitations(prop, group.PendingSignatories())
	return prop, nil
}

// ApproveBySignatory records one member's approval.
func (s *Service) ApproveBySignatory(cmd SignatureCommand) error {
	return s.sign(cmd, func(group *Group, now time.Time) error {
		if cmd.PdfFile != "" {
			return group.ApproveByPdf(cmd.Matricule, cmd.PdfFile, now)
		}
		return group.Approve(cmd.Matricule, cmd.Comment, now)
	})
}

// RefuseBySignatory records one member's refusal. A promoter refusal resets
// the whole signing round and sends the proposition back to draft.
func (s *Service) RefuseBySignatory(cmd SignatureCommand) error {
	return s.sign(cmd, func(group *Group, now time.Time) error {
		return group.Decline(cmd.Matricule, cmd.Comment, now)
	})
}

func (s *Service) sign(cmd SignatureCommand, decide func(*Group, time.Time) error) error {
	if err := core.Validate.Struct(cmd); err != nil {
		return err
	}
	group, prop, err := s.loadGroup(cmd.PropositionID)
	if err != nil {
		return err
	}
	if prop.Status != StatusAwaitingSignatures {
		return core.BusinessErrors{ErrNotAwaitingSignatures}
	}

	now := time.Now().UTC()
	var errs core.BusinessErrors
	errs.Append(decide(group, now))
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	if err := s.groups.SaveGroup(group); err != nil {
		return err
	}

	// a voided round sends the proposition back to draft
	if !group.SigningInProgress() {
		prop.Status = StatusDraft
		prop.UpdatedAt = now
		if _, err := s.repo.UpdateProposition(prop); err != nil {
			return err
		}
	}
	s.record(prop.ID, cmd.Matricule, "Signature decision recorded", "supervision")
	return nil
}

// Submit confirms the proposition once every signature is in.
func (s *Service) Submit(cmd SubmitCommand) (Proposition, error) {
	if err := core.Validate.Struct(cmd); err != nil {
		return Proposition{}, err
	}
	group, prop, err := s.loadGroup(cmd.PropositionID)
	if err != nil {
		return Proposition{}, err
	}

	var errs core.BusinessErrors
	errs.Append(checkAwaitingSignatures(&prop))
	errs.Append(group.VerifyComplete(prop.Cotutelle))
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

// Approve records the doctoral commission's approval.
func (s *Service) Approve(cmd DecisionCommand) (Proposition, error) {
	return s.decide(cmd, StatusEnrollmentAuthorized, DecisionApproved, checkIsSubmitted, noReason)
}

// Refuse records the doctoral commission's refusal; a reason is required.
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
	if prop.Checklist != nil {
		prop.setDecision(DecisionCancelled)
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

func (s *Service) loadGroup(propositionID string) (*Group, Proposition, error) {
	prop, err := s.repo.GetProposition(propositionID)
	if err != nil {
		return nil, Proposition{}, err
	}
	group, err := s.groups.GetGroup(propositionID)
	if err != nil {
		return nil, Proposition{}, err
	}
	return group, prop, nil
}

func (s *Service) record(propID, author, message string, tags ...string) {
	if err := s.history.Record(admission.NewHistoryEntry(propID, author, message, tags...)); err != nil {
		s.logger.Error("doctorate: recording history", "proposition", propID, "error", err)
	}
}

func (s *Service) notify(prop Proposition, send func(applicant admission.Person, trainingTitle string)) {
	applicant, err := s.persons.GetPerson(prop.Matricule)
	if err != nil {
		s.logger.Error("doctorate: resolving applicant", "proposition", prop.ID, "error", err)
		return
	}
	title := prop.TrainingAcronym
	if training, err := s.trainings.GetTraining(prop.TrainingAcronym, prop.TrainingYear); err == nil {
		title = training.Title
	}
	send(applicant, title)
}

func (s *Service) notifyInvitations(prop Proposition, invited []*Signatory) {
	applicant, err := s.persons.GetPerson(prop.Matricule)
	if err != nil {
		s.logger.Error("doctorate: resolving applicant", "proposition", prop.ID, "error", err)
		return
	}
	title := prop.TrainingAcronym
	if training, err := s.trainings.GetTraining(prop.TrainingAcronym, prop.TrainingYear); err == nil {
		title = training.Title
	}
	for _, member := range invited {
		signatory, err := s.persons.GetPerson(member.Matricule)
		if err != nil {
			s.logger.Warn("doctorate: signatory without a profile", "matricule", member.Matricule)
			continue
		}
		s.notifier.NotifySignatureRequested(signatory, applicant, title)
	}
}
