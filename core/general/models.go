package general

import (
	"fmt"
	"time"

	"github.com/trezcool/udahili/core/checklist"
)

// Status is the lifecycle state of a general-education proposition,
// persisted under its legacy wire name.
type Status string

const (
	StatusDraft                Status = "EN_BROUILLON"
	StatusAwaitingFeePayment   Status = "FRAIS_PAIEMENT_EN_ATTENTE"
	StatusSubmitted            Status = "CONFIRMEE"
	StatusFacProcessing        Status = "TRAITEMENT_FAC"
	StatusBackFromFac          Status = "RETOUR_DE_FAC"
	StatusSicProcessing        Status = "TRAITEMENT_SIC"
	StatusToCompleteForSic     Status = "A_COMPLETER_POUR_SIC"
	StatusToCompleteForFac     Status = "A_COMPLETER_POUR_FAC"
	StatusAwaitingManagement   Status = "ATTENTE_VALIDATION_DIRECTION"
	StatusEnrollmentAuthorized Status = "INSCRIPTION_AUTORISEE"
	StatusEnrollmentDenied     Status = "INSCRIPTION_REFUSEE"
	StatusClosed               Status = "CLOTUREE"
	StatusCancelled            Status = "ANNULEE"
)

// InProgressStatuses are the states counting towards the per-applicant cap.
var InProgressStatuses = []Status{
	StatusDraft, StatusAwaitingFeePayment, StatusSubmitted, StatusFacProcessing,
	StatusBackFromFac, StatusSicProcessing, StatusToCompleteForSic,
	StatusToCompleteForFac, StatusAwaitingManagement,
}

func (s Status) InProgress() bool {
	for _, st := range InProgressStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Checklist tabs of a general-education proposition.
const (
	TabPersonalData     = "donnees_personnelles"
	TabApplicationFee   = "frais_dossier"
	TabTrainingChoice   = "choix_formation"
	TabPastExperience   = "parcours_anterieur"
	TabSecondaryStudies = "etudes_secondaires"
	TabFacDecision      = "decision_facultaire"
	TabSicDecision      = "decision_sic"
)

var Tabs = []string{
	TabPersonalData, TabApplicationFee, TabTrainingChoice, TabPastExperience,
	TabSecondaryStudies, TabFacDecision, TabSicDecision,
}

// Faculty decision statuses.
var (
	FacToProcess  = checklist.StatusConfig{ID: "A_TRAITER", Label: "To be processed", Status: checklist.StatusCandidate}
	FacInProgress = checklist.StatusConfig{ID: "EN_COURS", Label: "Being processed by the faculty", Status: checklist.StatusInProgress, Extra: map[string]string{checklist.ExtraInProgress: checklist.InProgressTakenInCharge}}
	FacApproved   = checklist.StatusConfig{ID: "APPROUVEE", Label: "Approved by the faculty", Status: checklist.StatusSuccess}
	FacDenied     = checklist.StatusConfig{ID: "REFUSEE", Label: "Denied by the faculty", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedRefusal}}

	FacDecisionTab = checklist.TabConfig{
		Tab:      TabFacDecision,
		Statuses: []checklist.StatusConfig{FacToProcess, FacInProgress, FacApproved, FacDenied},
	}
)

// Central enrollment office (SIC) decision statuses.
var (
	SicToProcess = checklist.StatusConfig{ID: "A_TRAITER", Label: "To be processed", Status: checklist.StatusCandidate}
	SicApproved  = checklist.StatusConfig{ID: "AUTORISEE", Label: "Enrollment authorized", Status: checklist.StatusSuccess}
	SicDenied    = checklist.StatusConfig{ID: "REFUSEE", Label: "Enrollment denied", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedRefusal}}
	SicCancelled = checklist.StatusConfig{ID: "ANNULEE", Label: "Cancelled", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedCanceled}}
	SicClosed    = checklist.StatusConfig{ID: "CLOTUREE", Label: "Closed", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedClosed}}

	SicDecisionTab = checklist.TabConfig{
		Tab:      TabSicDecision,
		Statuses: []checklist.StatusConfig{SicToProcess, SicApproved, SicDenied, SicCancelled, SicClosed},
	}
)

// NewChecklist is the checklist of a freshly submitted proposition.
func NewChecklist() checklist.State {
	return checklist.State{
		TabPersonalData:     checklist.NewNode(checklist.StatusCandidate, "Personal data"),
		TabApplicationFee:   checklist.NewNode(checklist.StatusCandidate, "Application fee"),
		TabTrainingChoice:   checklist.NewNode(checklist.StatusCandidate, "Training choice"),
		TabPastExperience:   checklist.NewNode(checklist.StatusCandidate, "Previous experience"),
		TabSecondaryStudies: checklist.NewNode(checklist.StatusNotConcerned, "Secondary studies"),
		TabFacDecision:      checklist.NewNode(checklist.StatusCandidate, FacToProcess.Label),
		TabSicDecision:      checklist.NewNode(checklist.StatusCandidate, SicToProcess.Label),
	}
}

// Proposition is a general-education (bachelor/master) admission application.
type Proposition struct {
	ID               string            `json:"id"`
	Reference        string            `json:"reference"`
	Matricule        string            `json:"matricule"`
	TrainingAcronym  string            `json:"training_acronym"`
	TrainingYear     int               `json:"training_year"`
	Status           Status            `json:"status"`
	Checklist        checklist.State   `json:"checklist"`
	InitialChecklist checklist.State   `json:"initial_checklist,omitempty"` // frozen at submission
	CurriculumFiles  []string          `json:"curriculum_files"`
	SpecificAnswers  map[string]string `json:"specific_answers"`
	FeePaidAt        *time.Time        `json:"fee_paid_at,omitempty"`
	CancelReason     string            `json:"cancel_reason,omitempty"`
	SubmittedAt      *time.Time        `json:"submitted_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (p *Proposition) FacDecision() *checklist.Node {
	if p.Checklist == nil {
		return nil
	}
	return p.Checklist.Get(TabFacDecision)
}

func (p *Proposition) SicDecision() *checklist.Node {
	if p.Checklist == nil {
		return nil
	}
	return p.Checklist.Get(TabSicDecision)
}

func (p *Proposition) setTab(tab string, cfg checklist.StatusConfig) {
	if p.Checklist == nil {
		p.Checklist = NewChecklist()
	}
	node := p.Checklist.Get(tab)
	node.Label = cfg.Label
	node.Set(cfg.Status, cfg.Extra)
}

// Reference formats the human-facing dossier reference, eg. "M-GEN22-000123".
func Reference(year, seq int) string {
	return fmt.Sprintf("M-GEN%02d-%06d", year%100, seq)
}

// Command payloads.
type (
	InitiateCommand struct {
		Matricule       string `json:"matricule" validate:"required"`
		TrainingAcronym string `json:"training_acronym" validate:"required"`
		TrainingYear    int    `json:"training_year" validate:"required"`
	}

	ModifyTrainingChoiceCommand struct {
		PropositionID   string `json:"proposition_id" validate:"required"`
		TrainingAcronym string `json:"training_acronym" validate:"required"`
		TrainingYear    int    `json:"training_year" validate:"required"`
	}

	CompleteCurriculumCommand struct {
		PropositionID   string            `json:"proposition_id" validate:"required"`
		CurriculumFiles []string          `json:"curriculum_files"`
		SpecificAnswers map[string]string `json:"specific_answers"`
	}

	SubmitCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
	}

	SpecifyFeePaymentCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
		Paid          bool   `json:"paid"`
	}

	DecisionCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
		Author        string `json:"author" validate:"required"`
		Reason        string `json:"reason"`
	}

	RequestDocumentsCommand struct {
		PropositionID string   `json:"proposition_id" validate:"required"`
		Author        string   `json:"author" validate:"required"`
		Keys          []string `json:"keys" validate:"required,min=1"`
		Reason        string   `json:"reason"`
		ForFac        bool     `json:"for_fac"`
		DeadlineDays  int      `json:"deadline_days"`
	}

	CancelDocumentRequestCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
		Key           string `json:"key" validate:"required"`
	}
)
