package continuing

import (
	"fmt"
	"time"

	"github.com/trezcool/udahili/core/checklist"
)

// Status is the lifecycle state of a continuing-education proposition,
// persisted under its legacy wire name.
type Status string

const (
	StatusDraft                Status = "EN_BROUILLON"
	StatusSubmitted            Status = "CONFIRMEE"
	StatusOnHold               Status = "EN_ATTENTE"
	StatusToValidate           Status = "A_VALIDER"
	StatusEnrollmentAuthorized Status = "INSCRIPTION_AUTORISEE"
	StatusEnrollmentDenied     Status = "INSCRIPTION_REFUSEE"
	StatusCancelled            Status = "ANNULEE"
	StatusClosed               Status = "CLOTUREE"
)

// InProgressStatuses are the states counting towards the per-applicant cap.
var InProgressStatuses = []Status{
	StatusDraft, StatusSubmitted, StatusOnHold, StatusToValidate,
}

func (s Status) InProgress() bool {
	for _, st := range InProgressStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Checklist tabs of a continuing-education proposition.
const (
	TabStudentReport = "fiche_etudiant"
	TabDecision      = "decision"
)

var Tabs = []string{TabStudentReport, TabDecision}

// Decision checklist statuses, matched against the decision tab node.
var (
	DecisionToProcess   = checklist.StatusConfig{ID: "A_TRAITER", Label: "To be processed", Status: checklist.StatusCandidate}
	DecisionTakenCharge = checklist.StatusConfig{ID: "PRISE_EN_CHARGE", Label: "Taken in charge", Status: checklist.StatusInProgress, Extra: map[string]string{checklist.ExtraInProgress: checklist.InProgressTakenInCharge}}
	DecisionOnHold      = checklist.StatusConfig{ID: "EN_ATTENTE", Label: "On hold", Status: checklist.StatusInProgress, Extra: map[string]string{checklist.ExtraInProgress: checklist.InProgressOnHold}}
	DecisionFacApproved = checklist.StatusConfig{ID: "FAC_APPROUVEE", Label: "Approved by faculty", Status: checklist.StatusInProgress, Extra: map[string]string{checklist.ExtraInProgress: checklist.InProgressFacApproval}}
	DecisionToValidate  = checklist.StatusConfig{ID: "A_VALIDER", Label: "To be validated", Status: checklist.StatusInProgress, Extra: map[string]string{checklist.ExtraInProgress: checklist.InProgressToValidate}}
	DecisionValidated   = checklist.StatusConfig{ID: "VALIDEE", Label: "Validated", Status: checklist.StatusSuccess}
	DecisionToComplete  = checklist.StatusConfig{ID: "A_COMPLETER", Label: "To be completed", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedToBeCompleted}}
	DecisionDenied      = checklist.StatusConfig{ID: "REFUSEE", Label: "Denied", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedRefusal}}
	DecisionCancelled   = checklist.StatusConfig{ID: "ANNULEE", Label: "Cancelled", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedCanceled}}
	DecisionClosed      = checklist.StatusConfig{ID: "CLOTUREE", Label: "Closed", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedClosed}}

	DecisionTab = checklist.TabConfig{
		Tab: TabDecision,
		Statuses: []checklist.StatusConfig{
			DecisionToProcess, DecisionTakenCharge, DecisionOnHold, DecisionFacApproved,
			DecisionToValidate, DecisionValidated, DecisionToComplete, DecisionDenied,
			DecisionCancelled, DecisionClosed,
		},
	}
)

// NewChecklist is the checklist of a freshly submitted proposition.
func NewChecklist() checklist.State {
	return checklist.State{
		TabStudentReport: checklist.NewNode(checklist.StatusNotConcerned, "Student report"),
		TabDecision:      checklist.NewNode(checklist.StatusCandidate, DecisionToProcess.Label),
	}
}

// Proposition is a continuing-education admission application.
type Proposition struct {
	ID               string            `json:"id"`
	Reference        string            `json:"reference"`
	Matricule        string            `json:"matricule"`
	TrainingAcronym  string            `json:"training_acronym"`
	TrainingYear     int               `json:"training_year"`
	Status           Status            `json:"status"`
	Checklist        checklist.State   `json:"checklist"`
	InitialChecklist checklist.State   `json:"initial_checklist,omitempty"` // frozen at submission
	Motivations      string            `json:"motivations"`
	CurriculumFiles  []string          `json:"curriculum_files"`
	SpecificAnswers  map[string]string `json:"specific_answers"`
	CancelReason     string            `json:"cancel_reason,omitempty"`
	SubmittedAt      *time.Time        `json:"submitted_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Decision returns the decision tab node, nil before submission.
func (p *Proposition) Decision() *checklist.Node {
	if p.Checklist == nil {
		return nil
	}
	return p.Checklist.Get(TabDecision)
}

func (p *Proposition) setDecision(cfg checklist.StatusConfig) {
	node := p.Decision()
	if node == nil {
		p.Checklist = NewChecklist()
		node = p.Decision()
	}
	node.Label = cfg.Label
	node.Set(cfg.Status, cfg.Extra)
}

// Reference formats the human-facing dossier reference, eg. "M-CONT22-000123".
func Reference(year, seq int) string {
	return fmt.Sprintf("M-CONT%02d-%06d", year%100, seq)
}

// Command payloads.
type (
	InitiateCommand struct {
		Matricule       string `json:"matricule" validate:"required"`
		TrainingAcronym string `json:"training_acronym" validate:"required"`
		TrainingYear    int    `json:"training_year" validate:"required"`
		Motivations     string `json:"motivations"`
	}

	ModifyTrainingChoiceCommand struct {
		PropositionID   string `json:"proposition_id" validate:"required"`
		TrainingAcronym string `json:"training_acronym" validate:"required"`
		TrainingYear    int    `json:"training_year" validate:"required"`
		Motivations     string `json:"motivations"`
	}

	CompleteCurriculumCommand struct {
		PropositionID   string            `json:"proposition_id" validate:"required"`
		CurriculumFiles []string          `json:"curriculum_files"`
		SpecificAnswers map[string]string `json:"specific_answers"`
	}

	SubmitCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
	}

	// DecisionCommand drives the manager-side decision transitions.
	DecisionCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
		Author        string `json:"author" validate:"required"`
		Reason        string `json:"reason"`
	}
)
