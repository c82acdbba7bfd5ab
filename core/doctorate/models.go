package doctorate

import (
	"fmt"
	"time"

	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/checklist"
)

// Status is the lifecycle state of a doctoral proposition, persisted under
// its legacy wire name.
type Status string

const (
	StatusDraft                Status = "EN_BROUILLON"
	StatusAwaitingSignatures   Status = "EN_ATTENTE_DE_SIGNATURE"
	StatusSubmitted            Status = "CONFIRMEE"
	StatusEnrollmentAuthorized Status = "INSCRIPTION_AUTORISEE"
	StatusEnrollmentDenied     Status = "INSCRIPTION_REFUSEE"
	StatusCancelled            Status = "ANNULEE"
	StatusClosed               Status = "CLOTUREE"
)

// InProgressStatuses are the states counting towards the per-applicant cap.
var InProgressStatuses = []Status{
	StatusDraft, StatusAwaitingSignatures, StatusSubmitted,
}

func (s Status) InProgress() bool {
	for _, st := range InProgressStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// AdmissionType distinguishes a full admission from a pre-admission; the
// latter requires a justification.
type AdmissionType string

const (
	TypeAdmission    AdmissionType = "ADMISSION"
	TypePreAdmission AdmissionType = "PRE_ADMISSION"
)

func (t AdmissionType) IsValid() bool {
	return t == TypeAdmission || t == TypePreAdmission
}

// ProximityCommission narrows the doctoral commission for some managing
// entities.
type ProximityCommission string

// Economy & management commissions (CDE / CLSM entities).
const (
	CommissionEconomy    ProximityCommission = "ECONOMY"
	CommissionManagement ProximityCommission = "MANAGEMENT"
)

// Health sector commissions (CDSS entities).
const (
	CommissionClinical     ProximityCommission = "ECLI"
	CommissionPublicHealth ProximityCommission = "ESP"
	CommissionBiomedical   ProximityCommission = "BCM"
)

// Science sub-domains (science doctorate only).
const (
	SubDomainMathematics ProximityCommission = "MATHEMATICS"
	SubDomainPhysics     ProximityCommission = "PHYSICS"
	SubDomainChemistry   ProximityCommission = "CHEMISTRY"
	SubDomainBiology     ProximityCommission = "BIOLOGY"
	SubDomainGeography   ProximityCommission = "GEOGRAPHY"
)

var (
	cdeEntities  = map[string]bool{"CDE": true, "CLSM": true}
	cdssEntities = map[string]bool{"CDSS": true}

	cdeCommissions = map[ProximityCommission]bool{
		CommissionEconomy: true, CommissionManagement: true,
	}
	cdssCommissions = map[ProximityCommission]bool{
		CommissionClinical: true, CommissionPublicHealth: true, CommissionBiomedical: true,
	}
	scienceSubDomains = map[ProximityCommission]bool{
		SubDomainMathematics: true, SubDomainPhysics: true, SubDomainChemistry: true,
		SubDomainBiology: true, SubDomainGeography: true,
	}
)

// ScienceAcronym is the doctorate whose proximity commission is a science
// sub-domain.
const ScienceAcronym = "SC3DP"

// ValidateCommission checks the proximity commission against the training:
// CDE/CLSM entities take an economy/management commission, CDSS entities a
// health one, the science doctorate a sub-domain, everything else none.
func ValidateCommission(training admission.Training, commission ProximityCommission) error {
	switch {
	case cdeEntities[training.ManagementEntity]:
		if !cdeCommissions[commission] {
			return ErrCommissionInconsistent
		}
	case cdssEntities[training.ManagementEntity]:
		if !cdssCommissions[commission] {
			return ErrCommissionInconsistent
		}
	case training.Acronym == ScienceAcronym:
		if !scienceSubDomains[commission] {
			return ErrCommissionInconsistent
		}
	default:
		if commission != "" {
			return ErrCommissionInconsistent
		}
	}
	return nil
}

// Checklist tabs of a doctoral proposition.
const (
	TabProject     = "projet_recherche"
	TabSupervision = "groupe_supervision"
	TabDecision    = "decision_cdd"
)

var Tabs = []string{TabProject, TabSupervision, TabDecision}

// Doctoral commission (CDD) decision statuses.
var (
	DecisionToProcess = checklist.StatusConfig{ID: "A_TRAITER", Label: "To be processed", Status: checklist.StatusCandidate}
	DecisionApproved  = checklist.StatusConfig{ID: "APPROUVEE", Label: "Approved", Status: checklist.StatusSuccess}
	DecisionDenied    = checklist.StatusConfig{ID: "REFUSEE", Label: "Denied", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedRefusal}}
	DecisionCancelled = checklist.StatusConfig{ID: "ANNULEE", Label: "Cancelled", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedCanceled}}
	DecisionClosed    = checklist.StatusConfig{ID: "CLOTUREE", Label: "Closed", Status: checklist.StatusBlocked, Extra: map[string]string{checklist.ExtraBlocked: checklist.BlockedClosed}}

	DecisionTab = checklist.TabConfig{
		Tab: TabDecision,
		Statuses: []checklist.StatusConfig{
			DecisionToProcess, DecisionApproved, DecisionDenied, DecisionCancelled, DecisionClosed,
		},
	}
)

// NewChecklist is the checklist of a freshly submitted proposition.
func NewChecklist() checklist.State {
	return checklist.State{
		TabProject:     checklist.NewNode(checklist.StatusCandidate, "Research project"),
		TabSupervision: checklist.NewNode(checklist.StatusCandidate, "Supervision group"),
		TabDecision:    checklist.NewNode(checklist.StatusCandidate, DecisionToProcess.Label),
	}
}

// Proposition is a doctoral admission application.
type Proposition struct {
	ID                  string              `json:"id"`
	Reference           string              `json:"reference"`
	Matricule           string              `json:"matricule"`
	TrainingAcronym     string              `json:"training_acronym"`
	TrainingYear        int                 `json:"training_year"`
	Status              Status              `json:"status"`
	Checklist           checklist.State     `json:"checklist"`
	InitialChecklist    checklist.State     `json:"initial_checklist,omitempty"` // frozen at submission
	AdmissionType       AdmissionType       `json:"admission_type"`
	Justification       string              `json:"justification,omitempty"`
	ProximityCommission ProximityCommission `json:"proximity_commission,omitempty"`
	Cotutelle           bool                `json:"cotutelle"`
	ProjectTitle        string              `json:"project_title"`
	ProjectDocuments    []string            `json:"project_documents"`
	CurriculumFiles     []string            `json:"curriculum_files"`
	CancelReason        string              `json:"cancel_reason,omitempty"`
	SubmittedAt         *time.Time          `json:"submitted_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func (p *Proposition) Decision() *checklist.Node {
	if p.Checklist == nil {
		return nil
	}
	return p.Checklist.Get(TabDecision)
}

func (p *Proposition) setDecision(cfg checklist.StatusConfig) {
	if p.Checklist == nil {
		p.Checklist = NewChecklist()
	}
	node := p.Checklist.Get(TabDecision)
	node.Label = cfg.Label
	node.Set(cfg.Status, cfg.Extra)
}

// Reference formats the human-facing dossier reference, eg. "M-DOC22-000123".
func Reference(year, seq int) string {
	return fmt.Sprintf("M-DOC%02d-%06d", year%100, seq)
}

// Command payloads.
type (
	InitiateCommand struct {
		Matricule           string              `json:"matricule" validate:"required"`
		TrainingAcronym     string              `json:"training_acronym" validate:"required"`
		TrainingYear        int                 `json:"training_year" validate:"required"`
		AdmissionType       AdmissionType       `json:"admission_type" validate:"required"`
		Justification       string              `json:"justification"`
		ProximityCommission ProximityCommission `json:"proximity_commission"`
		Cotutelle           bool                `json:"cotutelle"`
		ProjectTitle        string              `json:"project_title"`
	}

	CompleteProjectCommand struct {
		PropositionID    string   `json:"proposition_id" validate:"required"`
		ProjectTitle     string   `json:"project_title" validate:"required"`
		ProjectDocuments []string `json:"project_documents"`
	}

	CompleteCurriculumCommand struct {
		PropositionID   string   `json:"proposition_id" validate:"required"`
		CurriculumFiles []string `json:"curriculum_files"`
	}

	MemberCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
		Matricule     string `json:"matricule" validate:"required"`
	}

	SignatureCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
		Matricule     string `json:"matricule" validate:"required"`
		Comment       string `json:"comment"`
		PdfFile       string `json:"pdf_file"`
	}

	SubmitCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
	}

	DecisionCommand struct {
		PropositionID string `json:"proposition_id" validate:"required"`
		Author        string `json:"author" validate:"required"`
		Reason        string `json:"reason"`
	}
)
