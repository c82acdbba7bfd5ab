package admission

import (
	"fmt"
	"sort"

	"github.com/trezcool/udahili/core"
)

// Evaluation systems an academic experience can be graded under.
type EvaluationSystem string

const (
	EvalECTS        EvaluationSystem = "ECTS_CREDITS"
	EvalNonEuropean EvaluationSystem = "NON_EUROPEAN_CREDITS"
	EvalNoCredits   EvaluationSystem = "NO_CREDIT_SYSTEM"
)

func (e EvaluationSystem) UsesCredits() bool {
	return e == EvalECTS || e == EvalNonEuropean
}

type YearResult string

const (
	ResultSuccess YearResult = "SUCCESS"
	ResultFailure YearResult = "FAILURE"
	ResultPending YearResult = "WAITING_RESULT"
)

// TranscriptType says whether an experience carries one transcript covering
// every year or one transcript per enrolled year.
type TranscriptType string

const (
	TranscriptGlobal  TranscriptType = "ONE_FOR_ALL_YEARS"
	TranscriptPerYear TranscriptType = "ONE_A_YEAR"
)

const CountryBelgium = "BE"

// linguistic regimes whose transcripts need no certified translation
var translationExemptRegimes = map[string]bool{
	"FR": true,
	"NL": true,
	"EN": true,
	"DE": true,
}

// ExperienceYear is one enrolled academic year of an experience.
type ExperienceYear struct {
	Year                  int        `json:"year"`
	Result                YearResult `json:"result"`
	RegisteredCredits     *float64   `json:"registered_credits"`
	AcquiredCredits       *float64   `json:"acquired_credits"`
	Transcript            []string   `json:"transcript"`
	TranscriptTranslation []string   `json:"transcript_translation"`
}

// Experience is one academic curriculum entry of the applicant.
type Experience struct {
	UUID             string           `json:"uuid"`
	Institute        string           `json:"institute"`
	Program          string           `json:"program"`
	Country          string           `json:"country"` // ISO 3166-1 alpha-2
	LinguisticRegime string           `json:"linguistic_regime"`
	TranscriptType   TranscriptType   `json:"transcript_type"`
	EvaluationSystem EvaluationSystem `json:"evaluation_system"`
	ObtainedDiploma  bool             `json:"obtained_diploma"`
	Graduate         []string         `json:"graduate"` // diploma files
	Grade            string           `json:"grade"`
	// global transcript, when TranscriptType is ONE_FOR_ALL_YEARS
	Transcript            []string         `json:"transcript"`
	TranscriptTranslation []string         `json:"transcript_translation"`
	Years                 []ExperienceYear `json:"years"`
}

func (e Experience) Label() string {
	if e.Program == "" {
		return e.Institute
	}
	return fmt.Sprintf("%s (%s)", e.Program, e.Institute)
}

// TranslationRequired reports whether transcripts of this experience must come
// with a certified translation: foreign institutions whose teaching language
// is not one of the exempt regimes.
func (e Experience) TranslationRequired() bool {
	return e.Country != CountryBelgium && !translationExemptRegimes[e.LinguisticRegime]
}

// CreditsRequired reports whether the credit fields of a year must be filled:
// the evaluation system must use credits, and Belgian years only count from
// the first year ECTS credits were tracked.
func (e Experience) CreditsRequired(year, ectsThresholdYear int) bool {
	if !e.EvaluationSystem.UsesCredits() {
		return false
	}
	if e.Country == CountryBelgium && year < ectsThresholdYear {
		return false
	}
	return true
}

// SecondaryStudies is the applicant's secondary education record.
type SecondaryStudies struct {
	Year         int      `json:"year"` // graduation year
	DiplomaFiles []string `json:"diploma_files"`
}

// Complete reports whether the record exists with its graduation year and the
// diploma attachments.
func (s *SecondaryStudies) Complete() bool {
	return s != nil && s.Year != 0 && len(s.DiplomaFiles) > 0
}

// Curriculum is the applicant's academic record plus the free-form files
// attached to the curriculum tab.
type Curriculum struct {
	Experiences      []Experience      `json:"experiences"`
	Files            []string          `json:"files"`
	SpecificAnswers  map[string]string `json:"specific_answers"`
	SecondaryStudies *SecondaryStudies `json:"secondary_studies,omitempty"`
}

type CurriculumRepository interface {
	GetCurriculum(matricule string) (Curriculum, error)
	SaveCurriculum(matricule string, cur Curriculum) error
}

func (e Experience) complete(currentYear, ectsThresholdYear int) bool {
	translation := e.TranslationRequired()

	if e.TranscriptType == TranscriptGlobal {
		if len(e.Transcript) == 0 {
			return false
		}
		if translation && len(e.TranscriptTranslation) == 0 {
			return false
		}
	}
	if e.ObtainedDiploma && (len(e.Graduate) == 0 || e.Grade == "") {
		return false
	}

	for _, year := range e.Years {
		if year.Result == "" {
			return false
		}
		if e.CreditsRequired(year.Year, ectsThresholdYear) {
			if year.RegisteredCredits == nil || year.AcquiredCredits == nil {
				return false
			}
		}
		if e.TranscriptType != TranscriptPerYear {
			continue
		}
		// the transcript of the running year may still be pending
		if year.Result == ResultPending && year.Year == currentYear {
			continue
		}
		if len(year.Transcript) == 0 {
			return false
		}
		if translation && len(year.TranscriptTranslation) == 0 {
			return false
		}
	}
	return true
}

// IncompleteExperiences returns the experiences still missing required fields
// or attachments, keyed by UUID with a human label as value.
func IncompleteExperiences(experiences []Experience, currentYear, ectsThresholdYear int) map[string]string {
	incomplete := make(map[string]string)
	for _, exp := range experiences {
		if !exp.complete(currentYear, ectsThresholdYear) {
			incomplete[exp.UUID] = exp.Label()
		}
	}
	return incomplete
}

// CheckCurriculum batches the business errors of an incomplete curriculum: a
// missing CV file, one error per incomplete experience and, when the training
// demands it, an incomplete secondary studies record.
func CheckCurriculum(cur Curriculum, currentYear, ectsThresholdYear int, requireSecondaryStudies bool) error {
	var errs core.BusinessErrors
	if len(cur.Files) == 0 {
		errs = append(errs, NewMissingCurriculumFileError())
	}
	if requireSecondaryStudies && !cur.SecondaryStudies.Complete() {
		errs = append(errs, NewIncompleteSecondaryStudiesError())
	}
	for _, label := range sortedLabels(IncompleteExperiences(cur.Experiences, currentYear, ectsThresholdYear)) {
		errs = append(errs, NewIncompleteCurriculumError(label))
	}
	return errs.ErrOrNil()
}

func sortedLabels(m map[string]string) []string {
	labels := make([]string, 0, len(m))
	for _, label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
