package admission

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// TrainingType discriminates the admission context a training belongs to.
type TrainingType string

const (
	TypeBachelor              TrainingType = "BACHELOR"
	TypeMaster                TrainingType = "MASTER"
	TypeAggregation           TrainingType = "AGGREGATION"
	TypeCertificate           TrainingType = "CERTIFICATE"
	TypeUniversityCertificate TrainingType = "UNIVERSITY_CERTIFICATE"
	TypeDoctorate             TrainingType = "PHD"
)

var (
	GeneralEducationTypes    = []TrainingType{TypeBachelor, TypeMaster, TypeAggregation}
	ContinuingEducationTypes = []TrainingType{TypeCertificate, TypeUniversityCertificate}
	DoctorateTypes           = []TrainingType{TypeDoctorate}
)

func (t TrainingType) In(types []TrainingType) bool {
	for _, typ := range types {
		if t == typ {
			return true
		}
	}
	return false
}

// Training identifies a programme offered for a given academic year.
type Training struct {
	Acronym          string       `json:"acronym"`
	Year             int          `json:"year"`
	Title            string       `json:"title"`
	Type             TrainingType `json:"type"`
	ManagementEntity string       `json:"management_entity"`
	Campus           string       `json:"campus"`
}

type TrainingRepository interface {
	// GetTraining returns ErrTrainingNotFound when no training matches.
	GetTraining(acronym string, year int) (Training, error)
	SearchTrainings(term string, year int, types ...TrainingType) ([]Training, error)
}

// minimum similarity for a training to be considered a search hit
const searchMinRatio = .3

// RankTrainings orders trainings by similarity of the term with their acronym
// or title, dropping anything below the minimum ratio. Exact acronym and
// substring matches always rank first.
func RankTrainings(term string, trainings []Training) []Training {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return trainings
	}

	type hit struct {
		training Training
		ratio    float64
	}

	getRatio := func(s string) float64 {
		s = strings.ToLower(s)
		if s == term {
			return 1
		}
		if strings.Contains(s, term) {
			return .99
		}
		return difflib.NewMatcher(strings.Split(term, ""), strings.Split(s, "")).QuickRatio()
	}

	hits := make([]hit, 0, len(trainings))
	for _, training := range trainings {
		ratio := getRatio(training.Acronym)
		if r := getRatio(training.Title); r > ratio {
			ratio = r
		}
		if ratio >= searchMinRatio {
			hits = append(hits, hit{training, ratio})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].ratio > hits[j].ratio })

	ranked := make([]Training, 0, len(hits))
	for _, h := range hits {
		ranked = append(ranked, h.training)
	}
	return ranked
}
