package doctorate

import (
	"fmt"
	"io/ioutil"
	"log"
	"testing"

	"github.com/google/uuid"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
)

type fakeRepo struct {
	props map[string]Proposition
	seq   int
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo { return &fakeRepo{props: make(map[string]Proposition)} }

func (r *fakeRepo) GetProposition(id string) (Proposition, error) {
	prop, ok := r.props[id]
	if !ok {
		return Proposition{}, admission.ErrPropositionNotFound
	}
	return prop, nil
}

func (r *fakeRepo) ListPropositions(matricule string) ([]Proposition, error) {
	var props []Proposition
	for _, prop := range r.props {
		if prop.Matricule == matricule {
			props = append(props, prop)
		}
	}
	return props, nil
}

func (r *fakeRepo) CreateProposition(p Proposition) (Proposition, error) {
	r.props[p.ID] = p
	return p, nil
}

func (r *fakeRepo) UpdateProposition(p Proposition) (Proposition, error) {
	if _, ok := r.props[p.ID]; !ok {
		return Proposition{}, admission.ErrPropositionNotFound
	}
	r.props[p.ID] = p
	return p, nil
}

func (r *fakeRepo) DeleteProposition(id string) error {
	delete(r.props, id)
	return nil
}

func (r *fakeRepo) NextSequence(int) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *fakeRepo) CountInProgress(matricule string) (int, error) {
	var n int
	for _, prop := range r.props {
		if prop.Matricule == matricule && prop.Status.InProgress() {
			n++
		}
	}
	return n, nil
}

type fakeGroups map[string]*Group

var _ GroupRepository = (fakeGroups)(nil)

func (r fakeGroups) GetGroup(propositionID string) (*Group, error) {
	group, ok := r[propositionID]
	if !ok {
		return nil, admission.ErrPropositionNotFound
	}
	return group, nil
}

func (r fakeGroups) SaveGroup(group *Group) error {
	r[group.PropositionID] = group
	return nil
}

type fakeTrainings map[string]admission.Training

func (r fakeTrainings) GetTraining(acronym string, year int) (admission.Training, error) {
	training, ok := r[fmt.Sprintf("%s-%d", acronym, year)]
	if !ok {
		return admission.Training{}, admission.ErrTrainingNotFound
	}
	return training, nil
}

func (r fakeTrainings) SearchTrainings(string, int, ...admission.TrainingType) ([]admission.Training, error) {
	return nil, nil
}

type fakePersons map[string]admission.Person

func (r fakePersons) GetPerson(matricule string) (admission.Person, error) {
	person, ok := r[matricule]
	if !ok {
		return admission.Person{}, admission.ErrPersonNotFound
	}
	return person, nil
}

type fakeHistory struct {
	entries []admission.HistoryEntry
}

func (h *fakeHistory) Record(entry admission.HistoryEntry) error {
	h.entries = append(h.entries, entry)
	return nil
}

func (h *fakeHistory) List(propID string, tags ...string) ([]admission.HistoryEntry, error) {
	var entries []admission.HistoryEntry
	for _, entry := range h.entries {
		if entry.PropositionID == propID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type fakeNotifier struct {
	sent []string
}

var _ admission.Notifier = (*fakeNotifier)(nil)

func (n *fakeNotifier) NotifySubmitted(admission.Person, string) *core.EmailMessage {
	n.sent = append(n.sent, "submitted")
	return nil
}

func (n *fakeNotifier) NotifyStatusChanged(_ admission.Person, _, status string) *core.EmailMessage {
	n.sent = append(n.sent, "status-changed:"+status)
	return nil
}

func (n *fakeNotifier) NotifyDocumentsRequested(admission.Person, string, []admission.Document) *core.EmailMessage {
	n.sent = append(n.sent, "documents-requested")
	return nil
}

func (n *fakeNotifier) NotifySignatureRequested(signatory, _ admission.Person, _ string) *core.EmailMessage {
	n.sent = append(n.sent, "signature-requested:"+signatory.Matricule)
	return nil
}

type testEnv struct {
	repo     *fakeRepo
	groups   fakeGroups
	persons  fakePersons
	history  *fakeHistory
	notifier *fakeNotifier
	svc      *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:   newFakeRepo(),
		groups: fakeGroups{},
		persons: fakePersons{
			"12345678":   {Matricule: "12345678", FirstName: "Marie", LastName: "Curie", Email: "marie@test.be", Language: "fr"},
			"promoter-1": {Matricule: "promoter-1", FirstName: "Pierre", LastName: "Curie", Email: "pierre@test.be"},
			"ca-1":       {Matricule: "ca-1", FirstName: "Paul", LastName: "Langevin", Email: "paul@test.be"},
			"ext-1":      {Matricule: "ext-1", FirstName: "Ernest", LastName: "Rutherford", Email: "ernest@test.uk", IsExternal: true},
		},
		history:  &fakeHistory{},
		notifier: &fakeNotifier{},
	}
	trainings := fakeTrainings{
		"ECGE3DP-2022": {Acronym: "ECGE3DP", Year: 2022, Title: "Doctorat en sciences économiques et de gestion", Type: admission.TypeDoctorate, ManagementEntity: "CDE"},
		"SC3DP-2022":   {Acronym: "SC3DP", Year: 2022, Title: "Doctorat en sciences", Type: admission.TypeDoctorate, ManagementEntity: "SST"},
		"MED3DP-2022":  {Acronym: "MED3DP", Year: 2022, Title: "Doctorat en sciences médicales", Type: admission.TypeDoctorate, ManagementEntity: "CDSS"},
		"DROI1BA-2022": {Acronym: "DROI1BA", Year: 2022, Title: "Bachelier en droit", Type: admission.TypeBachelor},
	}
	logger := core.NewStdLogger(log.New(ioutil.Discard, "", 0))
	env.svc = NewService(env.repo, env.groups, trainings, env.persons, env.repo, env.history, env.notifier, logger)
	return env
}

func (env *testEnv) seedProposition(t *testing.T, mutate func(*Proposition)) Proposition {
	t.Helper()
	prop := Proposition{
		ID:              uuid.New().String(),
		Reference:       Reference(2022, 1),
		Matricule:       "12345678",
		TrainingAcronym: "ECGE3DP",
		TrainingYear:    2022,
		Status:          StatusDraft,
		AdmissionType:   TypeAdmission,
	}
	if mutate != nil {
		mutate(&prop)
	}
	env.repo.props[prop.ID] = prop
	if _, ok := env.groups[prop.ID]; !ok {
		env.groups[prop.ID] = NewGroup(prop.ID)
	}
	return prop
}
