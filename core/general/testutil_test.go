package general

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

type fakeCurricula map[string]admission.Curriculum

func (r fakeCurricula) GetCurriculum(matricule string) (admission.Curriculum, error) {
	return r[matricule], nil
}

func (r fakeCurricula) SaveCurriculum(matricule string, cur admission.Curriculum) error {
	r[matricule] = cur
	return nil
}

type fakeDocs map[string]admission.Document

func (r fakeDocs) GetDocument(propID, key string) (admission.Document, error) {
	doc, ok := r[propID+"/"+key]
	if !ok {
		return admission.Document{}, admission.ErrDocumentNotFound
	}
	return doc, nil
}

func (r fakeDocs) ListDocuments(propID string) ([]admission.Document, error) {
	var docs []admission.Document
	for _, doc := range r {
		if doc.PropositionID == propID {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (r fakeDocs) SaveDocuments(propID string, docs []admission.Document) error {
	for _, doc := range docs {
		r[propID+"/"+doc.Key()] = doc
	}
	return nil
}

func (r fakeDocs) DeleteDocument(propID, key string) error {
	delete(r, propID+"/"+key)
	return nil
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

func (n *fakeNotifier) NotifySignatureRequested(_, _ admission.Person, _ string) *core.EmailMessage {
	n.sent = append(n.sent, "signature-requested")
	return nil
}

type testEnv struct {
	repo      *fakeRepo
	trainings fakeTrainings
	persons   fakePersons
	curricula fakeCurricula
	docs      fakeDocs
	history   *fakeHistory
	notifier  *fakeNotifier
	svc       *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo: newFakeRepo(),
		trainings: fakeTrainings{
			"DROI1BA-2022": {Acronym: "DROI1BA", Year: 2022, Title: "Bachelier en droit", Type: admission.TypeBachelor},
			"GEST2M-2022":  {Acronym: "GEST2M", Year: 2022, Title: "Master en sciences de gestion", Type: admission.TypeMaster},
			"USCC2-2022":   {Acronym: "USCC2", Year: 2022, Title: "Certificat en soins critiques", Type: admission.TypeUniversityCertificate},
		},
		persons: fakePersons{
			"12345678": {Matricule: "12345678", FirstName: "Marie", LastName: "Curie", Email: "marie@test.be", Language: "fr"},
		},
		curricula: fakeCurricula{},
		docs:      fakeDocs{},
		history:   &fakeHistory{},
		notifier:  &fakeNotifier{},
	}
	logger := core.NewStdLogger(log.New(ioutil.Discard, "", 0))
	env.svc = NewService(env.repo, env.trainings, env.persons, env.curricula, env.docs, env.repo, env.history, env.notifier, logger)
	return env
}

func (env *testEnv) seedProposition(t *testing.T, mutate func(*Proposition)) Proposition {
	t.Helper()
	prop := Proposition{
		ID:              uuid.New().String(),
		Reference:       Reference(2022, 1),
		Matricule:       "12345678",
		TrainingAcronym: "DROI1BA",
		TrainingYear:    2022,
		Status:          StatusDraft,
	}
	if mutate != nil {
		mutate(&prop)
	}
	env.repo.props[prop.ID] = prop
	return prop
}
