package continuing

import (
	"fmt"
	"io/ioutil"
	"log"
	"testing"

	"github.com/google/uuid"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
)

// In-package fakes for the service collaborators.

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

func (r fakeTrainings) SearchTrainings(term string, year int, types ...admission.TrainingType) ([]admission.Training, error) {
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

type notification struct {
	kind      string
	recipient string
	status    string
}

type fakeNotifier struct {
	sent []notification
}

var _ admission.Notifier = (*fakeNotifier)(nil)

func (n *fakeNotifier) NotifySubmitted(applicant admission.Person, trainingTitle string) *core.EmailMessage {
	n.sent = append(n.sent, notification{kind: "submitted", recipient: applicant.Email})
	return nil
}

func (n *fakeNotifier) NotifyStatusChanged(applicant admission.Person, trainingTitle, status string) *core.EmailMessage {
	n.sent = append(n.sent, notification{kind: "status-changed", recipient: applicant.Email, status: status})
	return nil
}

func (n *fakeNotifier) NotifyDocumentsRequested(applicant admission.Person, trainingTitle string, docs []admission.Document) *core.EmailMessage {
	n.sent = append(n.sent, notification{kind: "documents-requested", recipient: applicant.Email})
	return nil
}

func (n *fakeNotifier) NotifySignatureRequested(signatory, applicant admission.Person, trainingTitle string) *core.EmailMessage {
	n.sent = append(n.sent, notification{kind: "signature-requested", recipient: signatory.Email})
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
			"ECGE3DP-2022": {Acronym: "ECGE3DP", Year: 2022, Title: "Doctorat en sciences économiques et de gestion", Type: admission.TypeDoctorate},
			"USCC2-2022":   {Acronym: "USCC2", Year: 2022, Title: "Certificat en soins critiques", Type: admission.TypeUniversityCertificate},
			"FORCO1-2022":  {Acronym: "FORCO1", Year: 2022, Title: "Certificat de formation continue", Type: admission.TypeCertificate},
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

// seedProposition stores a proposition directly, bypassing the handlers.
func (env *testEnv) seedProposition(t *testing.T, mutate func(*Proposition)) Proposition {
	t.Helper()
	prop := Proposition{
		ID:              uuid.New().String(),
		Reference:       Reference(2022, 1),
		Matricule:       "12345678",
		TrainingAcronym: "USCC2",
		TrainingYear:    2022,
		Status:          StatusDraft,
	}
	if mutate != nil {
		mutate(&prop)
	}
	env.repo.props[prop.ID] = prop
	return prop
}
