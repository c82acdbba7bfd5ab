package dummydb

import (
	"fmt"

	"github.com/trezcool/udahili/core/admission"
)

// ---------------------------------------------------------------- trainings

type trainingRepository struct {
	db *trainingTable
}

var _ admission.TrainingRepository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *DB) *trainingRepository {
	return &trainingRepository{db: db.trainings}
}

func trainingKey(acronym string, year int) string {
	return fmt.Sprintf("%s-%d", acronym, year)
}

func (repo *trainingRepository) AddTraining(training admission.Training) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[trainingKey(training.Acronym, training.Year)] = &training
	return nil
}

func (repo *trainingRepository) GetTraining(acronym string, year int) (admission.Training, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if training, ok := repo.db.table[trainingKey(acronym, year)]; ok {
		return *training, nil
	}
	return admission.Training{}, admission.ErrTrainingNotFound
}

func (repo *trainingRepository) SearchTrainings(term string, year int, types ...admission.TrainingType) ([]admission.Training, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	trainings := make([]admission.Training, 0, len(repo.db.table))
	for _, training := range repo.db.table {
		if training.Year != year {
			continue
		}
		if len(types) > 0 && !training.Type.In(types) {
			continue
		}
		trainings = append(trainings, *training)
	}
	return admission.RankTrainings(term, trainings), nil
}

// ------------------------------------------------------------------ persons

type personRepository struct {
	db *personTable
}

var _ admission.PersonRepository = (*personRepository)(nil)

func NewPersonRepository(db *DB) *personRepository {
	return &personRepository{db: db.persons}
}

func (repo *personRepository) AddPerson(person admission.Person) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[person.Matricule] = &person
}

func (repo *personRepository) GetPerson(matricule string) (admission.Person, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if person, ok := repo.db.table[matricule]; ok {
		return *person, nil
	}
	return admission.Person{}, admission.ErrPersonNotFound
}

// ---------------------------------------------------------------- curricula

type curriculumRepository struct {
	db *curriculumTable
}

var _ admission.CurriculumRepository = (*curriculumRepository)(nil)

func NewCurriculumRepository(db *DB) *curriculumRepository {
	return &curriculumRepository{db: db.curricula}
}

func (repo *curriculumRepository) GetCurriculum(matricule string) (admission.Curriculum, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cur, ok := repo.db.table[matricule]; ok {
		return *cur, nil
	}
	return admission.Curriculum{}, nil // an empty curriculum, never an error
}

func (repo *curriculumRepository) SaveCurriculum(matricule string, cur admission.Curriculum) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[matricule] = &cur
	return nil
}

// ---------------------------------------------------------------- documents

type documentRepository struct {
	db *documentTable
}

var _ admission.DocumentRepository = (*documentRepository)(nil)

func NewDocumentRepository(db *DB) *documentRepository {
	return &documentRepository{db: db.documents}
}

func (repo *documentRepository) GetDocument(propositionID, key string) (admission.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if doc, ok := repo.db.table[propositionID][key]; ok {
		return *doc, nil
	}
	return admission.Document{}, admission.ErrDocumentNotFound
}

func (repo *documentRepository) ListDocuments(propositionID string) ([]admission.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	docs := make([]admission.Document, 0, len(repo.db.table[propositionID]))
	for _, doc := range repo.db.table[propositionID] {
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (repo *documentRepository) SaveDocuments(propositionID string, docs []admission.Document) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.table[propositionID] == nil {
		repo.db.table[propositionID] = make(map[string]*admission.Document)
	}
	for i := range docs {
		doc := docs[i]
		repo.db.table[propositionID][doc.Key()] = &doc
	}
	return nil
}

func (repo *documentRepository) DeleteDocument(propositionID, key string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table[propositionID], key)
	return nil
}

// ------------------------------------------------------------------ history

type historyRepository struct {
	db *historyTable
}

var _ admission.History = (*historyRepository)(nil)

func NewHistoryRepository(db *DB) *historyRepository {
	return &historyRepository{db: db.history}
}

func (repo *historyRepository) Record(entry admission.HistoryEntry) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table = append(repo.db.table, entry)
	return nil
}

func (repo *historyRepository) List(propositionID string, tags ...string) ([]admission.HistoryEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var entries []admission.HistoryEntry
	for _, entry := range repo.db.table {
		if entry.PropositionID != propositionID {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(entry, tags) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func hasAnyTag(entry admission.HistoryEntry, tags []string) bool {
	for _, want := range tags {
		for _, tag := range entry.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

// ------------------------------------------------------------------ counter

// propositionCounter counts in-progress propositions across every admission
// context; the per-applicant cap is global.
type propositionCounter struct {
	db *DB
}

var _ admission.PropositionCounter = (*propositionCounter)(nil)

func NewPropositionCounter(db *DB) *propositionCounter {
	return &propositionCounter{db: db}
}

func (repo *propositionCounter) CountInProgress(matricule string) (int, error) {
	var n int

	repo.db.continuing.RLock()
	for _, prop := range repo.db.continuing.table {
		if prop.Matricule == matricule && prop.Status.InProgress() {
			n++
		}
	}
	repo.db.continuing.RUnlock()

	repo.db.general.RLock()
	for _, prop := range repo.db.general.table {
		if prop.Matricule == matricule && prop.Status.InProgress() {
			n++
		}
	}
	repo.db.general.RUnlock()

	repo.db.doctorate.RLock()
	for _, prop := range repo.db.doctorate.table {
		if prop.Matricule == matricule && prop.Status.InProgress() {
			n++
		}
	}
	repo.db.doctorate.RUnlock()

	return n, nil
}
