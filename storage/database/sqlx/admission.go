package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/udahili/core/admission"
)

// ---------------------------------------------------------------- trainings

type trainingRepository struct {
	db *sqlx.DB
}

var _ admission.TrainingRepository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *sqlx.DB) *trainingRepository {
	return &trainingRepository{db: db}
}

type trainingRow struct {
	Acronym          string `db:"acronym"`
	Year             int    `db:"year"`
	Title            string `db:"title"`
	Type             string `db:"type"`
	ManagementEntity string `db:"management_entity"`
	Campus           string `db:"campus"`
}

func (r trainingRow) toCore() admission.Training {
	return admission.Training{
		Acronym:          r.Acronym,
		Year:             r.Year,
		Title:            r.Title,
		Type:             admission.TrainingType(r.Type),
		ManagementEntity: r.ManagementEntity,
		Campus:           r.Campus,
	}
}

func (repo *trainingRepository) AddTraining(training admission.Training) error {
	_, err := repo.db.NamedExec(
		`INSERT INTO trainings (acronym, year, title, type, management_entity, campus)
		 VALUES (:acronym, :year, :title, :type, :management_entity, :campus)
		 ON CONFLICT (acronym, year) DO UPDATE
		    SET title = EXCLUDED.title, type = EXCLUDED.type,
		        management_entity = EXCLUDED.management_entity, campus = EXCLUDED.campus`,
		trainingRow{
			Acronym:          training.Acronym,
			Year:             training.Year,
			Title:            training.Title,
			Type:             string(training.Type),
			ManagementEntity: training.ManagementEntity,
			Campus:           training.Campus,
		})
	return errors.Wrap(err, "adding training")
}

func (repo *trainingRepository) GetTraining(acronym string, year int) (admission.Training, error) {
	var row trainingRow
	err := repo.db.Get(&row,
		`SELECT acronym, year, title, type, management_entity, campus
		   FROM trainings WHERE acronym = $1 AND year = $2`, acronym, year)
	if err == sql.ErrNoRows {
		return admission.Training{}, admission.ErrTrainingNotFound
	}
	if err != nil {
		return admission.Training{}, errors.Wrap(err, "getting training")
	}
	return row.toCore(), nil
}

func (repo *trainingRepository) SearchTrainings(term string, year int, types ...admission.TrainingType) ([]admission.Training, error) {
	query := `SELECT acronym, year, title, type, management_entity, campus
	            FROM trainings WHERE year = $1`
	args := []interface{}{year}
	if len(types) > 0 {
		strs := make([]string, len(types))
		for i, t := range types {
			strs[i] = string(t)
		}
		query += ` AND type = ANY($2)`
		args = append(args, pq.StringArray(strs))
	}

	var rows []trainingRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "searching trainings")
	}
	trainings := make([]admission.Training, 0, len(rows))
	for _, row := range rows {
		trainings = append(trainings, row.toCore())
	}
	// similarity ranking happens in memory; the candidate set is small
	return admission.RankTrainings(term, trainings), nil
}

// ------------------------------------------------------------------ persons

type personRepository struct {
	db *sqlx.DB
}

var _ admission.PersonRepository = (*personRepository)(nil)

func NewPersonRepository(db *sqlx.DB) *personRepository {
	return &personRepository{db: db}
}

func (repo *personRepository) GetPerson(matricule string) (admission.Person, error) {
	var row struct {
		Matricule  string `db:"matricule"`
		FirstName  string `db:"first_name"`
		LastName   string `db:"last_name"`
		Email      string `db:"email"`
		Language   string `db:"language"`
		IsExternal bool   `db:"is_external"`
	}
	err := repo.db.Get(&row,
		`SELECT matricule, first_name, last_name, email, language, is_external
		   FROM persons WHERE matricule = $1`, matricule)
	if err == sql.ErrNoRows {
		return admission.Person{}, admission.ErrPersonNotFound
	}
	if err != nil {
		return admission.Person{}, errors.Wrap(err, "getting person")
	}
	return admission.Person{
		Matricule:  row.Matricule,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Email:      row.Email,
		Language:   row.Language,
		IsExternal: row.IsExternal,
	}, nil
}

// ---------------------------------------------------------------- curricula

type curriculumRepository struct {
	db *sqlx.DB
}

var _ admission.CurriculumRepository = (*curriculumRepository)(nil)

func NewCurriculumRepository(db *sqlx.DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

func (repo *curriculumRepository) GetCurriculum(matricule string) (admission.Curriculum, error) {
	var data null.JSON
	err := repo.db.Get(&data, `SELECT data FROM curricula WHERE matricule = $1`, matricule)
	if err == sql.ErrNoRows {
		return admission.Curriculum{}, nil // an empty curriculum, never an error
	}
	if err != nil {
		return admission.Curriculum{}, errors.Wrap(err, "getting curriculum")
	}
	var cur admission.Curriculum
	if err := fromJSON(data, &cur); err != nil {
		return admission.Curriculum{}, err
	}
	return cur, nil
}

func (repo *curriculumRepository) SaveCurriculum(matricule string, cur admission.Curriculum) error {
	data, err := toJSON(cur)
	if err != nil {
		return err
	}
	_, err = repo.db.Exec(
		`INSERT INTO curricula (matricule, data) VALUES ($1, $2)
		 ON CONFLICT (matricule) DO UPDATE SET data = EXCLUDED.data`, matricule, data)
	return errors.Wrap(err, "saving curriculum")
}

// ---------------------------------------------------------------- documents

type documentRepository struct {
	db *sqlx.DB
}

var _ admission.DocumentRepository = (*documentRepository)(nil)

func NewDocumentRepository(db *sqlx.DB) *documentRepository {
	return &documentRepository{db: db}
}

type documentRow struct {
	PropositionID string      `db:"proposition_id"`
	Tab           string      `db:"tab"`
	DocID         string      `db:"doc_id"`
	Label         string      `db:"label"`
	Type          string      `db:"type"`
	Status        string      `db:"status"`
	RequestStatus null.String `db:"request_status"`
	Requester     null.String `db:"requester"`
	Reason        null.String `db:"reason"`
	RequestedAt   null.Time   `db:"requested_at"`
	DeadlineAt    null.Time   `db:"deadline_at"`
	CompletedAt   null.Time   `db:"completed_at"`
}

func newDocumentRow(propositionID string, doc admission.Document) documentRow {
	return documentRow{
		PropositionID: propositionID,
		Tab:           doc.Tab,
		DocID:         doc.DocID,
		Label:         doc.Label,
		Type:          string(doc.Type),
		Status:        string(doc.Status),
		RequestStatus: null.NewString(string(doc.RequestStatus), doc.RequestStatus != ""),
		Requester:     null.NewString(doc.Requester, doc.Requester != ""),
		Reason:        null.NewString(doc.Reason, doc.Reason != ""),
		RequestedAt:   null.TimeFromPtr(doc.RequestedAt),
		DeadlineAt:    null.TimeFromPtr(doc.DeadlineAt),
		CompletedAt:   null.TimeFromPtr(doc.CompletedAt),
	}
}

func (r documentRow) toCore() admission.Document {
	return admission.Document{
		PropositionID: r.PropositionID,
		Tab:           r.Tab,
		DocID:         r.DocID,
		Label:         r.Label,
		Type:          admission.DocumentType(r.Type),
		Status:        admission.DocumentStatus(r.Status),
		RequestStatus: admission.RequestStatus(r.RequestStatus.String),
		Requester:     r.Requester.String,
		Reason:        r.Reason.String,
		RequestedAt:   r.RequestedAt.Ptr(),
		DeadlineAt:    r.DeadlineAt.Ptr(),
		CompletedAt:   r.CompletedAt.Ptr(),
	}
}

func (repo *documentRepository) GetDocument(propositionID, key string) (admission.Document, error) {
	var row documentRow
	err := repo.db.Get(&row,
		`SELECT proposition_id, tab, doc_id, label, type, status, request_status,
		        requester, reason, requested_at, deadline_at, completed_at
		   FROM documents WHERE proposition_id = $1 AND tab || '.' || doc_id = $2`,
		propositionID, key)
	if err == sql.ErrNoRows {
		return admission.Document{}, admission.ErrDocumentNotFound
	}
	if err != nil {
		return admission.Document{}, errors.Wrap(err, "getting document")
	}
	return row.toCore(), nil
}

func (repo *documentRepository) ListDocuments(propositionID string) ([]admission.Document, error) {
	var rows []documentRow
	err := repo.db.Select(&rows,
		`SELECT proposition_id, tab, doc_id, label, type, status, request_status,
		        requester, reason, requested_at, deadline_at, completed_at
		   FROM documents WHERE proposition_id = $1 ORDER BY tab, doc_id`, propositionID)
	if err != nil {
		return nil, errors.Wrap(err, "listing documents")
	}
	docs := make([]admission.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.toCore())
	}
	return docs, nil
}

func (repo *documentRepository) SaveDocuments(propositionID string, docs []admission.Document) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "saving documents")
	}
	for _, doc := range docs {
		_, err := tx.NamedExec(
			`INSERT INTO documents (proposition_id, tab, doc_id, label, type, status,
			                        request_status, requester, reason, requested_at, deadline_at, completed_at)
			 VALUES (:proposition_id, :tab, :doc_id, :label, :type, :status,
			         :request_status, :requester, :reason, :requested_at, :deadline_at, :completed_at)
			 ON CONFLICT (proposition_id, tab, doc_id) DO UPDATE SET
			     label = EXCLUDED.label, type = EXCLUDED.type, status = EXCLUDED.status,
			     request_status = EXCLUDED.request_status, requester = EXCLUDED.requester,
			     reason = EXCLUDED.reason, requested_at = EXCLUDED.requested_at,
			     deadline_at = EXCLUDED.deadline_at, completed_at = EXCLUDED.completed_at`,
			newDocumentRow(propositionID, doc))
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "saving documents")
		}
	}
	return errors.Wrap(tx.Commit(), "saving documents")
}

func (repo *documentRepository) DeleteDocument(propositionID, key string) error {
	_, err := repo.db.Exec(
		`DELETE FROM documents WHERE proposition_id = $1 AND tab || '.' || doc_id = $2`,
		propositionID, key)
	return errors.Wrap(err, "deleting document")
}

// ------------------------------------------------------------------ history

type historyRepository struct {
	db *sqlx.DB
}

var _ admission.History = (*historyRepository)(nil)

func NewHistoryRepository(db *sqlx.DB) *historyRepository {
	return &historyRepository{db: db}
}

func (repo *historyRepository) Record(entry admission.HistoryEntry) error {
	_, err := repo.db.Exec(
		`INSERT INTO history (id, proposition_id, author, message, tags, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.PropositionID, entry.Author, entry.Message,
		pq.StringArray(entry.Tags), entry.CreatedAt)
	return errors.Wrap(err, "recording history")
}

func (repo *historyRepository) List(propositionID string, tags ...string) ([]admission.HistoryEntry, error) {
	query := `SELECT id, proposition_id, author, message, tags, created_at
	            FROM history WHERE proposition_id = $1`
	args := []interface{}{propositionID}
	if len(tags) > 0 {
		query += ` AND tags && $2`
		args = append(args, pq.StringArray(tags))
	}
	query += ` ORDER BY created_at`

	rows, err := repo.db.Queryx(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing history")
	}
	defer func() { _ = rows.Close() }()

	var entries []admission.HistoryEntry
	for rows.Next() {
		var entry admission.HistoryEntry
		var entryTags pq.StringArray
		if err := rows.Scan(&entry.ID, &entry.PropositionID, &entry.Author, &entry.Message, &entryTags, &entry.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "listing history")
		}
		entry.Tags = entryTags
		entries = append(entries, entry)
	}
	return entries, errors.Wrap(rows.Err(), "listing history")
}

// ------------------------------------------------------------------ counter

// propositionCounter counts in-progress propositions across every admission
// context; the per-applicant cap is global.
type propositionCounter struct {
	db *sqlx.DB
}

var _ admission.PropositionCounter = (*propositionCounter)(nil)

func NewPropositionCounter(db *sqlx.DB) *propositionCounter {
	return &propositionCounter{db: db}
}

func (repo *propositionCounter) CountInProgress(matricule string) (int, error) {
	var n int
	err := repo.db.Get(&n, `
		SELECT (SELECT COUNT(*) FROM continuing_propositions
		         WHERE matricule = $1 AND status IN ('EN_BROUILLON', 'CONFIRMEE', 'EN_ATTENTE', 'A_VALIDER'))
		     + (SELECT COUNT(*) FROM general_propositions
		         WHERE matricule = $1 AND status NOT IN ('INSCRIPTION_AUTORISEE', 'INSCRIPTION_REFUSEE', 'ANNULEE', 'CLOTUREE'))
		     + (SELECT COUNT(*) FROM doctorate_propositions
		         WHERE matricule = $1 AND status IN ('EN_BROUILLON', 'EN_ATTENTE_DE_SIGNATURE', 'CONFIRMEE'))`,
		matricule)
	return n, errors.Wrap(err, "counting propositions")
}
