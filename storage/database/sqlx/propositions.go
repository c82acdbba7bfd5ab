package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/checklist"
	"github.com/trezcool/udahili/core/continuing"
	"github.com/trezcool/udahili/core/doctorate"
	"github.com/trezcool/udahili/core/general"
)

// checklistJSON validates both checklist snapshots against the context's tab
// schema and marshals them for storage.
func checklistJSON(current, initial checklist.State, tabs []string) (null.JSON, null.JSON, error) {
	if err := current.Validate(tabs); err != nil {
		return null.JSON{}, null.JSON{}, errors.Wrap(err, "validating checklist")
	}
	if err := initial.Validate(tabs); err != nil {
		return null.JSON{}, null.JSON{}, errors.Wrap(err, "validating initial checklist")
	}
	cl, err := toJSON(current)
	if err != nil {
		return null.JSON{}, null.JSON{}, err
	}
	icl, err := toJSON(initial)
	if err != nil {
		return null.JSON{}, null.JSON{}, err
	}
	return cl, icl, nil
}

func nextSequence(db *sqlx.DB, context string, year int) (int, error) {
	var seq int
	err := db.Get(&seq,
		`INSERT INTO proposition_sequences (context, year, value) VALUES ($1, $2, 1)
		 ON CONFLICT (context, year) DO UPDATE SET value = proposition_sequences.value + 1
		 RETURNING value`, context, year)
	return seq, errors.Wrap(err, "reserving sequence")
}

// ------------------------------------------------------ continuing education

type continuingRepository struct {
	db *sqlx.DB
}

var _ continuing.Repository = (*continuingRepository)(nil) // interface compliance check

func NewContinuingRepository(db *sqlx.DB) *continuingRepository {
	return &continuingRepository{db: db}
}

type continuingRow struct {
	ID               string         `db:"id"`
	Reference        string         `db:"reference"`
	Matricule        string         `db:"matricule"`
	TrainingAcronym  string         `db:"training_acronym"`
	TrainingYear     int            `db:"training_year"`
	Status           string         `db:"status"`
	Checklist        null.JSON      `db:"checklist"`
	InitialChecklist null.JSON      `db:"initial_checklist"`
	Motivations      string         `db:"motivations"`
	CurriculumFiles  pq.StringArray `db:"curriculum_files"`
	SpecificAnswers  null.JSON      `db:"specific_answers"`
	CancelReason     null.String    `db:"cancel_reason"`
	SubmittedAt      null.Time      `db:"submitted_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func newContinuingRow(p continuing.Proposition) (continuingRow, error) {
	cl, icl, err := checklistJSON(p.Checklist, p.InitialChecklist, continuing.Tabs)
	if err != nil {
		return continuingRow{}, err
	}
	answers, err := toJSON(p.SpecificAnswers)
	if err != nil {
		return continuingRow{}, err
	}
	return continuingRow{
		ID:               p.ID,
		Reference:        p.Reference,
		Matricule:        p.Matricule,
		TrainingAcronym:  p.TrainingAcronym,
		TrainingYear:     p.TrainingYear,
		Status:           string(p.Status),
		Checklist:        cl,
		InitialChecklist: icl,
		Motivations:      p.Motivations,
		CurriculumFiles:  pq.StringArray(p.CurriculumFiles),
		SpecificAnswers:  answers,
		CancelReason:     null.NewString(p.CancelReason, p.CancelReason != ""),
		SubmittedAt:      null.TimeFromPtr(p.SubmittedAt),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}, nil
}

func (r continuingRow) toCore() (continuing.Proposition, error) {
	p := continuing.Proposition{
		ID:              r.ID,
		Reference:       r.Reference,
		Matricule:       r.Matricule,
		TrainingAcronym: r.TrainingAcronym,
		TrainingYear:    r.TrainingYear,
		Status:          continuing.Status(r.Status),
		Motivations:     r.Motivations,
		CurriculumFiles: r.CurriculumFiles,
		CancelReason:    r.CancelReason.String,
		SubmittedAt:     r.SubmittedAt.Ptr(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Checklist.Valid {
		var state checklist.State
		if err := fromJSON(r.Checklist, &state); err != nil {
			return continuing.Proposition{}, err
		}
		p.Checklist = state
	}
	if r.InitialChecklist.Valid {
		var state checklist.State
		if err := fromJSON(r.InitialChecklist, &state); err != nil {
			return continuing.Proposition{}, err
		}
		p.InitialChecklist = state
	}
	if r.SpecificAnswers.Valid {
		if err := fromJSON(r.SpecificAnswers, &p.SpecificAnswers); err != nil {
			return continuing.Proposition{}, err
		}
	}
	return p, nil
}

const continuingCols = `id, reference, matricule, training_acronym, training_year, status,
	checklist, initial_checklist, motivations, curriculum_files, specific_answers, cancel_reason,
	submitted_at, created_at, updated_at`

func (repo *continuingRepository) GetProposition(id string) (continuing.Proposition, error) {
	var row continuingRow
	err := repo.db.Get(&row, `SELECT `+continuingCols+` FROM continuing_propositions WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return continuing.Proposition{}, admission.ErrPropositionNotFound
	}
	if err != nil {
		return continuing.Proposition{}, errors.Wrap(err, "getting proposition")
	}
	return row.toCore()
}

func (repo *continuingRepository) ListPropositions(matricule string) ([]continuing.Proposition, error) {
	var rows []continuingRow
	err := repo.db.Select(&rows,
		`SELECT `+continuingCols+` FROM continuing_propositions WHERE matricule = $1 ORDER BY created_at`, matricule)
	if err != nil {
		return nil, errors.Wrap(err, "listing propositions")
	}
	props := make([]continuing.Proposition, 0, len(rows))
	for _, row := range rows {
		prop, err := row.toCore()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

func (repo *continuingRepository) CreateProposition(p continuing.Proposition) (continuing.Proposition, error) {
	row, err := newContinuingRow(p)
	if err != nil {
		return continuing.Proposition{}, err
	}
	_, err = repo.db.NamedExec(
		`INSERT INTO continuing_propositions (`+continuingCols+`)
		 VALUES (:id, :reference, :matricule, :training_acronym, :training_year, :status,
		         :checklist, :initial_checklist, :motivations, :curriculum_files, :specific_answers,
		         :cancel_reason, :submitted_at, :created_at, :updated_at)`, row)
	if err != nil {
		return continuing.Proposition{}, errors.Wrap(err, "creating proposition")
	}
	return p, nil
}

func (repo *continuingRepository) UpdateProposition(p continuing.Proposition) (continuing.Proposition, error) {
	row, err := newContinuingRow(p)
	if err != nil {
		return continuing.Proposition{}, err
	}
	res, err := repo.db.NamedExec(
		`UPDATE continuing_propositions SET
		     status = :status, checklist = :checklist, initial_checklist = :initial_checklist,
		     motivations = :motivations,
		     training_acronym = :training_acronym, training_year = :training_year,
		     curriculum_files = :curriculum_files, specific_answers = :specific_answers,
		     cancel_reason = :cancel_reason, submitted_at = :submitted_at, updated_at = :updated_at
		 WHERE id = :id`, row)
	if err != nil {
		return continuing.Proposition{}, errors.Wrap(err, "updating proposition")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return continuing.Proposition{}, admission.ErrPropositionNotFound
	}
	return p, nil
}

func (repo *continuingRepository) DeleteProposition(id string) error {
	_, err := repo.db.Exec(`DELETE FROM continuing_propositions WHERE id = $1`, id)
	return errors.Wrap(err, "deleting proposition")
}

func (repo *continuingRepository) NextSequence(year int) (int, error) {
	return nextSequence(repo.db, "continuing", year)
}

// ------------------------------------------------------- general education

type generalRepository struct {
	db *sqlx.DB
}

var _ general.Repository = (*generalRepository)(nil)

func NewGeneralRepository(db *sqlx.DB) *generalRepository {
	return &generalRepository{db: db}
}

type generalRow struct {
	ID               string         `db:"id"`
	Reference        string         `db:"reference"`
	Matricule        string         `db:"matricule"`
	TrainingAcronym  string         `db:"training_acronym"`
	TrainingYear     int            `db:"training_year"`
	Status           string         `db:"status"`
	Checklist        null.JSON      `db:"checklist"`
	InitialChecklist null.JSON      `db:"initial_checklist"`
	CurriculumFiles  pq.StringArray `db:"curriculum_files"`
	SpecificAnswers  null.JSON      `db:"specific_answers"`
	FeePaidAt        null.Time      `db:"fee_paid_at"`
	CancelReason     null.String    `db:"cancel_reason"`
	SubmittedAt      null.Time      `db:"submitted_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func newGeneralRow(p general.Proposition) (generalRow, error) {
	cl, icl, err := checklistJSON(p.Checklist, p.InitialChecklist, general.Tabs)
	if err != nil {
		return generalRow{}, err
	}
	answers, err := toJSON(p.SpecificAnswers)
	if err != nil {
		return generalRow{}, err
	}
	return generalRow{
		ID:               p.ID,
		Reference:        p.Reference,
		Matricule:        p.Matricule,
		TrainingAcronym:  p.TrainingAcronym,
		TrainingYear:     p.TrainingYear,
		Status:           string(p.Status),
		Checklist:        cl,
		InitialChecklist: icl,
		CurriculumFiles:  pq.StringArray(p.CurriculumFiles),
		SpecificAnswers:  answers,
		FeePaidAt:        null.TimeFromPtr(p.FeePaidAt),
		CancelReason:     null.NewString(p.CancelReason, p.CancelReason != ""),
		SubmittedAt:      null.TimeFromPtr(p.SubmittedAt),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}, nil
}

func (r generalRow) toCore() (general.Proposition, error) {
	p := general.Proposition{
		ID:              r.ID,
		Reference:       r.Reference,
		Matricule:       r.Matricule,
		TrainingAcronym: r.TrainingAcronym,
		TrainingYear:    r.TrainingYear,
		Status:          general.Status(r.Status),
		CurriculumFiles: r.CurriculumFiles,
		FeePaidAt:       r.FeePaidAt.Ptr(),
		CancelReason:    r.CancelReason.String,
		SubmittedAt:     r.SubmittedAt.Ptr(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Checklist.Valid {
		var state checklist.State
		if err := fromJSON(r.Checklist, &state); err != nil {
			return general.Proposition{}, err
		}
		p.Checklist = state
	}
	if r.InitialChecklist.Valid {
		var state checklist.State
		if err := fromJSON(r.InitialChecklist, &state); err != nil {
			return general.Proposition{}, err
		}
		p.InitialChecklist = state
	}
	if r.SpecificAnswers.Valid {
		if err := fromJSON(r.SpecificAnswers, &p.SpecificAnswers); err != nil {
			return general.Proposition{}, err
		}
	}
	return p, nil
}

const generalCols = `id, reference, matricule, training_acronym, training_year, status,
	checklist, initial_checklist, curriculum_files, specific_answers, fee_paid_at, cancel_reason,
	submitted_at, created_at, updated_at`

func (repo *generalRepository) GetProposition(id string) (general.Proposition, error) {
	var row generalRow
	err := repo.db.Get(&row, `SELECT `+generalCols+` FROM general_propositions WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return general.Proposition{}, admission.ErrPropositionNotFound
	}
	if err != nil {
		return general.Proposition{}, errors.Wrap(err, "getting proposition")
	}
	return row.toCore()
}

func (repo *generalRepository) ListPropositions(matricule string) ([]general.Proposition, error) {
	var rows []generalRow
	err := repo.db.Select(&rows,
		`SELECT `+generalCols+` FROM general_propositions WHERE matricule = $1 ORDER BY created_at`, matricule)
	if err != nil {
		return nil, errors.Wrap(err, "listing propositions")
	}
	props := make([]general.Proposition, 0, len(rows))
	for _, row := range rows {
		prop, err := row.toCore()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

func (repo *generalRepository) CreateProposition(p general.Proposition) (general.Proposition, error) {
	row, err := newGeneralRow(p)
	if err != nil {
		return general.Proposition{}, err
	}
	_, err = repo.db.NamedExec(
		`INSERT INTO general_propositions (`+generalCols+`)
		 VALUES (:id, :reference, :matricule, :training_acronym, :training_year, :status,
		         :checklist, :initial_checklist, :curriculum_files, :specific_answers, :fee_paid_at,
		         :cancel_reason, :submitted_at, :created_at, :updated_at)`, row)
	if err != nil {
		return general.Proposition{}, errors.Wrap(err, "creating proposition")
	}
	return p, nil
}

func (repo *generalRepository) UpdateProposition(p general.Proposition) (general.Proposition, error) {
	row, err := newGeneralRow(p)
	if err != nil {
		return general.Proposition{}, err
	}
	res, err := repo.db.NamedExec(
		`UPDATE general_propositions SET
		     status = :status, checklist = :checklist, initial_checklist = :initial_checklist,
		     training_acronym = :training_acronym, training_year = :training_year,
		     curriculum_files = :curriculum_files, specific_answers = :specific_answers,
		     fee_paid_at = :fee_paid_at, cancel_reason = :cancel_reason,
		     submitted_at = :submitted_at, updated_at = :updated_at
		 WHERE id = :id`, row)
	if err != nil {
		return general.Proposition{}, errors.Wrap(err, "updating proposition")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return general.Proposition{}, admission.ErrPropositionNotFound
	}
	return p, nil
}

func (repo *generalRepository) DeleteProposition(id string) error {
	_, err := repo.db.Exec(`DELETE FROM general_propositions WHERE id = $1`, id)
	return errors.Wrap(err, "deleting proposition")
}

func (repo *generalRepository) NextSequence(year int) (int, error) {
	return nextSequence(repo.db, "general", year)
}

// -------------------------------------------------------------- doctorate

type doctorateRepository struct {
	db *sqlx.DB
}

var _ doctorate.Repository = (*doctorateRepository)(nil)

func NewDoctorateRepository(db *sqlx.DB) *doctorateRepository {
	return &doctorateRepository{db: db}
}

type doctorateRow struct {
	ID                  string         `db:"id"`
	Reference           string         `db:"reference"`
	Matricule           string         `db:"matricule"`
	TrainingAcronym     string         `db:"training_acronym"`
	TrainingYear        int            `db:"training_year"`
	Status              string         `db:"status"`
	Checklist           null.JSON      `db:"checklist"`
	InitialChecklist    null.JSON      `db:"initial_checklist"`
	AdmissionType       string         `db:"admission_type"`
	Justification       null.String    `db:"justification"`
	ProximityCommission null.String    `db:"proximity_commission"`
	Cotutelle           bool           `db:"cotutelle"`
	ProjectTitle        string         `db:"project_title"`
	ProjectDocuments    pq.StringArray `db:"project_documents"`
	CurriculumFiles     pq.StringArray `db:"curriculum_files"`
	CancelReason        null.String    `db:"cancel_reason"`
	SubmittedAt         null.Time      `db:"submitted_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func newDoctorateRow(p doctorate.Proposition) (doctorateRow, error) {
	cl, icl, err := checklistJSON(p.Checklist, p.InitialChecklist, doctorate.Tabs)
	if err != nil {
		return doctorateRow{}, err
	}
	return doctorateRow{
		ID:                  p.ID,
		Reference:           p.Reference,
		Matricule:           p.Matricule,
		TrainingAcronym:     p.TrainingAcronym,
		TrainingYear:        p.TrainingYear,
		Status:              string(p.Status),
		Checklist:           cl,
		InitialChecklist:    icl,
		AdmissionType:       string(p.AdmissionType),
		Justification:       null.NewString(p.Justification, p.Justification != ""),
		ProximityCommission: null.NewString(string(p.ProximityCommission), p.ProximityCommission != ""),
		Cotutelle:           p.Cotutelle,
		ProjectTitle:        p.ProjectTitle,
		ProjectDocuments:    pq.StringArray(p.ProjectDocuments),
		CurriculumFiles:     pq.StringArray(p.CurriculumFiles),
		CancelReason:        null.NewString(p.CancelReason, p.CancelReason != ""),
		SubmittedAt:         null.TimeFromPtr(p.SubmittedAt),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}, nil
}

func (r doctorateRow) toCore() (doctorate.Proposition, error) {
	p := doctorate.Proposition{
		ID:                  r.ID,
		Reference:           r.Reference,
		Matricule:           r.Matricule,
		TrainingAcronym:     r.TrainingAcronym,
		TrainingYear:        r.TrainingYear,
		Status:              doctorate.Status(r.Status),
		AdmissionType:       doctorate.AdmissionType(r.AdmissionType),
		Justification:       r.Justification.String,
		ProximityCommission: doctorate.ProximityCommission(r.ProximityCommission.String),
		Cotutelle:           r.Cotutelle,
		ProjectTitle:        r.ProjectTitle,
		ProjectDocuments:    r.ProjectDocuments,
		CurriculumFiles:     r.CurriculumFiles,
		CancelReason:        r.CancelReason.String,
		SubmittedAt:         r.SubmittedAt.Ptr(),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.Checklist.Valid {
		var state checklist.State
		if err := fromJSON(r.Checklist, &state); err != nil {
			return doctorate.Proposition{}, err
		}
		p.Checklist = state
	}
	if r.InitialChecklist.Valid {
		var state checklist.State
		if err := fromJSON(r.InitialChecklist, &state); err != nil {
			return doctorate.Proposition{}, err
		}
		p.InitialChecklist = state
	}
	return p, nil
}

const doctorateCols = `id, reference, matricule, training_acronym, training_year, status,
	checklist, initial_checklist, admission_type, justification, proximity_commission, cotutelle,
	project_title, project_documents, curriculum_files, cancel_reason,
	submitted_at, created_at, updated_at`

func (repo *doctorateRepository) GetProposition(id string) (doctorate.Proposition, error) {
	var row doctorateRow
	err := repo.db.Get(&row, `SELECT `+doctorateCols+` FROM doctorate_propositions WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return doctorate.Proposition{}, admission.ErrPropositionNotFound
	}
	if err != nil {
		return doctorate.Proposition{}, errors.Wrap(err, "getting proposition")
	}
	return row.toCore()
}

func (repo *doctorateRepository) ListPropositions(matricule string) ([]doctorate.Proposition, error) {
	var rows []doctorateRow
	err := repo.db.Select(&rows,
		`SELECT `+doctorateCols+` FROM doctorate_propositions WHERE matricule = $1 ORDER BY created_at`, matricule)
	if err != nil {
		return nil, errors.Wrap(err, "listing propositions")
	}
	props := make([]doctorate.Proposition, 0, len(rows))
	for _, row := range rows {
		prop, err := row.toCore()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

func (repo *doctorateRepository) CreateProposition(p doctorate.Proposition) (doctorate.Proposition, error) {
	row, err := newDoctorateRow(p)
	if err != nil {
		return doctorate.Proposition{}, err
	}
	_, err = repo.db.NamedExec(
		`INSERT INTO doctorate_propositions (`+doctorateCols+`)
		 VALUES (:id, :reference, :matricule, :training_acronym, :training_year, :status,
		         :checklist, :initial_checklist, :admission_type, :justification,
		         :proximity_commission, :cotutelle, :project_title, :project_documents,
		         :curriculum_files, :cancel_reason, :submitted_at, :created_at, :updated_at)`, row)
	if err != nil {
		return doctorate.Proposition{}, errors.Wrap(err, "creating proposition")
	}
	return p, nil
}

func (repo *doctorateRepository) UpdateProposition(p doctorate.Proposition) (doctorate.Proposition, error) {
	row, err := newDoctorateRow(p)
	if err != nil {
		return doctorate.Proposition{}, err
	}
	res, err := repo.db.NamedExec(
		`UPDATE doctorate_propositions SET
		     status = :status, checklist = :checklist, initial_checklist = :initial_checklist,
		     admission_type = :admission_type,
		     justification = :justification, proximity_commission = :proximity_commission,
		     cotutelle = :cotutelle, project_title = :project_title,
		     project_documents = :project_documents, curriculum_files = :curriculum_files,
		     cancel_reason = :cancel_reason, submitted_at = :submitted_at, updated_at = :updated_at
		 WHERE id = :id`, row)
	if err != nil {
		return doctorate.Proposition{}, errors.Wrap(err, "updating proposition")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return doctorate.Proposition{}, admission.ErrPropositionNotFound
	}
	return p, nil
}

func (repo *doctorateRepository) DeleteProposition(id string) error {
	_, err := repo.db.Exec(`DELETE FROM doctorate_propositions WHERE id = $1`, id)
	return errors.Wrap(err, "deleting proposition")
}

func (repo *doctorateRepository) NextSequence(year int) (int, error) {
	return nextSequence(repo.db, "doctorate", year)
}

// ------------------------------------------------------- supervision groups

type groupRepository struct {
	db *sqlx.DB
}

var _ doctorate.GroupRepository = (*groupRepository)(nil)

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) GetGroup(propositionID string) (*doctorate.Group, error) {
	var data null.JSON
	err := repo.db.Get(&data,
		`SELECT signatories FROM supervision_groups WHERE proposition_id = $1`, propositionID)
	if err == sql.ErrNoRows {
		return nil, admission.ErrPropositionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting supervision group")
	}
	group := doctorate.NewGroup(propositionID)
	if err := fromJSON(data, &group.Signatories); err != nil {
		return nil, err
	}
	return group, nil
}

func (repo *groupRepository) SaveGroup(group *doctorate.Group) error {
	data, err := toJSON(group.Signatories)
	if err != nil {
		return err
	}
	_, err = repo.db.Exec(
		`INSERT INTO supervision_groups (proposition_id, signatories) VALUES ($1, $2)
		 ON CONFLICT (proposition_id) DO UPDATE SET signatories = EXCLUDED.signatories`,
		group.PropositionID, data)
	return errors.Wrap(err, "saving supervision group")
}
