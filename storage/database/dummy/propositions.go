package dummydb

import (
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/checklist"
	"github.com/trezcool/udahili/core/continuing"
	"github.com/trezcool/udahili/core/doctorate"
	"github.com/trezcool/udahili/core/general"
)

// validateChecklists rejects states that do not fit the context's tab schema,
// mirroring what the SQL backend enforces before marshalling.
func validateChecklists(current, initial checklist.State, tabs []string) error {
	if err := current.Validate(tabs); err != nil {
		return err
	}
	return initial.Validate(tabs)
}

// ------------------------------------------------------ continuing education

type continuingRepository struct {
	db *continuingTable
}

var _ continuing.Repository = (*continuingRepository)(nil) // interface compliance check

func NewContinuingRepository(db *DB) *continuingRepository {
	return &continuingRepository{db: db.continuing}
}

func (repo *continuingRepository) GetProposition(id string) (continuing.Proposition, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prop, ok := repo.db.table[id]; ok {
		return *prop, nil
	}
	return continuing.Proposition{}, admission.ErrPropositionNotFound
}

func (repo *continuingRepository) ListPropositions(matricule string) ([]continuing.Proposition, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var props []continuing.Proposition
	for _, prop := range repo.db.table {
		if prop.Matricule == matricule {
			props = append(props, *prop)
		}
	}
	return props, nil
}

func (repo *continuingRepository) CreateProposition(prop continuing.Proposition) (continuing.Proposition, error) {
	if err := validateChecklists(prop.Checklist, prop.InitialChecklist, continuing.Tabs); err != nil {
		return continuing.Proposition{}, err
	}
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[prop.ID] = &prop
	return prop, nil
}

func (repo *continuingRepository) UpdateProposition(prop continuing.Proposition) (continuing.Proposition, error) {
	if err := validateChecklists(prop.Checklist, prop.InitialChecklist, continuing.Tabs); err != nil {
		return continuing.Proposition{}, err
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prop.ID]; !ok {
		return continuing.Proposition{}, admission.ErrPropositionNotFound
	}
	repo.db.table[prop.ID] = &prop
	return prop, nil
}

func (repo *continuingRepository) DeleteProposition(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	return nil
}

func (repo *continuingRepository) NextSequence(year int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.seq[year]++
	return repo.db.seq[year], nil
}

// ------------------------------------------------------- general education

type generalRepository struct {
	db *generalTable
}

var _ general.Repository = (*generalRepository)(nil)

func NewGeneralRepository(db *DB) *generalRepository {
	return &generalRepository{db: db.general}
}

func (repo *generalRepository) GetProposition(id string) (general.Proposition, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prop, ok := repo.db.table[id]; ok {
		return *prop, nil
	}
	return general.Proposition{}, admission.ErrPropositionNotFound
}

func (repo *generalRepository) ListPropositions(matricule string) ([]general.Proposition, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var props []general.Proposition
	for _, prop := range repo.db.table {
		if prop.Matricule == matricule {
			props = append(props, *prop)
		}
	}
	return props, nil
}

func (repo *generalRepository) CreateProposition(prop general.Proposition) (general.Proposition, error) {
	if err := validateChecklists(prop.Checklist, prop.InitialChecklist, general.Tabs); err != nil {
		return general.Proposition{}, err
	}
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[prop.ID] = &prop
	return prop, nil
}

func (repo *generalRepository) UpdateProposition(prop general.Proposition) (general.Proposition, error) {
	if err := validateChecklists(prop.Checklist, prop.InitialChecklist, general.Tabs); err != nil {
		return general.Proposition{}, err
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prop.ID]; !ok {
		return general.Proposition{}, admission.ErrPropositionNotFound
	}
	repo.db.table[prop.ID] = &prop
	return prop, nil
}

func (repo *generalRepository) DeleteProposition(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	return nil
}

func (repo *generalRepository) NextSequence(year int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.seq[year]++
	return repo.db.seq[year], nil
}

// -------------------------------------------------------------- doctorate

type doctorateRepository struct {
	db *doctorateTable
}

var _ doctorate.Repository = (*doctorateRepository)(nil)

func NewDoctorateRepository(db *DB) *doctorateRepository {
	return &doctorateRepository{db: db.doctorate}
}

func (repo *doctorateRepository) GetProposition(id string) (doctorate.Proposition, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prop, ok := repo.db.table[id]; ok {
		return *prop, nil
	}
	return doctorate.Proposition{}, admission.ErrPropositionNotFound
}

func (repo *doctorateRepository) ListPropositions(matricule string) ([]doctorate.Proposition, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var props []doctorate.Proposition
	for _, prop := range repo.db.table {
		if prop.Matricule == matricule {
			props = append(props, *prop)
		}
	}
	return props, nil
}

func (repo *doctorateRepository) CreateProposition(prop doctorate.Proposition) (doctorate.Proposition, error) {
	if err := validateChecklists(prop.Checklist, prop.InitialChecklist, doctorate.Tabs); err != nil {
		return doctorate.Proposition{}, err
	}
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[prop.ID] = &prop
	return prop, nil
}

func (repo *doctorateRepository) UpdateProposition(prop doctorate.Proposition) (doctorate.Proposition, error) {
	if err := validateChecklists(prop.Checklist, prop.InitialChecklist, doctorate.Tabs); err != nil {
		return doctorate.Proposition{}, err
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prop.ID]; !ok {
		return doctorate.Proposition{}, admission.ErrPropositionNotFound
	}
	repo.db.table[prop.ID] = &prop
	return prop, nil
}

func (repo *doctorateRepository) DeleteProposition(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	return nil
}

func (repo *doctorateRepository) NextSequence(year int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.seq[year]++
	return repo.db.seq[year], nil
}

// ------------------------------------------------------- supervision groups

type groupRepository struct {
	db *groupTable
}

var _ doctorate.GroupRepository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db.groups}
}

func (repo *groupRepository) GetGroup(propositionID string) (*doctorate.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if group, ok := repo.db.table[propositionID]; ok {
		return group, nil
	}
	return nil, admission.ErrPropositionNotFound
}

func (repo *groupRepository) SaveGroup(group *doctorate.Group) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[group.PropositionID] = group
	return nil
}
