package dummydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/udahili/core/checklist"
	"github.com/trezcool/udahili/core/general"
)

func TestPropositionRepository_rejectsMalformedChecklists(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	repo := NewGeneralRepository(db)

	prop := general.Proposition{
		ID:              "prop-1",
		Reference:       general.Reference(2022, 1),
		Matricule:       "12345678",
		TrainingAcronym: "DROI1BA",
		TrainingYear:    2022,
		Status:          general.StatusSubmitted,
		Checklist:       general.NewChecklist(),
	}
	prop.InitialChecklist = prop.Checklist.Clone()

	created, err := repo.CreateProposition(prop)
	require.NoError(t, err)

	got, err := repo.GetProposition(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Checklist, got.Checklist)
	assert.Equal(t, created.InitialChecklist, got.InitialChecklist)

	// a tab outside the context's schema is rejected
	bad := created
	bad.Checklist = created.Checklist.Clone()
	bad.Checklist["onglet_inconnu"] = checklist.NewNode(checklist.StatusCandidate, "?")
	_, err = repo.UpdateProposition(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown checklist tab")

	// so is an unknown status value
	bad = created
	bad.Checklist = created.Checklist.Clone()
	bad.Checklist.Get(general.TabSicDecision).Status = "PAS_UN_STATUT"
	_, err = repo.UpdateProposition(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown checklist status")

	// the stored proposition is untouched by the rejected writes
	got, err = repo.GetProposition(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Checklist, got.Checklist)
}
