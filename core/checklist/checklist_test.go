package checklist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_JSONShape(t *testing.T) {
	node := &Node{
		Status: StatusBlocked,
		Label:  "Closed",
		Extra:  map[string]string{"blocage": "closed"},
		Children: []*Node{
			{Status: StatusCandidate, Label: "Sub", Extra: map[string]string{"identifiant": "sub-1"}},
		},
	}

	data, err := json.Marshal(node)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"statut": "GEST_BLOCAGE",
		"libelle": "Closed",
		"extra": {"blocage": "closed"},
		"enfants": [{"statut": "INITIAL_CANDIDAT", "libelle": "Sub", "extra": {"identifiant": "sub-1"}, "enfants": null}]
	}`, string(data))

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, StatusBlocked, back.Status)
	assert.Equal(t, "closed", back.Extra["blocage"])
	require.Len(t, back.Children, 1)
	assert.Equal(t, "sub-1", back.Children[0].Extra["identifiant"])
}

func TestNode_Child(t *testing.T) {
	parent := NewNode(StatusCandidate, "Seminar")
	parent.Children = []*Node{
		{Status: StatusCandidate, Extra: map[string]string{"identifiant": "comm-1"}},
		{Status: StatusSuccess, Extra: map[string]string{"identifiant": "comm-2"}},
	}

	child, err := parent.Child("comm-2")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, child.Status)

	_, err = parent.Child("nope")
	assert.Equal(t, ErrChildNotFound, err)
}

func TestNode_Set(t *testing.T) {
	node := NewNode(StatusCandidate, "Decision")
	node.Set(StatusBlocked, map[string]string{"blocage": "canceled"})
	assert.Equal(t, StatusBlocked, node.Status)
	assert.Equal(t, map[string]string{"blocage": "canceled"}, node.Extra)

	node.Set(StatusSuccess, nil)
	assert.Empty(t, node.Extra)
}

func TestState_Clone(t *testing.T) {
	state := State{
		"decision": {Status: StatusCandidate, Label: "To be processed", Extra: map[string]string{}},
	}
	clone := state.Clone()
	clone.Get("decision").Set(StatusBlocked, map[string]string{"blocage": "closed"})

	assert.Equal(t, StatusCandidate, state.Get("decision").Status, "clone must not share nodes")
	assert.Empty(t, state.Get("decision").Extra)
}

func TestState_Validate(t *testing.T) {
	tabs := []string{"decision", "donnees_personnelles"}

	state := State{"decision": NewNode(StatusCandidate, "")}
	assert.NoError(t, state.Validate(tabs))

	state["intrus"] = NewNode(StatusCandidate, "")
	assert.Error(t, state.Validate(tabs))

	delete(state, "intrus")
	state["decision"].Status = "LOL"
	assert.Error(t, state.Validate(tabs))
}
