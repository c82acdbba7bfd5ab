package checklist

import (
	"errors"
)

// Status is the state of a single checklist item, as persisted.
// The values are the legacy wire names and must not be renamed.
type Status string

const (
	StatusNotConcerned  Status = "INITIAL_NON_CONCERNE"
	StatusCandidate     Status = "INITIAL_CANDIDAT"
	StatusInProgress    Status = "GEST_EN_COURS"
	StatusBlocked       Status = "GEST_BLOCAGE"
	StatusBlockedLater  Status = "GEST_BLOCAGE_ULTERIEUR"
	StatusSuccess       Status = "GEST_REUSSITE"
	StatusSystemSuccess Status = "SYST_REUSSITE"
)

var allStatuses = map[Status]struct{}{
	StatusNotConcerned:  {},
	StatusCandidate:     {},
	StatusInProgress:    {},
	StatusBlocked:       {},
	StatusBlockedLater:  {},
	StatusSuccess:       {},
	StatusSystemSuccess: {},
}

func (s Status) IsValid() bool {
	_, ok := allStatuses[s]
	return ok
}

// Well-known `extra` discriminator keys.
const (
	ExtraBlocked        = "blocage"
	ExtraInProgress     = "en_cours"
	ExtraFraud          = "fraud"
	ExtraIdentifier     = "identifiant"
	ExtraAuthentication = "authentification"
)

// Well-known `blocage` discriminator values.
const (
	BlockedClosed        = "closed"
	BlockedCanceled      = "canceled"
	BlockedRefusal       = "refusal"
	BlockedToBeCompleted = "to_be_completed"
)

// Well-known `en_cours` discriminator values.
const (
	InProgressTakenInCharge = "taken_in_charge"
	InProgressOnHold        = "on_hold"
	InProgressToValidate    = "to_validate"
	InProgressFacApproval   = "fac_approval"
)

var ErrChildNotFound = errors.New("checklist child item not found")

// Node is one checklist item. Extra is a free-form sub-discriminator
// (eg. {"blocage": "closed"}); Children carries sub-activities.
// The JSON tags are the legacy persisted shape.
type Node struct {
	Status   Status            `json:"statut"`
	Label    string            `json:"libelle"`
	Extra    map[string]string `json:"extra"`
	Children []*Node           `json:"enfants"`
}

func NewNode(status Status, label string) *Node {
	return &Node{Status: status, Label: label, Extra: map[string]string{}}
}

// Set moves the node to the given status, replacing its extra discriminators.
func (n *Node) Set(status Status, extra map[string]string) {
	n.Status = status
	if extra == nil {
		extra = map[string]string{}
	}
	n.Extra = extra
}

// Child returns the child node whose extra "identifiant" equals id.
func (n *Node) Child(id string) (*Node, error) {
	for _, child := range n.Children {
		if child.Extra[ExtraIdentifier] == id {
			return child, nil
		}
	}
	return nil, ErrChildNotFound
}

func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := &Node{
		Status: n.Status,
		Label:  n.Label,
		Extra:  make(map[string]string, len(n.Extra)),
	}
	for k, v := range n.Extra {
		clone.Extra[k] = v
	}
	if n.Children != nil {
		clone.Children = make([]*Node, 0, len(n.Children))
		for _, child := range n.Children {
			clone.Children = append(clone.Children, child.Clone())
		}
	}
	return clone
}

// State maps a checklist tab identifier to its item node.
// A proposition carries two snapshots: the initial one (frozen at submission)
// and the current one (mutated by managers), for audit/diff purposes.
type State map[string]*Node

func (s State) Get(tab string) *Node {
	return s[tab]
}

func (s State) Clone() State {
	if s == nil {
		return nil
	}
	clone := make(State, len(s))
	for tab, node := range s {
		clone[tab] = node.Clone()
	}
	return clone
}

// Validate checks that every tab present in the state belongs to the schema
// for the proposition's context and that every status is a known one.
func (s State) Validate(tabs []string) error {
	known := make(map[string]struct{}, len(tabs))
	for _, tab := range tabs {
		known[tab] = struct{}{}
	}
	for tab, node := range s {
		if _, ok := known[tab]; !ok {
			return errors.New("unknown checklist tab: " + tab)
		}
		if node.Status != "" && !node.Status.IsValid() {
			return errors.New("unknown checklist status: " + string(node.Status))
		}
	}
	return nil
}
