package checklist

// StatusConfig names one of the sub-states a checklist tab may be in
// (eg. "cancelled because closed" vs "cancelled because duplicate") so that
// raw persisted nodes can be classified for filtering/listing purposes.
type StatusConfig struct {
	ID       string
	Label    string
	Status   Status
	Extra    map[string]string
	ParentID string
}

// Matches reports whether a node in the given status/extra is classified
// under this configuration. The status must be equal and every extra key the
// configuration declares must be present in the candidate with an equal value;
// the candidate may carry additional keys.
func (c StatusConfig) Matches(status Status, extra map[string]string) bool {
	if c.Status == "" || c.Status != status {
		return false
	}
	for k, v := range c.Extra {
		if other, ok := extra[k]; !ok || other != v {
			return false
		}
	}
	return true
}

// MatchesNode is Matches applied to a persisted node.
func (c StatusConfig) MatchesNode(n *Node) bool {
	if n == nil {
		return false
	}
	return c.Matches(n.Status, n.Extra)
}

// Merge overlays the other configuration's status and extra onto this one,
// keeping this one's identifiers.
func (c StatusConfig) Merge(other StatusConfig) StatusConfig {
	merged := StatusConfig{
		ID:       c.ID,
		Label:    c.Label,
		Status:   c.Status,
		ParentID: c.ParentID,
		Extra:    make(map[string]string, len(c.Extra)+len(other.Extra)),
	}
	if merged.Status == "" {
		merged.Status = other.Status
	}
	for k, v := range c.Extra {
		merged.Extra[k] = v
	}
	for k, v := range other.Extra {
		merged.Extra[k] = v
	}
	return merged
}

// TabConfig is the ordered set of named sub-states configured for one tab.
type TabConfig struct {
	Tab      string
	Statuses []StatusConfig
}

// Get returns the first configuration matching the given status/extra.
func (t TabConfig) Get(status Status, extra map[string]string) (StatusConfig, bool) {
	for _, cfg := range t.Statuses {
		if cfg.Matches(status, extra) {
			return cfg, true
		}
	}
	return StatusConfig{}, false
}

// Classify returns the identifier of the node's named sub-state, or "".
func (t TabConfig) Classify(n *Node) string {
	if n == nil {
		return ""
	}
	if cfg, ok := t.Get(n.Status, n.Extra); ok {
		return cfg.ID
	}
	return ""
}
