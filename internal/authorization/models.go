package authorization

import "time"

// Mapping is the authoritative set of tools an agent may invoke.
// Revision increments on every accepted update so change history can be
// replayed in order.
type Mapping struct {
	AgentID   string    `json:"agent_id"`
	Tools     []string  `json:"tools"`
	Revision  int       `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Has reports whether the mapping authorizes the given tool.
func (m Mapping) Has(toolID string) bool {
	for _, t := range m.Tools {
		if t == toolID {
			return true
		}
	}
	return false
}

// ChangeReport is the differential produced by one mapping update.
type ChangeReport struct {
	AgentID   string    `json:"agent_id"`
	Revision  int       `json:"revision"`
	Added     []string  `json:"added"`
	Removed   []string  `json:"removed"`
	Unchanged []string  `json:"unchanged"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckResult is the outcome of a single authorization check.
type CheckResult struct {
	AgentID string `json:"agent_id"`
	ToolID  string `json:"tool_id"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}
