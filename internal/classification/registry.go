// Package classification holds the static tool sensitivity registry and
// the approval check applied when agents are granted classified tools.
package classification

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry is the read-only classification lookup. It is constructed
// once at startup and passed to consumers; there is no global instance,
// so tests can run with whatever registry they need.
type Registry struct {
	tools map[string]Classification
}

// registryFile is the YAML shape of the classification source file.
type registryFile struct {
	Tools []Classification `yaml:"tools"`
}

// Load parses a classification registry from YAML.
func Load(r io.Reader) (*Registry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read classification source: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse classification source: %w", err)
	}

	tools := make(map[string]Classification, len(file.Tools))
	for _, c := range file.Tools {
		if c.ToolID == "" {
			return nil, fmt.Errorf("classification entry missing tool_id")
		}
		switch c.Tier {
		case TierStandard, TierSensitive, TierRestricted:
		default:
			return nil, fmt.Errorf("tool %q has unknown tier %q", c.ToolID, c.Tier)
		}
		tools[c.ToolID] = c
	}
	return &Registry{tools: tools}, nil
}

// LoadFile loads the registry from a file path at process start.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open classification source: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// NewRegistry builds a registry from in-memory classifications. Used by
// tests and by callers that source classifications elsewhere.
func NewRegistry(classifications []Classification) *Registry {
	tools := make(map[string]Classification, len(classifications))
	for _, c := range classifications {
		tools[c.ToolID] = c
	}
	return &Registry{tools: tools}
}

// Lookup returns the classification for a tool. Unknown tools come back
// as RESTRICTED with approval required: a registry gap must never grant
// access.
func (r *Registry) Lookup(toolID string) Classification {
	if c, ok := r.tools[toolID]; ok {
		return c
	}
	return Classification{
		ToolID:           toolID,
		Tier:             TierRestricted,
		RequiresApproval: true,
	}
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// IsAccessAllowed evaluates the classification rule for a tool:
// STANDARD is always allowed; SENSITIVE and RESTRICTED require a
// matching, non-expired approval. A nil approval denies.
func IsAccessAllowed(toolID string, registry *Registry, approval *ApprovalRecord, now time.Time) bool {
	c := registry.Lookup(toolID)
	if c.Tier == TierStandard && !c.RequiresApproval {
		return true
	}
	if approval == nil || approval.ToolID != toolID {
		return false
	}
	return approval.IsActive(now)
}
