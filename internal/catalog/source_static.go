package catalog

import (
	"context"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	dErrors "custos/pkg/domain-errors"
)

// StaticSource serves principals from a YAML fixture. It stands in for
// a live IAM integration in deployments that export their inventory as
// a file.
type StaticSource struct {
	byEnvironment map[string][]RawPrincipal
}

type principalsFile struct {
	Environments []struct {
		Name       string `yaml:"name"`
		Principals []struct {
			ID                string            `yaml:"id"`
			Name              string            `yaml:"name"`
			Kind              string            `yaml:"kind"`
			Tags              map[string]string `yaml:"tags"`
			Actions           []string          `yaml:"actions"`
			WildcardActions   int               `yaml:"wildcard_actions"`
			WildcardResources int               `yaml:"wildcard_resources"`
			LastUsed          *time.Time        `yaml:"last_used"`
		} `yaml:"principals"`
	} `yaml:"environments"`
}

// LoadStaticSource parses a principals fixture file.
func LoadStaticSource(path string) (*StaticSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reading principals file")
	}

	var file principalsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "parsing principals file")
	}

	source := &StaticSource{byEnvironment: make(map[string][]RawPrincipal)}
	for _, env := range file.Environments {
		if env.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "environment name is required")
		}
		for _, p := range env.Principals {
			if p.ID == "" {
				return nil, dErrors.Newf(dErrors.CodeValidation, "principal without id in environment %s", env.Name)
			}
			source.byEnvironment[env.Name] = append(source.byEnvironment[env.Name], RawPrincipal{
				ID:           p.ID,
				Name:         p.Name,
				Kind:         Kind(p.Kind),
				Environment:  env.Name,
				Tags:         p.Tags,
				Actions:      p.Actions,
				Wildcards:    p.WildcardActions,
				ResourceWild: p.WildcardResources,
				LastActivity: p.LastUsed,
			})
		}
	}
	return source, nil
}

// NewStaticSource builds a source from already parsed principals,
// grouped by environment.
func NewStaticSource(byEnvironment map[string][]RawPrincipal) *StaticSource {
	if byEnvironment == nil {
		byEnvironment = make(map[string][]RawPrincipal)
	}
	return &StaticSource{byEnvironment: byEnvironment}
}

// ListPrincipals returns the fixture principals for one environment.
// Unknown environments are empty, not an error: a fixture file simply
// may not cover every configured environment.
func (s *StaticSource) ListPrincipals(_ context.Context, environment string) ([]RawPrincipal, error) {
	return append([]RawPrincipal(nil), s.byEnvironment[environment]...), nil
}
