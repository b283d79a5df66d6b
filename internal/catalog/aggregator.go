package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

// Aggregator builds inventory snapshots by fanning out to the principal
// source across environments and enriching the results.
type Aggregator struct {
	source              Source
	environments        []string
	inactivityThreshold time.Duration
	logger              *slog.Logger

	mu     sync.RWMutex
	latest *Snapshot
}

func NewAggregator(source Source, environments []string, inactivityThreshold time.Duration, logger *slog.Logger) (*Aggregator, error) {
	if source == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "principal source is required")
	}
	if len(environments) == 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "at least one environment is required")
	}
	if inactivityThreshold <= 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "inactivity threshold must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		source:              source,
		environments:        environments,
		inactivityThreshold: inactivityThreshold,
		logger:              logger,
	}, nil
}

// Capture queries every environment in parallel and returns a new
// snapshot. A failure in any environment fails the whole capture; a
// partial inventory would silently hide principals from review.
func (a *Aggregator) Capture(ctx context.Context) (Snapshot, error) {
	now := requestcontext.Now(ctx)

	results := make([][]RawPrincipal, len(a.environments))
	g, gctx := errgroup.WithContext(ctx)
	for i, env := range a.environments {
		i, env := i, env
		g.Go(func() error {
			raw, err := a.source.ListPrincipals(gctx, env)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "listing principals for "+env)
			}
			results[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	var principals []Principal
	for i, env := range a.environments {
		for _, raw := range results[i] {
			principals = append(principals, a.enrich(raw, env, now))
		}
	}
	sort.Slice(principals, func(i, j int) bool { return principals[i].ID < principals[j].ID })

	snap := Snapshot{
		CapturedAt:   now,
		Environments: append([]string(nil), a.environments...),
		Principals:   principals,
	}

	a.mu.Lock()
	a.latest = &snap
	a.mu.Unlock()

	a.logger.InfoContext(ctx, "inventory snapshot captured",
		slog.Int("principals", len(principals)),
		slog.Int("environments", len(a.environments)))
	return snap, nil
}

// Latest returns the most recent snapshot, if one has been captured.
func (a *Aggregator) Latest() (Snapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		return Snapshot{}, false
	}
	return *a.latest, true
}

func (a *Aggregator) enrich(raw RawPrincipal, env string, now time.Time) Principal {
	owner := strings.TrimSpace(raw.Tags["owner"])
	if owner == "" {
		owner = OwnerUnassigned
	}
	purpose := strings.TrimSpace(raw.Tags["purpose"])

	p := Principal{
		ID:          raw.ID,
		Name:        raw.Name,
		Kind:        raw.Kind,
		Environment: env,
		Owner:       owner,
		Purpose:     purpose,
		Policy: PolicySummary{
			Actions:           append([]string(nil), raw.Actions...),
			WildcardActions:   raw.Wildcards,
			WildcardResources: raw.ResourceWild,
		},
		LastUsed: raw.LastActivity,
	}
	p.Inactive = isInactive(raw.LastActivity, a.inactivityThreshold, now)
	p.Orphan = owner == OwnerUnassigned
	return p
}

// isInactive treats a principal with no recorded activity as inactive
// regardless of threshold: never-used credentials are exactly the ones
// least-privilege review exists to catch.
func isInactive(lastUsed *time.Time, threshold time.Duration, now time.Time) bool {
	if lastUsed == nil {
		return true
	}
	return now.Sub(*lastUsed) > threshold
}
