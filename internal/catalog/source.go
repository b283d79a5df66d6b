package catalog

import "context"

//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

// Source lists raw principals for one environment. Implementations wrap
// a cloud IAM API or a fixture loader; they must be safe for concurrent
// calls because the aggregator queries environments in parallel.
type Source interface {
	ListPrincipals(ctx context.Context, environment string) ([]RawPrincipal, error)
}
