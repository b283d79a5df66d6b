//go:build integration

package authorization_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custos/internal/authorization"
	"custos/pkg/platform/sentinel"
	"custos/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *authorization.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	_, err := s.pg.DB.Exec(authorization.Schema())
	s.Require().NoError(err)
	s.store = authorization.NewPostgresStore(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background(), "agent_tool_mappings", "agent_tool_changes"))
}

func (s *PostgresStoreSuite) TestSaveAndGetRoundTrip() {
	ctx := context.Background()
	mapping := authorization.Mapping{
		AgentID:   "A1",
		Tools:     []string{"check_warranty", "get_product_info"},
		Revision:  1,
		UpdatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.store.Save(ctx, mapping))

	got, err := s.store.Get(ctx, "A1")
	s.Require().NoError(err)
	s.Equal(mapping.Tools, got.Tools)
	s.Equal(1, got.Revision)
}

func (s *PostgresStoreSuite) TestSaveUpserts() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Save(ctx, authorization.Mapping{AgentID: "A1", Tools: []string{"t1"}, Revision: 1, UpdatedAt: now}))
	s.Require().NoError(s.store.Save(ctx, authorization.Mapping{AgentID: "A1", Tools: []string{"t2"}, Revision: 2, UpdatedAt: now}))

	got, err := s.store.Get(ctx, "A1")
	s.Require().NoError(err)
	s.Equal([]string{"t2"}, got.Tools)
	s.Equal(2, got.Revision)
}

func (s *PostgresStoreSuite) TestGetUnknownAgent() {
	_, err := s.store.Get(context.Background(), "ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestChangeHistoryOrderedByRevision() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	for rev := 1; rev <= 3; rev++ {
		s.Require().NoError(s.store.SaveChange(ctx, authorization.ChangeReport{
			AgentID: "A1", Revision: rev,
			Added: []string{"t"}, Removed: []string{}, Unchanged: []string{},
			UpdatedAt: now,
		}))
	}

	changes, err := s.store.ListChanges(ctx, "A1")
	s.Require().NoError(err)
	s.Require().Len(changes, 3)
	for i, c := range changes {
		s.Equal(i+1, c.Revision)
	}
}
