//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custos/internal/audit"
	"custos/pkg/requestcontext"
	"custos/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	store    *audit.PostgresStore
	recorder *audit.Recorder
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	_, err := s.pg.DB.Exec(audit.Schema())
	s.Require().NoError(err)
	s.store = audit.NewPostgresStore(s.pg.DB)
	s.recorder, err = audit.NewRecorder(s.store)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background(), "audit_events"))
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *PostgresStoreSuite) TestAppendAndListByCorrelation() {
	for i := 0; i < 3; i++ {
		_, err := s.recorder.Append(s.at(s.now.Add(time.Duration(i)*time.Second)), audit.Event{
			CorrelationID: "corr-pg",
			EventType:     audit.EventAuthorizationDecision,
			Subject:       "A1",
			Action:        "tool_invocation",
			Resource:      "get_product_info",
			Decision:      audit.DecisionAllow,
		})
		s.Require().NoError(err)
	}

	events, err := s.store.ListByCorrelation(context.Background(), "corr-pg")
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	for i, e := range events {
		s.Equal(i+1, e.Sequence)
		s.Len(e.IntegrityHash, 64)
	}
	s.Equal(events[0].IntegrityHash, events[1].PrevHash, "chain links survive the round trip")
}

func (s *PostgresStoreSuite) TestListFilters() {
	_, err := s.recorder.Append(s.at(s.now), audit.Event{
		CorrelationID: "corr-1", EventType: audit.EventAuthorizationDecision,
		Subject: "A1", Action: "tool_invocation", Resource: "t1", Decision: audit.DecisionAllow,
	})
	s.Require().NoError(err)
	_, err = s.recorder.Append(s.at(s.now.Add(time.Minute)), audit.Event{
		CorrelationID: "corr-2", EventType: audit.EventAuthorizationDecision,
		Subject: "A2", Action: "tool_invocation", Resource: "t2", Decision: audit.DecisionDeny,
	})
	s.Require().NoError(err)

	denies, err := s.store.List(context.Background(), audit.Filter{Decision: audit.DecisionDeny})
	s.Require().NoError(err)
	s.Require().Len(denies, 1)
	s.Equal("A2", denies[0].Subject)

	windowed, err := s.store.List(context.Background(), audit.Filter{From: s.now.Add(30 * time.Second)})
	s.Require().NoError(err)
	s.Require().Len(windowed, 1)
	s.Equal("corr-2", windowed[0].CorrelationID)
}

func (s *PostgresStoreSuite) TestUnknownCorrelationIsEmpty() {
	events, err := s.store.ListByCorrelation(context.Background(), "ghost")
	s.Require().NoError(err)
	s.Empty(events)
}
