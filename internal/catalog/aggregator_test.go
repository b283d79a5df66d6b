package catalog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custos/internal/catalog"
	"custos/internal/catalog/mocks"
	"custos/pkg/requestcontext"
)

type AggregatorSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	source *mocks.MockSource
	now    time.Time
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockSource(s.ctrl)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *AggregatorSuite) newAggregator(envs ...string) *catalog.Aggregator {
	if len(envs) == 0 {
		envs = []string{"prod"}
	}
	agg, err := catalog.NewAggregator(s.source, envs, 90*24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	return agg
}

func (s *AggregatorSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

// --- Construction ---

func (s *AggregatorSuite) TestNewAggregator_RequiresSource() {
	_, err := catalog.NewAggregator(nil, []string{"prod"}, time.Hour, nil)
	s.Error(err)
}

func (s *AggregatorSuite) TestNewAggregator_RequiresEnvironments() {
	_, err := catalog.NewAggregator(s.source, nil, time.Hour, nil)
	s.Error(err)
}

// --- Capture ---

func (s *AggregatorSuite) TestCapture_MergesEnvironmentsSortedByID() {
	s.source.EXPECT().ListPrincipals(gomock.Any(), "prod").Return([]catalog.RawPrincipal{
		{ID: "p-2", Name: "deploy-bot", Kind: catalog.KindService, Tags: map[string]string{"owner": "platform"}},
	}, nil)
	s.source.EXPECT().ListPrincipals(gomock.Any(), "staging").Return([]catalog.RawPrincipal{
		{ID: "p-1", Name: "qa-runner", Kind: catalog.KindService, Tags: map[string]string{"owner": "qa"}},
	}, nil)

	snap, err := s.newAggregator("prod", "staging").Capture(s.ctx())

	s.Require().NoError(err)
	s.Require().Len(snap.Principals, 2)
	s.Equal("p-1", snap.Principals[0].ID)
	s.Equal("p-2", snap.Principals[1].ID)
	s.Equal(s.now, snap.CapturedAt)
}

func (s *AggregatorSuite) TestCapture_SourceFailureFailsWholeCapture() {
	s.source.EXPECT().ListPrincipals(gomock.Any(), "prod").Return(nil, errors.New("iam unavailable")).AnyTimes()
	s.source.EXPECT().ListPrincipals(gomock.Any(), "staging").Return([]catalog.RawPrincipal{}, nil).AnyTimes()

	_, err := s.newAggregator("prod", "staging").Capture(s.ctx())
	s.Error(err)
}

func (s *AggregatorSuite) TestCapture_MissingOwnerFallsBackToUnassigned() {
	s.source.EXPECT().ListPrincipals(gomock.Any(), "prod").Return([]catalog.RawPrincipal{
		{ID: "p-1", Name: "mystery", Tags: map[string]string{}},
		{ID: "p-2", Name: "documented", Tags: map[string]string{"owner": "  ", "purpose": "ci builds"}},
	}, nil)

	snap, err := s.newAggregator().Capture(s.ctx())
	s.Require().NoError(err)

	s.Equal(catalog.OwnerUnassigned, snap.Principals[0].Owner)
	s.Equal(catalog.OwnerUnassigned, snap.Principals[1].Owner, "whitespace-only owner tag is treated as missing")
	s.Equal("ci builds", snap.Principals[1].Purpose)
}

func (s *AggregatorSuite) TestCapture_MissingOwnerIsOrphan() {
	s.source.EXPECT().ListPrincipals(gomock.Any(), "prod").Return([]catalog.RawPrincipal{
		{ID: "p-1", Tags: map[string]string{}},
		{ID: "p-2", Tags: map[string]string{"purpose": "batch exports"}},
		{ID: "p-3", Tags: map[string]string{"owner": "data-eng"}},
	}, nil)

	snap, err := s.newAggregator().Capture(s.ctx())
	s.Require().NoError(err)

	s.True(snap.Principals[0].Orphan, "no owner and no purpose")
	s.True(snap.Principals[1].Orphan, "a stated purpose does not rescue an ownerless principal")
	s.False(snap.Principals[2].Orphan, "an assigned owner keeps it out of the orphan list")
}

func (s *AggregatorSuite) TestCapture_InactivityFlagging() {
	recent := s.now.Add(-10 * 24 * time.Hour)
	stale := s.now.Add(-120 * 24 * time.Hour)
	s.source.EXPECT().ListPrincipals(gomock.Any(), "prod").Return([]catalog.RawPrincipal{
		{ID: "p-1", LastActivity: &recent},
		{ID: "p-2", LastActivity: &stale},
		{ID: "p-3", LastActivity: nil},
	}, nil)

	snap, err := s.newAggregator().Capture(s.ctx())
	s.Require().NoError(err)

	s.False(snap.Principals[0].Inactive)
	s.True(snap.Principals[1].Inactive)
	s.True(snap.Principals[2].Inactive, "a principal with no recorded activity is always inactive")
}

func (s *AggregatorSuite) TestLatest_ReturnsMostRecentSnapshot() {
	_, ok := s.newAggregator().Latest()
	s.False(ok)

	s.source.EXPECT().ListPrincipals(gomock.Any(), "prod").Return([]catalog.RawPrincipal{{ID: "p-1"}}, nil)
	agg := s.newAggregator()
	_, err := agg.Capture(s.ctx())
	s.Require().NoError(err)

	snap, ok := agg.Latest()
	s.True(ok)
	s.Len(snap.Principals, 1)
}

func (s *AggregatorSuite) TestFlagInactive_PureRecompute() {
	used := s.now.Add(-30 * 24 * time.Hour)
	snap := catalog.Snapshot{Principals: []catalog.Principal{
		{ID: "p-1", LastUsed: &used},
		{ID: "p-2"},
	}}

	strict := catalog.FlagInactive(snap, 7*24*time.Hour, s.now)
	lenient := catalog.FlagInactive(snap, 90*24*time.Hour, s.now)

	s.True(strict.Principals[0].Inactive)
	s.False(lenient.Principals[0].Inactive)
	s.True(strict.Principals[1].Inactive)
	s.True(lenient.Principals[1].Inactive, "never-used stays inactive under any threshold")
	s.False(snap.Principals[0].Inactive, "input snapshot is untouched")
}

func (s *AggregatorSuite) TestDetectOrphans() {
	snap := catalog.Snapshot{Principals: []catalog.Principal{
		{ID: "p-1", Owner: catalog.OwnerUnassigned},
		{ID: "p-2", Owner: catalog.OwnerUnassigned, Purpose: "batch exports"},
		{ID: "p-3", Owner: "platform"},
	}}

	orphans := catalog.DetectOrphans(snap)

	s.Require().Len(orphans, 2)
	s.Equal("p-1", orphans[0].ID)
	s.Equal("p-2", orphans[1].ID, "purpose alone does not clear the orphan flag")
}
