package revocation_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custos/internal/audit"
	"custos/internal/revocation"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	auditLog  *audit.InMemoryStore
	blocklist *revocation.InMemoryBlocklist
	service   *revocation.Service
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.auditLog = audit.NewInMemoryStore()
	recorder, err := audit.NewRecorder(s.auditLog)
	s.Require().NoError(err)

	s.blocklist = revocation.NewInMemoryBlocklist()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service, err = revocation.NewService(revocation.NewInMemoryStore(), s.blocklist, recorder, nil, 5*time.Minute, logger)
	s.Require().NoError(err)

	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) at(t time.Time) context.Context {
	ctx := requestcontext.WithCorrelationID(context.Background(), "corr-rev")
	return requestcontext.WithTime(ctx, t)
}

func (s *ServiceSuite) initiate() revocation.Record {
	record, err := s.service.Initiate(s.at(s.now), "agent-7", "credential leak", "secops", []string{"gateway", "vault"})
	s.Require().NoError(err)
	return record
}

func (s *ServiceSuite) TestInitiate_BlocksSubjectImmediately() {
	s.initiate()

	blocked, err := s.service.IsSubjectRevoked(s.at(s.now), "agent-7")
	s.Require().NoError(err)
	s.True(blocked, "enforcement denies before any target confirms")
}

func (s *ServiceSuite) TestInitiate_AllTargetsStartPending() {
	record := s.initiate()

	report, err := s.service.TrackStatus(s.at(s.now), record.ID)
	s.Require().NoError(err)

	s.Equal(revocation.StatusInProgress, report.Status)
	s.InDelta(0, report.ElapsedSeconds, 0.001, "tracking immediately after initiation shows no elapsed time")
	s.Require().Len(report.Targets, 2)
	for _, target := range report.Targets {
		s.Equal(revocation.TargetPending, target.Status)
	}
}

func (s *ServiceSuite) TestInitiate_Validates() {
	_, err := s.service.Initiate(s.at(s.now), "", "r", "secops", []string{"gateway"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Initiate(s.at(s.now), "agent-7", "r", "secops", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestInitiate_RejectedRequestLeavesNoState() {
	_, err := s.service.Initiate(s.at(s.now), "agent-7", "r", "secops", []string{"gateway", ""})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	blocked, err := s.service.IsSubjectRevoked(s.at(s.now), "agent-7")
	s.Require().NoError(err)
	s.False(blocked, "a rejected request must not block the subject")

	active, err := s.service.ListActive(s.at(s.now))
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *ServiceSuite) TestMarkPropagated_CompletesWhenAllConfirm() {
	record := s.initiate()

	_, err := s.service.MarkPropagated(s.at(s.now.Add(time.Minute)), record.ID, "gateway")
	s.Require().NoError(err)

	mid, err := s.service.TrackStatus(s.at(s.now.Add(2*time.Minute)), record.ID)
	s.Require().NoError(err)
	s.Equal(revocation.StatusInProgress, mid.Status)

	_, err = s.service.MarkPropagated(s.at(s.now.Add(3*time.Minute)), record.ID, "vault")
	s.Require().NoError(err)

	done, err := s.service.TrackStatus(s.at(s.now.Add(10*time.Minute)), record.ID)
	s.Require().NoError(err)
	s.Equal(revocation.StatusCompleted, done.Status)
	s.InDelta(180, done.ElapsedSeconds, 0.001, "elapsed freezes at last confirmation")
}

func (s *ServiceSuite) TestMarkPropagated_Idempotent() {
	record := s.initiate()

	first, err := s.service.MarkPropagated(s.at(s.now.Add(time.Minute)), record.ID, "gateway")
	s.Require().NoError(err)
	again, err := s.service.MarkPropagated(s.at(s.now.Add(2*time.Minute)), record.ID, "gateway")
	s.Require().NoError(err)

	s.Equal(first.Targets["gateway"].ConfirmedAt, again.Targets["gateway"].ConfirmedAt, "re-confirming keeps the original timestamp")
}

func (s *ServiceSuite) TestMarkPropagated_UnknownTarget() {
	record := s.initiate()

	_, err := s.service.MarkPropagated(s.at(s.now), record.ID, "mainframe")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestMarkFailed_TrackingContinues() {
	record := s.initiate()

	_, err := s.service.MarkFailed(s.at(s.now), record.ID, "vault", "connection refused")
	s.Require().NoError(err)
	_, err = s.service.MarkPropagated(s.at(s.now.Add(time.Minute)), record.ID, "gateway")
	s.Require().NoError(err)

	report, err := s.service.TrackStatus(s.at(s.now.Add(2*time.Minute)), record.ID)
	s.Require().NoError(err)
	s.Equal(revocation.StatusInProgress, report.Status, "a failed target leaves the revocation incomplete")

	// A later confirmation can still resolve the failed target.
	_, err = s.service.MarkPropagated(s.at(s.now.Add(4*time.Minute)), record.ID, "vault")
	s.Require().NoError(err)
	final, err := s.service.TrackStatus(s.at(s.now.Add(5*time.Minute)), record.ID)
	s.Require().NoError(err)
	s.Equal(revocation.StatusCompleted, final.Status)
}

func (s *ServiceSuite) TestTrackStatus_SLABreachDerivedFromClock() {
	record := s.initiate()

	before, err := s.service.TrackStatus(s.at(s.now.Add(4*time.Minute)), record.ID)
	s.Require().NoError(err)
	s.Equal(revocation.StatusInProgress, before.Status)

	after, err := s.service.TrackStatus(s.at(s.now.Add(6*time.Minute)), record.ID)
	s.Require().NoError(err)
	s.Equal(revocation.StatusSLABreach, after.Status)
}

func (s *ServiceSuite) TestTrackStatus_LateCompletionStaysBreached() {
	record := s.initiate()

	_, err := s.service.MarkPropagated(s.at(s.now.Add(time.Minute)), record.ID, "gateway")
	s.Require().NoError(err)
	_, err = s.service.MarkPropagated(s.at(s.now.Add(7*time.Minute)), record.ID, "vault")
	s.Require().NoError(err)

	report, err := s.service.TrackStatus(s.at(s.now.Add(8*time.Minute)), record.ID)
	s.Require().NoError(err)
	s.Equal(revocation.StatusSLABreach, report.Status, "completing after the deadline does not clear the breach")
}

func (s *ServiceSuite) TestListActive_ExcludesCompleted() {
	first := s.initiate()
	second, err := s.service.Initiate(s.at(s.now.Add(time.Second)), "agent-9", "offboarding", "secops", []string{"gateway"})
	s.Require().NoError(err)

	_, err = s.service.MarkPropagated(s.at(s.now.Add(time.Minute)), second.ID, "gateway")
	s.Require().NoError(err)

	active, err := s.service.ListActive(s.at(s.now.Add(2 * time.Minute)))
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(first.ID, active[0].ID)
}

func (s *ServiceSuite) TestSLAMetrics_ExcludesPending() {
	completed := s.initiate()
	_, err := s.service.MarkPropagated(s.at(s.now.Add(time.Minute)), completed.ID, "gateway")
	s.Require().NoError(err)
	_, err = s.service.MarkPropagated(s.at(s.now.Add(2*time.Minute)), completed.ID, "vault")
	s.Require().NoError(err)

	_, err = s.service.Initiate(s.at(s.now), "agent-9", "offboarding", "secops", []string{"gateway"})
	s.Require().NoError(err)

	report, err := s.service.SLAMetrics(s.at(s.now.Add(time.Hour)))
	s.Require().NoError(err)

	s.Equal(1, report.Completed, "in-flight revocations are excluded")
	s.Equal(1, report.WithinSLA)
	s.InDelta(100, report.CompliancePct, 0.001)
	s.InDelta(120, report.AvgLatencySecs, 0.001)
}

func (s *ServiceSuite) TestSLAMetrics_CountsBreaches() {
	record := s.initiate()
	_, err := s.service.MarkPropagated(s.at(s.now.Add(time.Minute)), record.ID, "gateway")
	s.Require().NoError(err)
	_, err = s.service.MarkPropagated(s.at(s.now.Add(10*time.Minute)), record.ID, "vault")
	s.Require().NoError(err)

	report, err := s.service.SLAMetrics(s.at(s.now.Add(time.Hour)))
	s.Require().NoError(err)

	s.Equal(1, report.Completed)
	s.Equal(0, report.WithinSLA)
	s.InDelta(0, report.CompliancePct, 0.001)
}

func (s *ServiceSuite) TestIsSubjectRevoked_RecordsDenyEvent() {
	s.initiate()

	_, err := s.service.IsSubjectRevoked(s.at(s.now), "agent-7")
	s.Require().NoError(err)

	events, err := s.auditLog.ListByCorrelation(s.at(s.now), "corr-rev")
	s.Require().NoError(err)

	var denied int
	for _, e := range events {
		if e.EventType == audit.EventRevocationAccessDenied {
			denied++
			s.Equal(audit.DecisionDeny, e.Decision)
			s.Equal("agent-7", e.Subject)
		}
	}
	s.Equal(1, denied)
}

func (s *ServiceSuite) TestIsSubjectRevoked_CleanSubjectNoEvent() {
	blocked, err := s.service.IsSubjectRevoked(s.at(s.now), "agent-up")
	s.Require().NoError(err)
	s.False(blocked)

	events, err := s.auditLog.ListByCorrelation(s.at(s.now), "corr-rev")
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *ServiceSuite) TestTrackStatus_UnknownRevocation() {
	_, err := s.service.TrackStatus(s.at(s.now), "ghost")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
