package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custos/internal/authorization"
	"custos/internal/authorization/handler/mocks"
	dErrors "custos/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestGetTools() {
	s.service.EXPECT().GetMapping(gomock.Any(), "A1").Return(authorization.Mapping{
		AgentID:   "A1",
		Tools:     []string{"check_warranty", "get_product_info"},
		Revision:  2,
		UpdatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, nil)

	rec := s.do(http.MethodGet, "/agents/A1/tools", nil)

	s.Equal(http.StatusOK, rec.Code)
	var mapping authorization.Mapping
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &mapping))
	s.Equal([]string{"check_warranty", "get_product_info"}, mapping.Tools)
	s.Equal(2, mapping.Revision)
}

func (s *HandlerSuite) TestGetTools_UnknownAgent() {
	s.service.EXPECT().GetMapping(gomock.Any(), "ghost").
		Return(authorization.Mapping{}, dErrors.New(dErrors.CodeNotFound, "no mapping for agent ghost"))

	rec := s.do(http.MethodGet, "/agents/ghost/tools", nil)

	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestSetTools() {
	s.service.EXPECT().SetAuthorizedTools(gomock.Any(), "A1", []string{"get_product_info"}, "").
		Return(authorization.ChangeReport{
			AgentID: "A1", Revision: 1,
			Added: []string{"get_product_info"}, Removed: []string{}, Unchanged: []string{},
		}, nil)

	rec := s.do(http.MethodPut, "/agents/A1/tools", map[string]any{"tools": []string{"get_product_info"}})

	s.Equal(http.StatusOK, rec.Code)
	var report authorization.ChangeReport
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &report))
	s.Equal([]string{"get_product_info"}, report.Added)
}

func (s *HandlerSuite) TestSetTools_DeniedUpdate() {
	s.service.EXPECT().SetAuthorizedTools(gomock.Any(), "A1", []string{"issue_refund"}, "").
		Return(authorization.ChangeReport{}, dErrors.New(dErrors.CodeAuthorizationDenied, "tool issue_refund requires an active approval"))

	rec := s.do(http.MethodPut, "/agents/A1/tools", map[string]any{"tools": []string{"issue_refund"}})

	s.Equal(http.StatusForbidden, rec.Code)
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("authorization_denied", body["error"])
}

func (s *HandlerSuite) TestSetTools_ReasonForwarded() {
	s.service.EXPECT().SetAuthorizedTools(gomock.Any(), "A1", []string{"check_warranty"}, "onboard").
		Return(authorization.ChangeReport{AgentID: "A1", Revision: 1, Added: []string{"check_warranty"}}, nil)

	rec := s.do(http.MethodPut, "/agents/A1/tools", map[string]any{
		"tools":  []string{"check_warranty"},
		"reason": "onboard",
	})

	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestSetTools_MalformedBody() {
	req := httptest.NewRequest(http.MethodPut, "/agents/A1/tools", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestCheck_DenyIsStillOK() {
	s.service.EXPECT().CheckToolAuthorized(gomock.Any(), "A1", "issue_refund").
		Return(authorization.CheckResult{
			AgentID: "A1", ToolID: "issue_refund",
			Allowed: false, Reason: "tool issue_refund is NOT in the authorized list for A1",
		}, nil)

	rec := s.do(http.MethodGet, "/agents/A1/tools/issue_refund/check", nil)

	s.Equal(http.StatusOK, rec.Code, "a denial is an outcome, not an HTTP error")
	var result authorization.CheckResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.False(result.Allowed)
}

func (s *HandlerSuite) TestHistory() {
	s.service.EXPECT().ListChangeHistory(gomock.Any(), "A1").Return([]authorization.ChangeReport{
		{AgentID: "A1", Revision: 1, Added: []string{"get_product_info"}},
	}, nil)

	rec := s.do(http.MethodGet, "/agents/A1/tools/history", nil)

	s.Equal(http.StatusOK, rec.Code)
	var body struct {
		AgentID string                       `json:"agent_id"`
		Changes []authorization.ChangeReport `json:"changes"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Len(body.Changes, 1)
}
