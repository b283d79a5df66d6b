package domainerrors_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
)

func TestWrap_CauseFirst(t *testing.T) {
	err := dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeInternal, "loading mapping")

	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound), "the cause stays reachable through errors.Is")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Contains(t, err.Error(), "loading mapping")
	assert.Contains(t, err.Error(), sentinel.ErrNotFound.Error())
}

func TestHasCode(t *testing.T) {
	err := dErrors.New(dErrors.CodeValidation, "bad input")

	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.False(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.False(t, dErrors.HasCode(errors.New("uncoded"), dErrors.CodeValidation))
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(errors.New("uncoded")))
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(dErrors.New(dErrors.CodeConflict, "already decided")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code dErrors.Code
		want int
	}{
		{dErrors.CodeValidation, http.StatusBadRequest},
		{dErrors.CodeBadRequest, http.StatusBadRequest},
		{dErrors.CodeAuthorizationDenied, http.StatusForbidden},
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodeIntegrityViolation, http.StatusConflict},
		{dErrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dErrors.ToHTTPStatus(tt.code), string(tt.code))
	}
}
