package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad input", nil), http.StatusBadRequest},
		{"field", Field("date", "invalid date"), http.StatusBadRequest},
		{"duplicate", Duplicate("already recorded"), http.StatusConflict},
		{"conflict", Conflict("role in use"), http.StatusConflict},
		{"unauthenticated", Unauthenticated("login required"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not allowed"), http.StatusForbidden},
		{"not found", NotFound("record not found"), http.StatusNotFound},
		{"wrapped", fmt.Errorf("creating record: %w", Duplicate("x")), http.StatusConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestError_IsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("employee not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "employee not found", e.Error())

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestError_EmptyMessageFallsBackToKind(t *testing.T) {
	e := &Error{Kind: ErrForbidden}
	assert.Equal(t, "forbidden", e.Error())
}

func TestField(t *testing.T) {
	e := Field("from_date", "from_date must not be after to_date")
	assert.Equal(t, map[string]string{"from_date": "from_date must not be after to_date"}, e.Fields)
}
