package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softdeskhq/softdesk/internal/apperror"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "validation maps to 400",
			err:        apperror.ValidationFailed("name", "name is required"),
			wantStatus: http.StatusBadRequest,
			wantType:   "validation_error",
		},
		{
			name:       "not found maps to 404",
			err:        apperror.NotFound("project", "abc123"),
			wantStatus: http.StatusNotFound,
			wantType:   "not_found",
		},
		{
			name:       "forbidden maps to 403",
			err:        apperror.Forbidden("you are not a contributor"),
			wantStatus: http.StatusForbidden,
			wantType:   "forbidden",
		},
		{
			name:       "unauthenticated maps to 401",
			err:        apperror.Unauthenticated("invalid token"),
			wantStatus: http.StatusUnauthorized,
			wantType:   "unauthenticated",
		},
		{
			// Constraint violations are bad input, not their own class.
			name:       "conflict maps to 400 validation",
			err:        apperror.Conflict("user", "marie"),
			wantStatus: http.StatusBadRequest,
			wantType:   "validation_error",
		},
		{
			name:       "wrapped sentinel still maps",
			err:        fmt.Errorf("creating project: %w", apperror.NotFound("user", "u1")),
			wantStatus: http.StatusNotFound,
			wantType:   "not_found",
		},
		{
			name:       "unknown error maps to 500",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
		})
	}
}
