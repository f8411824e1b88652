package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/backend/internal/apperror"
	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/repository"
	"github.com/pricewatch/backend/internal/service"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		data     interface{}
		wantBody string
	}{
		{name: "object", status: http.StatusOK, data: map[string]string{"message": "success"}, wantBody: `{"message":"success"}`},
		{name: "array", status: http.StatusOK, data: []string{"a", "b"}, wantBody: `["a","b"]`},
		{name: "created", status: http.StatusCreated, data: map[string]int{"id": 123}, wantBody: `{"id":123}`},
		{name: "no body", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rr := httptest.NewRecorder()
			respondJSON(rr, tt.status, tt.data)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, strings.TrimSpace(rr.Body.String()))
		})
	}
}

func TestRespondAppError(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	respondAppError(rr, apperror.ValidationError("email", "email is required"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "email is required", resp.Error)
	assert.Equal(t, "email", resp.Field)
}

func TestRespondServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantField string
	}{
		{"product missing", fmt.Errorf("getting product: %w", repository.ErrProductNotFound), http.StatusNotFound, ""},
		{"platform missing", repository.ErrPlatformNotFound, http.StatusNotFound, ""},
		{"tracked missing", repository.ErrTrackedNotFound, http.StatusNotFound, ""},
		{"alert missing", repository.ErrAlertNotFound, http.StatusNotFound, ""},
		{"user missing", repository.ErrUserNotFound, http.StatusNotFound, ""},
		{"email taken", service.ErrEmailTaken, http.StatusConflict, ""},
		{"email exists", repository.ErrEmailExists, http.StatusConflict, ""},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{"admin delete", service.ErrCannotDeleteAdmin, http.StatusBadRequest, ""},
		{"duplicate platform", fmt.Errorf("%w: Amazon", model.ErrDuplicatePlatform), http.StatusBadRequest, "platforms"},
		{"invalid price", service.ErrInvalidPrice, http.StatusBadRequest, "price"},
		{"app error passes through", apperror.Forbidden(""), http.StatusForbidden, ""},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rr := httptest.NewRecorder()
			respondServiceError(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil), tt.err)

			assert.Equal(t, tt.wantCode, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, tt.wantField, resp.Field)
			if tt.wantCode == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error, "connection reset")
			}
		})
	}
}

func TestUUIDParam(t *testing.T) {
	t.Parallel()

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "not-a-uuid")
	_, appErr := uuidParam(req, "id")
	require.NotNil(t, appErr)
	assert.Equal(t, "id", appErr.Field)
}
