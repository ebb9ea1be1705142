package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbase/quillbase/internal/domain"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "value", data["key"])
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "something went wrong")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "something went wrong", resp.Error)
}

func TestDomainErrorToHTTP(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{domain.ErrEmptyMessage, http.StatusBadRequest},
		{domain.ErrDocumentNotFound, http.StatusNotFound},
		{domain.ErrInvalidAPIKey, http.StatusUnauthorized},
		{domain.ErrAdminRequired, http.StatusForbidden},
		{domain.NewProviderError("upstream failed", errors.New("timeout")), http.StatusBadGateway},
		{domain.NewStorageError("insert failed", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, DomainErrorToHTTP(tc.err), "error: %v", tc.err)
	}
}

func TestHandleError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, domain.ErrDocumentNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "document not found")
}

func TestHandleError_ServerFailuresHideDetails(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.NewProviderError("upstream failed", errors.New("rate limited by api")), http.StatusBadGateway},
		{domain.NewStorageError("insert failed", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		HandleError(rec, tc.err)

		assert.Equal(t, tc.status, rec.Code, "error: %v", tc.err)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, GenericErrorMessage, resp.Error)
		assert.NotContains(t, rec.Body.String(), "rate limited")
		assert.NotContains(t, rec.Body.String(), "disk full")
	}
}
