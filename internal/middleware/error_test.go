package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"product-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every error body carries status, code, message and timestamp", prop.ForAll(
		func(message string, statusCode int) bool {
			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			if response.Error.Status != statusCode ||
				response.Error.Code != http.StatusText(statusCode) ||
				response.Error.Message != message {
				return false
			}

			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			return err == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.OneConstOf(
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
			http.StatusMethodNotAllowed,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
		),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_DomainKindsMapToStatus(t *testing.T) {
	properties := gopter.NewProperties(nil)

	expected := map[domain.Kind]int{
		domain.KindNotFound:     http.StatusNotFound,
		domain.KindValidation:   http.StatusBadRequest,
		domain.KindUnauthorized: http.StatusUnauthorized,
	}

	properties.Property("wrapped domain errors keep their status and message", prop.ForAll(
		func(message string, kind domain.Kind) bool {
			err := fmt.Errorf("failed to do thing: %w", &domain.Error{Kind: kind, Message: message})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			RespondWithAppError(w, req, zap.NewNop(), err)

			var response ErrorResponse
			if json.Unmarshal(w.Body.Bytes(), &response) != nil {
				return false
			}
			return w.Code == expected[kind] && response.Error.Message == message
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.OneConstOf(domain.KindNotFound, domain.KindValidation, domain.KindUnauthorized),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithAppError_HidesInternalErrors(t *testing.T) {
	for _, err := range []error{
		errors.New("disk on fire"),
		domain.Internal(errors.New("disk on fire")),
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		w := httptest.NewRecorder()

		RespondWithAppError(w, req, zap.NewNop(), err)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		response := decodeError(t, w)
		assert.Equal(t, "internal server error", response.Error.Message)
		assert.NotContains(t, w.Body.String(), "disk on fire")
	}
}

func TestRespondWithAppError_ValidationDetails(t *testing.T) {
	err := domain.Validation("validation failed",
		domain.FieldError{Field: "name", Message: "this field is required"},
		domain.FieldError{Field: "price", Message: "price must be a positive number"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	w := httptest.NewRecorder()

	RespondWithAppError(w, req, zap.NewNop(), err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeError(t, w)
	assert.Equal(t, "validation failed", response.Error.Message)

	fields, ok := response.Error.Details["validation_errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 2)
	first := fields[0].(map[string]interface{})
	assert.Equal(t, "name", first["field"])
	assert.Equal(t, "this field is required", first["message"])
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Error.Message)
}

func TestErrorHandlingMiddleware_RepanicsOnAbort(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestFallbackHandlers(t *testing.T) {
	w := httptest.NewRecorder()
	NotFoundHandler(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "endpoint not found", decodeError(t, w).Error.Message)

	w = httptest.NewRecorder()
	MethodNotAllowedHandler(w, httptest.NewRequest(http.MethodPatch, "/api/products", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "method not allowed", decodeError(t, w).Error.Message)
}
