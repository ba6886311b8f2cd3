package httpkit

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"solarmarket_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func handleErrorStatus(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if !HandleError(c, err) {
		t.Fatal("expected HandleError to handle the error")
	}
	return w.Code
}

func TestHandleError_MapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("contract not found"), http.StatusNotFound},
		{apperr.Validation("bad input"), http.StatusBadRequest},
		{apperr.Forbidden("no access"), http.StatusForbidden},
		{apperr.Conflict("already awarded"), http.StatusConflict},
		{apperr.Unavailable("database unreachable"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := handleErrorStatus(t, tc.err); got != tc.want {
			t.Errorf("HandleError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestHandleError_WrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("list milestones: %w", apperr.NotFound("contract not found"))
	if got := handleErrorStatus(t, wrapped); got != http.StatusNotFound {
		t.Errorf("wrapped domain error = %d, want %d", got, http.StatusNotFound)
	}
}

func TestHandleError_TransportFailureIsServerFault(t *testing.T) {
	// A raw pgx-style transport error must not surface as a caller fault.
	err := fmt.Errorf("failed to query quotations: %w", errors.New("connection refused"))
	if got := handleErrorStatus(t, err); got != http.StatusInternalServerError {
		t.Errorf("transport failure = %d, want %d", got, http.StatusInternalServerError)
	}
}

func TestHandleError_NilIsNotHandled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if HandleError(c, nil) {
		t.Fatal("nil error should not be handled")
	}
}
