package errors

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestAppErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := Internal("Failed to reach payment processor", cause)

	if !strings.Contains(appErr.Error(), "connection refused") {
		t.Errorf("expected cause in error string, got %q", appErr.Error())
	}
	if !errors.Is(appErr, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
}

func TestConstructorsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("slot full"), CodeConflict, http.StatusConflict},
		{"gateway", Gateway("stripe down", errors.New("503")), CodeGateway, http.StatusBadGateway},
		{"signature", Signature("bad signature", nil), CodeSignature, http.StatusUnauthorized},
		{"unauthorized", Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.StatusCode() != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.StatusCode())
			}
		})
	}
}

func TestAsAppErrorWrapsUnknownErrors(t *testing.T) {
	plain := errors.New("boom")
	appErr := AsAppError(plain)

	if appErr.Code != CodeInternal {
		t.Errorf("expected %s, got %s", CodeInternal, appErr.Code)
	}
	if appErr.StatusCode() != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", appErr.StatusCode())
	}
}

func TestAsAppErrorPassesThrough(t *testing.T) {
	original := Forbidden("owner mismatch")
	if got := AsAppError(original); got != original {
		t.Error("expected the same *AppError back")
	}
}
