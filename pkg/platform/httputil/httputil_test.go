package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "covault/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("consistency fault omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternalConsistency, "vault x violates ledger invariants"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		if strings.Contains(w.Body.String(), "ledger") {
			t.Fatalf("expected consistency description to be hidden, got %s", w.Body.String())
		}
	})

	t.Run("plain error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("insufficient funds includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInsufficientFunds, "amount exceeds vault balance"))

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "insufficient_funds" {
			t.Fatalf("expected error code insufficient_funds, got %q", body["error"])
		}
		if body["error_description"] != "amount exceeds vault balance" {
			t.Fatalf("expected error_description to be returned, got %q", body["error_description"])
		}
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:          http.StatusBadRequest,
		dErrors.CodeNotFound:            http.StatusNotFound,
		dErrors.CodeAlreadyMember:       http.StatusConflict,
		dErrors.CodeCapacity:            http.StatusConflict,
		dErrors.CodeInsufficientFunds:   http.StatusUnprocessableEntity,
		dErrors.CodePersistence:         http.StatusServiceUnavailable,
		dErrors.CodeInternalConsistency: http.StatusInternalServerError,
		dErrors.CodeForbidden:           http.StatusForbidden,
		dErrors.CodeUnauthorized:        http.StatusUnauthorized,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	decode := func(body string) error {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var p payload
		return DecodeJSON(r, &p)
	}

	if err := decode(`{"name":"ok"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, body := range []string{"", `{"nope":1}`, `{"name":"a"}{"name":"b"}`, `{`} {
		if err := decode(body); !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Errorf("body %q: expected bad_request, got %v", body, err)
		}
	}
}
