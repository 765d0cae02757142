package httpjson_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"go.uber.org/zap"
)

func TestDecode_EmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	var dst struct{}
	err := httpjson.Decode(req, &dst)
	if err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestDecode_Valid(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
	var dst struct {
		Name string `json:"name"`
	}
	if err := httpjson.Decode(req, &dst); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if dst.Name != "x" {
		t.Errorf("got %q, want %q", dst.Name, "x")
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	el := httpjson.NewErrorLogger(zap.NewNop())

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("missing field"), http.StatusBadRequest},
		{"unauthorized", apperr.Unauthorized("not yours"), http.StatusForbidden},
		{"not found", apperr.NotFound("goal not found"), http.StatusNotFound},
		{"conflict", apperr.Conflict("duplicate week"), http.StatusConflict},
		{"upstream", apperr.Upstream(nil, "llm failed"), http.StatusBadGateway},
		{"storage", apperr.Storage(nil, "write failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/x", nil)
			el.WriteError(rec, req, "test op", tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestWriteError_DoesNotLeakCause(t *testing.T) {
	el := httpjson.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)

	cause := apperr.Storage(errTest("mongo: connection refused on 10.0.0.5"), "failed to save goal")
	el.WriteError(rec, req, "save", cause)

	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Error("internal cause leaked into response body")
	}
	if !strings.Contains(rec.Body.String(), "failed to save goal") {
		t.Error("caller-facing message missing from body")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
