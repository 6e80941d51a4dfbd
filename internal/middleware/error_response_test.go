package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/skinmarket/internal/model"
)

func TestWriteErrorResponse_Format(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteErrorResponse(rec, http.StatusBadRequest, model.NewNotInInventoryError())

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}

	// ボディは {"error": message} の1フィールドのみ
	if len(body) != 1 {
		t.Errorf("body has %d fields, want 1: %v", len(body), body)
	}
	if body["error"] != "Skin nicht im Inventar" {
		t.Errorf(`body["error"] = %q, want %q`, body["error"], "Skin nicht im Inventar")
	}
}

func TestWriteErrorResponse_NotLoggedIn(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteErrorResponse(rec, http.StatusUnauthorized, model.NewNotLoggedInError())

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["error"] != "Not logged in" {
		t.Errorf(`body["error"] = %q, want %q`, body["error"], "Not logged in")
	}
}

func TestWriteInternalServerError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteInternalServerError(rec)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf(`body["error"] = %q, want %q`, body["error"], "Internal server error")
	}
}
