package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/skinmarket/internal/logger"
)

// --- モック定義 ---

// mockStatusCollector はHTTPStatusRecorderのモック実装。
type mockStatusCollector struct {
	recorded []int
}

func (m *mockStatusCollector) RecordHTTPStatus(statusCode int) {
	m.recorded = append(m.recorded, statusCode)
}

// --- テスト ---

func TestStatusRecorder_DefaultsTo200(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())

	rec.Write([]byte("OK"))

	if rec.StatusCode() != http.StatusOK {
		t.Errorf("StatusCode() = %d, want %d", rec.StatusCode(), http.StatusOK)
	}
}

func TestStatusRecorder_RecordsWrittenStatus(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())

	rec.WriteHeader(http.StatusNotFound)

	if rec.StatusCode() != http.StatusNotFound {
		t.Errorf("StatusCode() = %d, want %d", rec.StatusCode(), http.StatusNotFound)
	}
}

// 2回目以降のWriteHeaderは最初のステータスを保持することを検証
func TestStatusRecorder_FirstStatusWins(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())

	rec.WriteHeader(http.StatusUnauthorized)
	rec.WriteHeader(http.StatusOK)

	if rec.StatusCode() != http.StatusUnauthorized {
		t.Errorf("StatusCode() = %d, want %d", rec.StatusCode(), http.StatusUnauthorized)
	}
}

func TestLoggingMiddleware_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Setup(&buf)

	mw := NewLoggingMiddleware(l, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/skins?name=redline", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v\nraw: %s", err, buf.String())
	}

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %q, want %q", entry["msg"], "http_request")
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %q, want %q", entry["method"], "GET")
	}
	if entry["path"] != "/skins" {
		t.Errorf("path = %q, want %q", entry["path"], "/skins")
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want %d", entry["status"], http.StatusOK)
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected duration_ms field in log output")
	}
}

// 認証済みリクエストではsteam_idがログに含まれることを検証
func TestLoggingMiddleware_IncludesSteamID(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Setup(&buf)

	mw := NewLoggingMiddleware(l, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{SteamID: "76561198000000001"}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["steam_id"] != "76561198000000001" {
		t.Errorf("steam_id = %q, want %q", entry["steam_id"], "76561198000000001")
	}
}

// ステータスコードに応じてログレベルが変わることを検証
func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"2xxはINFO", http.StatusOK, "INFO"},
		{"4xxはWARN", http.StatusUnauthorized, "WARN"},
		{"5xxはERROR", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := logger.Setup(&buf)

			mw := NewLoggingMiddleware(l, nil)
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/skins", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse log output: %v", err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %q, want %q", entry["level"], tt.wantLevel)
			}
		})
	}
}

func TestLoggingMiddleware_RecordsStatusMetric(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Setup(&buf)
	collector := &mockStatusCollector{}

	mw := NewLoggingMiddleware(l, collector)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/skins", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if len(collector.recorded) != 1 {
		t.Fatalf("len(recorded) = %d, want 1", len(collector.recorded))
	}
	if collector.recorded[0] != http.StatusCreated {
		t.Errorf("recorded status = %d, want %d", collector.recorded[0], http.StatusCreated)
	}
}
