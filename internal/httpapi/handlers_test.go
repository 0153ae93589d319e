package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/alertledger/internal/domain"
	apimw "github.com/hamed0406/alertledger/internal/httpapi/middleware"
	"github.com/hamed0406/alertledger/internal/repo/memory"
)

// ---- test helpers ----

type failingTaskLog struct{}

func (failingTaskLog) RecordAcknowledgement(context.Context, string, string, int64) error {
	return errors.New("audit store offline")
}

func setupServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	return setupServerWith(t, store, store), store
}

func setupServerWith(t *testing.T, store *memory.Store, tasks interface {
	RecordAcknowledgement(context.Context, string, string, int64) error
}) *httptest.Server {
	t.Helper()
	srv := NewServer(zap.NewNop(), store, tasks, store, nil, "anonymous")
	keys := apimw.Keys{
		Public: []string{"pub_test"},
		Admin:  []string{"adm_test"},
	}
	// very high rate limits to avoid flakiness in tests
	ts := httptest.NewServer(srv.Router(keys, nil, 10_000, 10_000, 10_000, 10_000))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, key, user string, body []byte) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	if user != "" {
		req.Header.Set(apimw.UserHeader, user)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// ---- tests ----

func TestCreate_Get_Ack_Flow(t *testing.T) {
	ts, store := setupServer(t)

	// 1) create (admin)
	resp := do(t, http.MethodPost, ts.URL+"/api/alerts", "adm_test", "", []byte(`{"id":"A1","category":"battery_low"}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("want 201, got %d", resp.StatusCode)
	}
	created := decode[domain.Alert](t, resp)
	if created.ID != "A1" || created.Category != "battery_low" || created.CreatedAtMillis == 0 {
		t.Fatalf("unexpected created: %+v", created)
	}

	// 2) exists via HEAD (public)
	if resp := do(t, http.MethodHead, ts.URL+"/api/alerts/A1", "pub_test", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("HEAD want 200, got %d", resp.StatusCode)
	}

	// 3) get (public)
	resp = do(t, http.MethodGet, ts.URL+"/api/alerts/A1", "pub_test", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET want 200, got %d", resp.StatusCode)
	}
	got := decode[domain.Alert](t, resp)
	if got.AcknowledgedBy != nil || got.AcknowledgedAtMillis != nil {
		t.Fatalf("fresh alert should be unacknowledged: %+v", got)
	}

	// 4) ack as alice
	resp = do(t, http.MethodPost, ts.URL+"/api/alerts/A1/ack", "pub_test", "alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ack want 200, got %d", resp.StatusCode)
	}
	acked := decode[domain.Alert](t, resp)
	if acked.AcknowledgedBy == nil || *acked.AcknowledgedBy != "alice" || acked.AcknowledgedAtMillis == nil {
		t.Fatalf("unexpected ack: %+v", acked)
	}

	// 5) task log readable
	resp = do(t, http.MethodGet, ts.URL+"/api/alerts/A1/acks", "pub_test", "", nil)
	acks := decode[[]domain.Acknowledgement](t, resp)
	if len(acks) != 1 || acks[0].User != "alice" || acks[0].AckMillis != *acked.AcknowledgedAtMillis {
		t.Fatalf("unexpected acks: %+v", acks)
	}

	// 6) list
	resp = do(t, http.MethodGet, ts.URL+"/api/alerts", "pub_test", "", nil)
	list := decode[[]domain.Alert](t, resp)
	if len(list) != 1 || list[0].ID != "A1" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if n, _ := store.List(context.Background()); len(n) != 1 {
		t.Fatalf("store should hold one alert, got %d", len(n))
	}
}

func TestGet_MissingIs404(t *testing.T) {
	ts, _ := setupServer(t)
	if resp := do(t, http.MethodGet, ts.URL+"/api/alerts/nope", "pub_test", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodHead, ts.URL+"/api/alerts/nope", "pub_test", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("HEAD want 404, got %d", resp.StatusCode)
	}
}

func TestAck_MissingAlertSynthesizesID(t *testing.T) {
	ts, _ := setupServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/api/alerts/ghost/ack", "pub_test", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	a := decode[domain.Alert](t, resp)
	if !strings.HasPrefix(a.ID, "ghost__") {
		t.Fatalf("expected synthetic id, got %q", a.ID)
	}
	if a.AcknowledgedBy != nil {
		t.Fatalf("synthetic record must not carry acknowledger: %+v", a)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/alerts/"+a.ID+"/acks", "pub_test", "", nil)
	acks := decode[[]domain.Acknowledgement](t, resp)
	if len(acks) != 1 || acks[0].User != "anonymous" {
		t.Fatalf("default user should be logged: %+v", acks)
	}
}

func TestAck_TaskLogFailureIs502(t *testing.T) {
	store := memory.New()
	ts := setupServerWith(t, store, failingTaskLog{})

	do(t, http.MethodPost, ts.URL+"/api/alerts", "adm_test", "", []byte(`{"id":"A1","category":"battery_low"}`))
	resp := do(t, http.MethodPost, ts.URL+"/api/alerts/A1/ack", "pub_test", "alice", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("want 502, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["alert_id"] != "A1" || !strings.Contains(body["error"], "audit store offline") {
		t.Fatalf("unexpected body: %+v", body)
	}

	a, _ := store.Get(context.Background(), "A1")
	if a == nil || !a.Acknowledged() {
		t.Fatalf("ack should stay persisted: %+v", a)
	}
}

func TestCreate_AuthAndValidation(t *testing.T) {
	ts, _ := setupServer(t)

	if resp := do(t, http.MethodPost, ts.URL+"/api/alerts", "pub_test", "", []byte(`{"id":"A1","category":"c"}`)); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("public key create want 403, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/alerts", "", "", []byte(`{"id":"A1","category":"c"}`)); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing key want 401, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/alerts", "adm_test", "", []byte(`{"id":"","category":"c"}`)); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty id want 400, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/alerts", "adm_test", "", []byte(`not json`)); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json want 400, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/api/alerts", "", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("list without key want 401, got %d", resp.StatusCode)
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	ts, _ := setupServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/api/alerts", "pub_test", "", nil)
	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("want [], got %s", raw)
	}
}
