package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clipforge/clipforge/internal/logger"
	"github.com/clipforge/clipforge/internal/render"
	"github.com/clipforge/clipforge/internal/store"
)

func init() {
	logger.Init("error")
}

func testConfig() (*CompositionConfig, *mockBroker, *mockStore, *mockJobIndex) {
	broker := &mockBroker{}
	st := newMockStore()
	jobs := newMockJobIndex()
	cfg := &CompositionConfig{
		Broker:   broker,
		Store:    st,
		Progress: &mockProgress{},
		Jobs:     jobs,
	}
	return cfg, broker, st, jobs
}

const renderBody = `{
	"clips": [
		{"clip_id": "a", "source_path": "sources/a.mp4", "timeline_start": 0, "timeline_end": 10},
		{"clip_id": "b", "source_path": "sources/b.mp4", "timeline_start": 10, "timeline_end": 20}
	],
	"output": {"format": "mp4", "resolution": "1280x720", "fps": 30, "preset": "web"},
	"priority": "high"
}`

func doRender(t *testing.T, cfg *CompositionConfig, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/compositions/comp-1/render", strings.NewReader(body))
	req.SetPathValue("id", "comp-1")
	rec := httptest.NewRecorder()
	RenderCompositionHandler(cfg)(rec, req)
	return rec
}

func TestRenderCompositionHandler(t *testing.T) {
	cfg, broker, st, jobs := testConfig()

	rec := doRender(t, cfg, renderBody)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var resp renderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != "job-1" || resp.Queue != "high" || resp.Status != render.StatusPending {
		t.Errorf("unexpected response: %+v", resp)
	}

	if len(broker.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(broker.enqueued))
	}
	if broker.enqueued[0].queue != "high" {
		t.Errorf("queue = %q, want high", broker.enqueued[0].queue)
	}

	comp, err := st.Get(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("composition record not written: %v", err)
	}
	if comp.Status != render.StatusPending {
		t.Errorf("recorded status = %q, want pending", comp.Status)
	}
	if id, ok := jobs.jobs["job-1"]; !ok || id != "comp-1" {
		t.Errorf("job index = %v", jobs.jobs)
	}
}

func TestRenderCompositionRejectsBadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "{", http.StatusBadRequest},
		{"no clips", `{"clips": [], "output": {}}`, http.StatusBadRequest},
		{"bad priority", strings.Replace(renderBody, `"high"`, `"urgent"`, 1), http.StatusBadRequest},
		{"bad format", strings.Replace(renderBody, `"mp4"`, `"avi"`, 1), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, broker, _, _ := testConfig()
			rec := doRender(t, cfg, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if len(broker.enqueued) != 0 {
				t.Error("invalid payload reached the broker")
			}
		})
	}
}

func TestRenderCompositionBrokerFailure(t *testing.T) {
	cfg, broker, _, _ := testConfig()
	broker.err = errBrokerDown

	rec := doRender(t, cfg, renderBody)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestGetCompositionHandler(t *testing.T) {
	cfg, _, st, _ := testConfig()
	now := time.Now()
	done := now.Add(42 * time.Second)
	_ = st.Upsert(context.Background(), &store.Composition{
		ID:          "comp-1",
		Status:      render.StatusCompleted,
		OutputURL:   "https://storage.local/renders/comp-1/output.mp4",
		CreatedAt:   now,
		CompletedAt: &done,
	})

	r := httptest.NewRequest(http.MethodGet, "/v1/compositions/comp-1", nil)
	r.SetPathValue("id", "comp-1")
	rec := httptest.NewRecorder()
	GetCompositionHandler(cfg)(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp compositionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != render.StatusCompleted || resp.OutputURL == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.DurationSec != 42 {
		t.Errorf("duration = %g, want 42", resp.DurationSec)
	}
}

func TestGetCompositionNotFound(t *testing.T) {
	cfg, _, _, _ := testConfig()
	r := httptest.NewRequest(http.MethodGet, "/v1/compositions/missing", nil)
	r.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	GetCompositionHandler(cfg)(rec, r)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetJobHandler(t *testing.T) {
	cfg, _, st, jobs := testConfig()
	_ = st.Upsert(context.Background(), &store.Composition{ID: "comp-1", Status: render.StatusInProgress, CreatedAt: time.Now()})
	_ = jobs.Set(context.Background(), "job-1", "comp-1")

	r := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil)
	r.SetPathValue("id", "job-1")
	rec := httptest.NewRecorder()
	GetJobHandler(cfg)(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp compositionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "comp-1" {
		t.Errorf("resolved composition = %q, want comp-1", resp.ID)
	}
}

func TestGetJobHandlerUnknownJob(t *testing.T) {
	cfg, _, _, _ := testConfig()
	r := httptest.NewRequest(http.MethodGet, "/v1/jobs/nope", nil)
	r.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	GetJobHandler(cfg)(rec, r)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
