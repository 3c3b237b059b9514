package controllers

import (
	"context"
	"encoding/json"
	"generate-love-video/application/ports/inbound"
	"generate-love-video/domain"
	"generate-love-video/infrastructure/adapters"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
)

type stubOrchestrator struct {
	started    *inbound.StartJobParams
	retried    []int
	retryErr   error
	retriedJob string
}

func (s *stubOrchestrator) StartJob(_ context.Context, params inbound.StartJobParams) (*inbound.StartJobResponse, error) {
	if len(params.Scenes) == 0 {
		return nil, inbound.ErrNoScenesProvided
	}
	s.started = &params
	return &inbound.StartJobResponse{JobID: "job-123", Total: len(params.Scenes)}, nil
}

func (s *stubOrchestrator) RetryScene(_ context.Context, jobID string, ordinal int) error {
	if s.retryErr != nil {
		return s.retryErr
	}
	s.retriedJob = jobID
	s.retried = append(s.retried, ordinal)
	return nil
}

func (s *stubOrchestrator) StartRetentionSweep(_ context.Context) {}

type stubStatusPort struct {
	views map[string]*domain.JobStatusView
}

func (s *stubStatusPort) GetStatus(jobID string) (*domain.JobStatusView, bool) {
	view, ok := s.views[jobID]
	return view, ok
}

func newTestRouter(t *testing.T, orchestrator inbound.JobOrchestratorPort, status inbound.JobStatusPort) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool, err := ants.NewPool(8)
	if err != nil {
		t.Fatal("Failed to create worker pool:", err)
	}
	t.Cleanup(pool.Release)

	router := gin.New()
	controller := NewVideoJobsController(adapters.NewZerologWrapper(), orchestrator, status, pool)
	controller.RegisterRoutes(router)
	return router
}

func TestCreateVideo_AcceptsJob(t *testing.T) {
	orchestrator := &stubOrchestrator{}
	router := newTestRouter(t, orchestrator, &stubStatusPort{})

	body := `{
		"scenes": [
			{"title": "meet cute", "prompt": "two strangers share an umbrella", "duration_seconds": 6},
			{"title": "first date", "prompt": "candlelit dinner", "narration": "They talked until closing."}
		],
		"provider": "kling",
		"voice_id": "voice-1",
		"with_music": true,
		"music_prompt": "soft piano"
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatal("Expected 200, got:", rec.Code, rec.Body.String())
	}

	var res struct {
		JobID string `json:"job_id"`
		Total int    `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal("Failed to parse response:", err)
	}
	if res.JobID != "job-123" || res.Total != 2 {
		t.Fatalf("Unexpected response: %+v", res)
	}

	if orchestrator.started == nil {
		t.Fatal("Orchestrator never received the job")
	}
	if orchestrator.started.Settings.Provider != "kling" {
		t.Fatal("Provider not forwarded:", orchestrator.started.Settings.Provider)
	}
	if !orchestrator.started.Settings.WithMusic {
		t.Fatal("Music flag not forwarded")
	}
	if orchestrator.started.Scenes[1].Narration == "" {
		t.Fatal("Narration not forwarded")
	}
}

func TestCreateVideo_RejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t, &stubOrchestrator{}, &stubStatusPort{})

	for _, body := range []string{
		`{`,
		`{"scenes": []}`,
		`{"scenes": [{"title": "no prompt"}]}`,
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)

		if rec.Code != 400 {
			t.Fatalf("Expected 400 for %q, got %d", body, rec.Code)
		}
	}
}

func TestGetStatus(t *testing.T) {
	status := &stubStatusPort{views: map[string]*domain.JobStatusView{
		"job-123": {
			JobID:     "job-123",
			Status:    domain.JobProcessing,
			Total:     3,
			Completed: 1,
			Results: []domain.SceneResult{
				{Index: 0, Success: true, VideoURL: "https://bucket/scene-0.mp4"},
			},
		},
	}}
	router := newTestRouter(t, &stubOrchestrator{}, status)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos/job-123/status", nil))
	if rec.Code != 200 {
		t.Fatal("Expected 200, got:", rec.Code)
	}

	var view domain.JobStatusView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal("Failed to parse status:", err)
	}
	if view.Completed != 1 || len(view.Results) != 1 {
		t.Fatalf("Unexpected view: %+v", view)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos/missing/status", nil))
	if rec.Code != 404 {
		t.Fatal("Expected 404 for unknown job, got:", rec.Code)
	}
}

func TestRetryScene(t *testing.T) {
	orchestrator := &stubOrchestrator{}
	router := newTestRouter(t, orchestrator, &stubStatusPort{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/videos/job-123/scenes/2/retry", nil))
	if rec.Code != 200 {
		t.Fatal("Expected 200, got:", rec.Code, rec.Body.String())
	}
	if orchestrator.retriedJob != "job-123" || len(orchestrator.retried) != 1 || orchestrator.retried[0] != 2 {
		t.Fatalf("Retry not forwarded: %+v", orchestrator)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/videos/job-123/scenes/abc/retry", nil))
	if rec.Code != 400 {
		t.Fatal("Expected 400 for a non-integer ordinal, got:", rec.Code)
	}

	orchestrator.retryErr = inbound.ErrJobNotFound
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/videos/missing/scenes/1/retry", nil))
	if rec.Code != 404 {
		t.Fatal("Expected 404 for an unknown job, got:", rec.Code)
	}

	orchestrator.retryErr = inbound.ErrSceneOutOfRange
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/videos/job-123/scenes/99/retry", nil))
	if rec.Code != 400 {
		t.Fatal("Expected 400 for an out-of-range ordinal, got:", rec.Code)
	}
}
