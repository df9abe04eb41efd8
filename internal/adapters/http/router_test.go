package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/acretu/smart-librarian/internal/core/domain"
	"github.com/acretu/smart-librarian/internal/observability/metrics"
)

type recommenderFake struct {
	query    string
	response *domain.RecommendationResponse
	err      error
}

func (f *recommenderFake) Recommend(_ context.Context, query string) (*domain.RecommendationResponse, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type transcriberFake struct {
	filename string
	language string
	text     string
	err      error
}

func (f *transcriberFake) Transcribe(_ context.Context, _ io.Reader, filename, language string) (string, error) {
	f.filename = filename
	f.language = language
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type queueFake struct {
	jobs []domain.MediaJob
	err  error
}

func (f *queueFake) PublishMediaJob(_ context.Context, job domain.MediaJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *queueFake) SubscribeMediaJobs(context.Context, func(context.Context, domain.MediaJob) error) error {
	return errors.New("not implemented")
}

type routerFixture struct {
	recommender *recommenderFake
	transcriber *transcriberFake
	queue       *queueFake
	handler     http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	fixture := &routerFixture{
		recommender: &recommenderFake{response: &domain.RecommendationResponse{Answer: "ok"}},
		transcriber: &transcriberFake{text: "spoken words"},
		queue:       &queueFake{},
	}
	fixture.handler = NewRouter(
		fixture.recommender,
		fixture.transcriber,
		fixture.queue,
		metrics.NewPipelineMetrics("test"),
		RouterConfig{Service: "test", MediaDir: t.TempDir(), RateLimitRPS: 100, RateLimitBurst: 100},
	).Handler()
	return fixture
}

func postJSONRequest(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestRecommendEndpoint(t *testing.T) {
	fixture := newRouterFixture(t)
	fixture.recommender.response = &domain.RecommendationResponse{
		Answer:      "Try 1984.",
		ChosenTitle: "1984",
		Summary:     "Winston against the Party.",
	}

	recorder := postJSONRequest(t, fixture.handler, "/v1/recommend", map[string]string{"query": "surveillance"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if fixture.recommender.query != "surveillance" {
		t.Fatalf("query not forwarded, got %q", fixture.recommender.query)
	}

	var response domain.RecommendationResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.ChosenTitle != "1984" || response.Summary == "" {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestRecommendEndpointValidation(t *testing.T) {
	fixture := newRouterFixture(t)

	if recorder := postJSONRequest(t, fixture.handler, "/v1/recommend", map[string]string{"query": "   "}); recorder.Code != http.StatusBadRequest {
		t.Fatalf("blank query: expected 400, got %d", recorder.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/recommend", strings.NewReader("not json"))
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("invalid json: expected 400, got %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/recommend", nil)
	recorder = httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET: expected 405, got %d", recorder.Code)
	}
}

func TestRecommendEndpointErrorMapping(t *testing.T) {
	fixture := newRouterFixture(t)

	fixture.recommender.err = domain.WrapError(domain.ErrTemporary, "retrieve", errors.New("backend down"))
	if recorder := postJSONRequest(t, fixture.handler, "/v1/recommend", map[string]string{"query": "q"}); recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("temporary error: expected 503, got %d", recorder.Code)
	}

	fixture.recommender.err = errors.New("boom")
	recorder := postJSONRequest(t, fixture.handler, "/v1/recommend", map[string]string{"query": "q"})
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("unknown error: expected 500, got %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "boom") {
		t.Fatalf("internal error details must not leak: %s", recorder.Body.String())
	}
}

func TestEnqueueSpeechEndpoint(t *testing.T) {
	fixture := newRouterFixture(t)

	recorder := postJSONRequest(t, fixture.handler, "/v1/media/speech", map[string]string{
		"text":       "I recommend 1984.",
		"book_title": "1984",
	})
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response map[string]string
	_ = json.Unmarshal(recorder.Body.Bytes(), &response)
	if response["audio_file"] != "/media/1984.mp3" {
		t.Fatalf("unexpected audio_file: %v", response)
	}
	if len(fixture.queue.jobs) != 1 || fixture.queue.jobs[0].Kind != domain.MediaKindSpeech {
		t.Fatalf("job not enqueued: %+v", fixture.queue.jobs)
	}

	if recorder := postJSONRequest(t, fixture.handler, "/v1/media/speech", map[string]string{"text": " "}); recorder.Code != http.StatusBadRequest {
		t.Fatalf("blank text: expected 400, got %d", recorder.Code)
	}
}

func TestEnqueueImageEndpoint(t *testing.T) {
	fixture := newRouterFixture(t)

	recorder := postJSONRequest(t, fixture.handler, "/v1/media/image", map[string]string{
		"title":   "The Hobbit",
		"summary": "Bilbo goes on an adventure.",
	})
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response map[string]string
	_ = json.Unmarshal(recorder.Body.Bytes(), &response)
	if response["image_file"] != "/media/the_hobbit.png" {
		t.Fatalf("unexpected image_file: %v", response)
	}

	job := fixture.queue.jobs[0]
	if job.Kind != domain.MediaKindImage || job.Title != "The Hobbit" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestEnqueueFailureMapsToTemporary(t *testing.T) {
	fixture := newRouterFixture(t)
	fixture.queue.err = domain.WrapError(domain.ErrTemporary, "publish", errors.New("nats down"))

	recorder := postJSONRequest(t, fixture.handler, "/v1/media/image", map[string]string{"title": "x"})
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", recorder.Code)
	}
}

func TestTranscribeEndpoint(t *testing.T) {
	fixture := newRouterFixture(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("language", "en")
	part, _ := writer.CreateFormFile("file", "voice.wav")
	_, _ = part.Write([]byte("wav-bytes"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/transcribe", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if fixture.transcriber.filename != "voice.wav" || fixture.transcriber.language != "en" {
		t.Fatalf("transcriber inputs not forwarded: %+v", fixture.transcriber)
	}

	var response map[string]string
	_ = json.Unmarshal(recorder.Body.Bytes(), &response)
	if response["text"] != "spoken words" {
		t.Fatalf("unexpected response: %v", response)
	}
}

func TestTranscribeEndpointRequiresFile(t *testing.T) {
	fixture := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/transcribe", strings.NewReader(""))
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestHealthz(t *testing.T) {
	fixture := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	fixture := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, req)
	if recorder.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id must be generated")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "client-id-1")
	recorder = httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, req)
	if recorder.Header().Get("X-Request-Id") != "client-id-1" {
		t.Fatalf("client request id must be echoed")
	}
}

func TestRateLimitExceeded(t *testing.T) {
	fixture := &routerFixture{
		recommender: &recommenderFake{response: &domain.RecommendationResponse{Answer: "ok"}},
		transcriber: &transcriberFake{},
		queue:       &queueFake{},
	}
	fixture.handler = NewRouter(
		fixture.recommender,
		fixture.transcriber,
		fixture.queue,
		metrics.NewPipelineMetrics("test"),
		RouterConfig{Service: "test", MediaDir: t.TempDir(), RateLimitRPS: 1, RateLimitBurst: 1},
	).Handler()

	first := httptest.NewRecorder()
	fixture.handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	fixture.handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("429 must carry Retry-After")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	fixture := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}
