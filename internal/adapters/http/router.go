package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/acretu/smart-librarian/internal/core/domain"
	"github.com/acretu/smart-librarian/internal/core/ports"
	"github.com/acretu/smart-librarian/internal/core/usecase"
	"github.com/acretu/smart-librarian/internal/observability/metrics"
)

const maxUploadBytes = 25 << 20

type Router struct {
	recommender ports.Recommender
	transcriber ports.Transcriber
	queue       ports.MediaQueue
	metrics     *metrics.PipelineMetrics
	service     string
	mediaDir    string
	limiter     *trafficLimiter
}

type RouterConfig struct {
	Service        string
	MediaDir       string
	RateLimitRPS   int
	RateLimitBurst int
}

func NewRouter(
	recommender ports.Recommender,
	transcriber ports.Transcriber,
	queue ports.MediaQueue,
	pipelineMetrics *metrics.PipelineMetrics,
	cfg RouterConfig,
) *Router {
	return &Router{
		recommender: recommender,
		transcriber: transcriber,
		queue:       queue,
		metrics:     pipelineMetrics,
		service:     cfg.Service,
		mediaDir:    cfg.MediaDir,
		limiter:     newTrafficLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/recommend", rt.recommend)
	mux.HandleFunc("/v1/transcribe", rt.transcribe)
	mux.HandleFunc("/v1/media/speech", rt.enqueueSpeech)
	mux.HandleFunc("/v1/media/image", rt.enqueueImage)
	mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(rt.mediaDir))))
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rt.limiter.middleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	response, err := rt.recommender.Recommend(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) transcribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.transcriber == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "transcription is not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	text, err := rt.transcriber.Transcribe(r.Context(), file, fileHeader.Filename, r.FormValue("language"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (rt *Router) enqueueSpeech(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Text      string `json:"text"`
		BookTitle string `json:"book_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	base := req.BookTitle
	if strings.TrimSpace(base) == "" {
		base = "answer"
	}
	job := domain.MediaJob{
		Kind:     domain.MediaKindSpeech,
		Title:    req.BookTitle,
		Text:     req.Text,
		FileName: usecase.MediaFileName(base, "mp3"),
	}
	rt.enqueue(w, r, job, "audio_file")
}

func (rt *Router) enqueueImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	job := domain.MediaJob{
		Kind:     domain.MediaKindImage,
		Title:    req.Title,
		Summary:  req.Summary,
		FileName: usecase.MediaFileName(req.Title, "png"),
	}
	rt.enqueue(w, r, job, "image_file")
}

func (rt *Router) enqueue(w http.ResponseWriter, r *http.Request, job domain.MediaJob, fileField string) {
	if rt.queue == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "media generation is not configured"})
		return
	}
	if err := rt.queue.PublishMediaJob(r.Context(), job); err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordMediaJob(rt.service, job.Kind, "enqueue_failed")
		}
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordMediaJob(rt.service, job.Kind, "enqueued")
	}
	writeJSON(w, http.StatusAccepted, map[string]string{fileField: "/media/" + job.FileName})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
