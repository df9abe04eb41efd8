package openai

import (
	"net/http"
	"strings"
	"time"

	"github.com/acretu/smart-librarian/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible API. Concern-specific adapters
// (embedder, moderation, chat, audio, images) share one client so the
// transport, auth and retry policy live in a single place.
type Client struct {
	baseURL         string
	apiKey          string
	chatModel       string
	embedModel      string
	moderationModel string
	speechModel     string
	speechVoice     string
	transcribeModel string
	imageModel      string
	imageSize       string

	httpClient *http.Client
	executor   *resilience.Executor
}

type Config struct {
	BaseURL         string
	APIKey          string
	ChatModel       string
	EmbedModel      string
	ModerationModel string
	SpeechModel     string
	SpeechVoice     string
	TranscribeModel string
	ImageModel      string
	ImageSize       string

	RequestTimeout time.Duration
	Executor       *resilience.Executor
}

func New(cfg Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		chatModel:       cfg.ChatModel,
		embedModel:      cfg.EmbedModel,
		moderationModel: cfg.ModerationModel,
		speechModel:     cfg.SpeechModel,
		speechVoice:     cfg.SpeechVoice,
		transcribeModel: cfg.TranscribeModel,
		imageModel:      cfg.ImageModel,
		imageSize:       cfg.ImageSize,
		httpClient:      &http.Client{Timeout: timeout},
		executor:        cfg.Executor,
	}
}
