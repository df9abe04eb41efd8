package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	OpenAIBaseURL   string
	OpenAIAPIKey    string
	ChatModel       string
	EmbedModel      string
	ModerationModel string
	SpeechModel     string
	SpeechVoice     string
	TranscribeModel string
	ImageModel      string
	ImageSize       string

	CorpusPath  string
	CacheDBPath string
	MediaDir    string

	NATSURL     string
	NATSSubject string

	RetrievalTopK         int
	SelectorMaxToolRounds int

	ModerationTimeoutSeconds int
	RetrievalTimeoutSeconds  int
	SelectionTimeoutSeconds  int

	RateLimitRPS   int
	RateLimitBurst int

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		OpenAIBaseURL:   mustEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:    mustEnv("OPENAI_API_KEY", ""),
		ChatModel:       mustEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbedModel:      mustEnv("EMBED_MODEL", "text-embedding-3-small"),
		ModerationModel: mustEnv("MODERATION_MODEL", "omni-moderation-latest"),
		SpeechModel:     mustEnv("SPEECH_MODEL", "gpt-4o-mini-tts"),
		SpeechVoice:     mustEnv("SPEECH_VOICE", "alloy"),
		TranscribeModel: mustEnv("TRANSCRIBE_MODEL", "whisper-1"),
		ImageModel:      mustEnv("IMAGE_MODEL", "gpt-image-1"),
		ImageSize:       mustEnv("IMAGE_SIZE", "1024x1024"),

		CorpusPath:  mustEnv("CORPUS_PATH", "./books.yaml"),
		CacheDBPath: mustEnv("CACHE_DB_PATH", "./data/embeddings.db"),
		MediaDir:    mustEnv("MEDIA_DIR", "./data/media"),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "media.generate"),

		RetrievalTopK:         mustEnvInt("RETRIEVAL_TOP_K", 5),
		SelectorMaxToolRounds: mustEnvInt("SELECTOR_MAX_TOOL_ROUNDS", 3),

		ModerationTimeoutSeconds: mustEnvInt("MODERATION_TIMEOUT_SECONDS", 10),
		RetrievalTimeoutSeconds:  mustEnvInt("RETRIEVAL_TIMEOUT_SECONDS", 15),
		SelectionTimeoutSeconds:  mustEnvInt("SELECTION_TIMEOUT_SECONDS", 90),

		RateLimitRPS:   mustEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst: mustEnvInt("RATE_LIMIT_BURST", 20),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
