package ports

import (
	"context"
	"io"

	"github.com/acretu/smart-librarian/internal/core/domain"
)

// Embedder builds vectors for corpus records and query text. Vectors
// for corpus and queries must come from the same embedding space.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ModerationClient classifies a raw user utterance before it reaches
// retrieval or any model call.
type ModerationClient interface {
	Check(ctx context.Context, text string) (domain.ModerationVerdict, error)
}

// ChatModel runs one tool-aware completion exchange.
type ChatModel interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, tools []domain.ToolDefinition) (domain.ChatTurn, error)
}

// CorpusIndex answers nearest-neighbour queries over the immutable
// corpus snapshot. Purely local, never blocks.
type CorpusIndex interface {
	Search(queryVector []float32, k int) []domain.Candidate
	Size() int
}

// SummaryCatalog is the exact-match title-to-synopsis dictionary. It is
// a grounding mechanism, not a second retrieval stage.
type SummaryCatalog interface {
	Lookup(title string) (string, bool)
	Titles() []string
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
}

// SpeechSynthesizer renders text as audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ImageGenerator renders a prompt as image bytes.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// MediaQueue hands media jobs to the worker.
type MediaQueue interface {
	PublishMediaJob(ctx context.Context, job domain.MediaJob) error
	SubscribeMediaJobs(ctx context.Context, handler func(context.Context, domain.MediaJob) error) error
}

// MediaStorage stores generated media files.
type MediaStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
