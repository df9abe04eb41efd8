package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/acretu/smart-librarian/internal/core/domain"
	"github.com/acretu/smart-librarian/internal/core/ports"
)

// MediaUseCase produces best-effort media add-ons for an already issued
// recommendation. Failures stay inside the job; they never roll back or
// invalidate the recommendation they decorate.
type MediaUseCase struct {
	images  ports.ImageGenerator
	speech  ports.SpeechSynthesizer
	storage ports.MediaStorage
}

func NewMediaUseCase(images ports.ImageGenerator, speech ports.SpeechSynthesizer, storage ports.MediaStorage) *MediaUseCase {
	return &MediaUseCase{
		images:  images,
		speech:  speech,
		storage: storage,
	}
}

func (uc *MediaUseCase) ProcessJob(ctx context.Context, job domain.MediaJob) error {
	if job.FileName == "" {
		return domain.WrapError(domain.ErrInvalidInput, "media job", fmt.Errorf("file name is required"))
	}

	switch job.Kind {
	case domain.MediaKindImage:
		data, err := uc.images.Generate(ctx, BuildImagePrompt(job.Title, job.Summary))
		if err != nil {
			return fmt.Errorf("generate image: %w", err)
		}
		if err := uc.storage.Save(ctx, job.FileName, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("store image: %w", err)
		}
		return nil
	case domain.MediaKindSpeech:
		data, err := uc.speech.Synthesize(ctx, job.Text)
		if err != nil {
			return fmt.Errorf("synthesize speech: %w", err)
		}
		if err := uc.storage.Save(ctx, job.FileName, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("store speech: %w", err)
		}
		return nil
	default:
		return domain.WrapError(domain.ErrInvalidInput, "media job", fmt.Errorf("unsupported kind: %s", job.Kind))
	}
}

// BuildImagePrompt turns a title and synopsis into a cover-style image
// prompt.
func BuildImagePrompt(title, summary string) string {
	return fmt.Sprintf(
		"An illustrative image for the book %q. Key themes and elements: %s "+
			"Clear, expressive composition suited to a modern book cover. No text in the image.",
		title, strings.TrimSpace(summary),
	)
}

// MediaFileName derives a stable, filesystem-safe file name for a
// media job from a book title or fallback base name.
func MediaFileName(base, extension string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(base) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(unicode.ToLower(r))
		case r == ' ' || r == '/' || r == '\\' || r == '-' || r == '_':
			sb.WriteRune('_')
		}
	}
	name := strings.Trim(sb.String(), "_")
	if name == "" {
		name = "recommendation"
	}
	return name + "." + strings.TrimPrefix(extension, ".")
}
