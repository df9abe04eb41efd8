package openai

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type Transcriber struct {
	client *Client
}

func NewTranscriber(client *Client) *Transcriber {
	return &Transcriber{client: client}
}

// Transcribe converts recorded audio to text. The language hint is
// optional; empty means autodetect.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	fields := map[string]string{
		"model":    t.client.transcribeModel,
		"language": strings.TrimSpace(language),
	}

	var response struct {
		Text string `json:"text"`
	}
	if err := t.client.postMultipart(ctx, "/v1/audio/transcriptions", fields, "file", filename, audio, &response, "transcribe"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Text), nil
}

type SpeechSynthesizer struct {
	client *Client
}

func NewSpeechSynthesizer(client *Client) *SpeechSynthesizer {
	return &SpeechSynthesizer{client: client}
}

// Synthesize renders text as mp3 bytes.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("speech synthesis needs non-empty text")
	}

	request := map[string]any{
		"model":           s.client.speechModel,
		"voice":           s.client.speechVoice,
		"input":           text,
		"response_format": "mp3",
	}
	return s.client.postForBytes(ctx, "/v1/audio/speech", request, "speech")
}
