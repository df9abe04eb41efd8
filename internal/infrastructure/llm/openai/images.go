package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

type ImageGenerator struct {
	client *Client
}

func NewImageGenerator(client *Client) *ImageGenerator {
	return &ImageGenerator{client: client}
}

// Generate renders a prompt as PNG bytes via the b64 payload.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("image generation needs a non-empty prompt")
	}

	request := map[string]any{
		"model":  g.client.imageModel,
		"prompt": prompt,
		"size":   g.client.imageSize,
	}

	var response struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := g.client.postJSON(ctx, "/v1/images/generations", request, &response, "image"); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image: response contains no payload")
	}

	raw, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("image: decode b64 payload: %w", err)
	}
	return raw, nil
}
