package openai

import (
	"context"
	"sort"

	"github.com/acretu/smart-librarian/internal/core/domain"
)

type Moderation struct {
	client *Client
}

func NewModeration(client *Client) *Moderation {
	return &Moderation{client: client}
}

// Check classifies a raw user utterance. Callers treat any error as
// "moderation unavailable" and fail closed; this adapter only reports.
func (m *Moderation) Check(ctx context.Context, text string) (domain.ModerationVerdict, error) {
	request := map[string]any{
		"model": m.client.moderationModel,
		"input": text,
	}

	var response struct {
		Results []struct {
			Flagged    bool            `json:"flagged"`
			Categories map[string]bool `json:"categories"`
		} `json:"results"`
	}
	if err := m.client.postJSON(ctx, "/v1/moderations", request, &response, "moderation"); err != nil {
		return domain.ModerationVerdict{}, err
	}
	if len(response.Results) == 0 {
		// No verdict is no clearance.
		return domain.ModerationVerdict{Allowed: false}, nil
	}

	result := response.Results[0]
	verdict := domain.ModerationVerdict{Allowed: !result.Flagged}
	for category, hit := range result.Categories {
		if hit {
			verdict.Categories = append(verdict.Categories, category)
		}
	}
	sort.Strings(verdict.Categories)
	return verdict, nil
}
