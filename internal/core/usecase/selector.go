package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/acretu/smart-librarian/internal/core/domain"
	"github.com/acretu/smart-librarian/internal/core/ports"
)

const toolNameSummaryLookup = "get_summary_by_title"

const declineRationale = "None of the books in the library is a good match for this request."

var summaryLookupTool = domain.ToolDefinition{
	Name:        toolNameSummaryLookup,
	Description: "Return the full summary for an exact book title from the library.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "description": "Exact book title, e.g. 'The Hobbit'."}
		},
		"required": ["title"],
		"additionalProperties": false
	}`),
}

type SelectorLimits struct {
	// MaxToolRounds bounds the tool-call loop; once exhausted the model
	// gets exactly one tool-free call to produce a terminal answer.
	MaxToolRounds int
	RoundTimeout  time.Duration
}

// Selector asks the model to pick exactly one candidate title (or
// decline), offering the summary lookup as its only tool. The model is
// not trusted: its final choice is re-validated against the candidate
// set and the summary catalog before anything leaves this component.
type Selector struct {
	model     ports.ChatModel
	summaries ports.SummaryCatalog
	limits    SelectorLimits
}

func NewSelector(model ports.ChatModel, summaries ports.SummaryCatalog, limits SelectorLimits) *Selector {
	if limits.MaxToolRounds <= 0 {
		limits.MaxToolRounds = 3
	}
	if limits.RoundTimeout <= 0 {
		limits.RoundTimeout = 30 * time.Second
	}
	return &Selector{
		model:     model,
		summaries: summaries,
		limits:    limits,
	}
}

func (s *Selector) Select(ctx context.Context, query string, candidates []domain.Candidate) (domain.SelectionResult, error) {
	if len(candidates) == 0 {
		return domain.SelectionResult{
			Rationale: declineRationale,
			Outcome:   domain.SelectionOutcomeNoCandidates,
		}, nil
	}

	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildSelectorSystemPrompt(candidates)},
		{Role: domain.RoleUser, Content: query},
	}
	tools := []domain.ToolDefinition{summaryLookupTool}

	// Tool results are cached for the request lifetime; repeated
	// lookups on the same title are answered without another port call.
	toolCache := make(map[string]string, len(candidates))
	usedTool := false

	for round := 0; round < s.limits.MaxToolRounds; round++ {
		turn, err := s.complete(ctx, messages, tools)
		if err != nil {
			return domain.SelectionResult{}, domain.WrapError(domain.ErrSelectionFailed, "selector round", err)
		}
		if len(turn.ToolCalls) == 0 {
			return s.finalize(candidates, turn.Text, usedTool), nil
		}

		usedTool = true
		messages = append(messages, domain.ChatMessage{
			Role:      domain.RoleAssistant,
			Content:   turn.Text,
			ToolCalls: turn.ToolCalls,
		})
		for _, call := range turn.ToolCalls {
			messages = append(messages, domain.ChatMessage{
				Role:       domain.RoleTool,
				ToolCallID: call.ID,
				Content:    s.answerToolCall(call, toolCache),
			})
		}
	}

	// Rounds exhausted: force a terminal answer from what was gathered
	// instead of looping further.
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: "You have no lookup calls left. Produce the final JSON answer now from the information already gathered.",
	})
	turn, err := s.complete(ctx, messages, nil)
	if err != nil || len(turn.ToolCalls) > 0 || strings.TrimSpace(turn.Text) == "" {
		if err != nil {
			slog.Warn("selector_forced_terminal_failed", "error", err)
		}
		return domain.SelectionResult{
			Rationale: declineRationale,
			UsedTool:  usedTool,
			Outcome:   domain.SelectionOutcomeRoundsExceeded,
		}, nil
	}
	return s.finalize(candidates, turn.Text, usedTool), nil
}

func (s *Selector) complete(ctx context.Context, messages []domain.ChatMessage, tools []domain.ToolDefinition) (domain.ChatTurn, error) {
	roundCtx, cancel := context.WithTimeout(ctx, s.limits.RoundTimeout)
	defer cancel()
	return s.model.Complete(roundCtx, messages, tools)
}

// answerToolCall serves one summary lookup. A title outside the corpus
// answers with an explicit miss; the model must treat that as evidence
// the title is invalid.
func (s *Selector) answerToolCall(call domain.ToolCall, cache map[string]string) string {
	if call.Name != toolNameSummaryLookup {
		payload, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("unknown tool: %s", call.Name)})
		return string(payload)
	}

	var args struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || strings.TrimSpace(args.Title) == "" {
		payload, _ := json.Marshal(map[string]string{"error": "tool arguments must be {\"title\": \"...\"}"})
		return string(payload)
	}

	title := strings.TrimSpace(args.Title)
	if cached, ok := cache[title]; ok {
		return cached
	}

	var payload []byte
	if summary, ok := s.summaries.Lookup(title); ok {
		payload, _ = json.Marshal(map[string]string{"title": title, "summary": summary})
	} else {
		payload, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("no book with the exact title %q", title)})
	}
	cache[title] = string(payload)
	return string(payload)
}

// finalize parses the model's terminal answer and enforces grounding:
// a chosen title must be an exact member of the candidate set and a key
// in the summary catalog, otherwise the result degrades to a safe
// no-match answer.
func (s *Selector) finalize(candidates []domain.Candidate, text string, usedTool bool) domain.SelectionResult {
	var final struct {
		ChosenTitle string `json:"chosen_title"`
		Answer      string `json:"answer"`
	}
	raw := extractJSONObject(text)
	if err := json.Unmarshal([]byte(raw), &final); err != nil {
		rationale := strings.TrimSpace(text)
		if rationale == "" {
			rationale = declineRationale
		}
		return domain.SelectionResult{
			Rationale: rationale,
			UsedTool:  usedTool,
			Outcome:   domain.SelectionOutcomeInvalidFinal,
		}
	}

	rationale := strings.TrimSpace(final.Answer)
	if rationale == "" {
		rationale = declineRationale
	}

	chosen := strings.TrimSpace(final.ChosenTitle)
	if chosen == "" {
		return domain.SelectionResult{
			Rationale: rationale,
			UsedTool:  usedTool,
			Outcome:   domain.SelectionOutcomeDeclined,
		}
	}

	inCandidates := false
	for _, candidate := range candidates {
		if candidate.Title == chosen {
			inCandidates = true
			break
		}
	}
	_, inCatalog := s.summaries.Lookup(chosen)
	if !inCandidates || !inCatalog {
		slog.Warn("selector_grounding_violation", "chosen_title", chosen)
		return domain.SelectionResult{
			Rationale: declineRationale,
			UsedTool:  usedTool,
			Outcome:   domain.SelectionOutcomeGroundingViolation,
		}
	}

	return domain.SelectionResult{
		ChosenTitle: chosen,
		Rationale:   rationale,
		UsedTool:    usedTool,
		Outcome:     domain.SelectionOutcomeChosen,
	}
}

func buildSelectorSystemPrompt(candidates []domain.Candidate) string {
	lines := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		lines = append(lines, fmt.Sprintf("- %s", candidate.Title))
	}

	return fmt.Sprintf(`You are a literary assistant recommending exactly one book.
Answer in the same language as the user's request.
You may only choose from these candidate titles, copied exactly:
%s

You may call %s to read the full summary of a candidate before deciding.
When done, return ONLY a JSON object:
{"chosen_title":"<exact candidate title>","answer":"<2-4 sentence recommendation>"}
If no candidate fits, return {"chosen_title":null,"answer":"<short explanation>"}.
Never invent a title that is not in the candidate list.`, strings.Join(lines, "\n"), toolNameSummaryLookup)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
