package domain

// BookRecord is one corpus entry. The corpus is loaded once at process
// start and is read-only for the process lifetime.
type BookRecord struct {
	Title       string    `json:"title"`
	Themes      []string  `json:"themes"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"-"`
}

// Candidate is a corpus title surfaced by retrieval, ordered by
// descending score with corpus insertion order as the tie-break.
type Candidate struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type ModerationVerdict struct {
	Allowed    bool     `json:"allowed"`
	Categories []string `json:"categories,omitempty"`
}

// Selection outcomes, carried for observability only. They never change
// the shape of the result the caller sees.
const (
	SelectionOutcomeChosen             = "chosen"
	SelectionOutcomeDeclined           = "declined"
	SelectionOutcomeNoCandidates       = "no_candidates"
	SelectionOutcomeGroundingViolation = "grounding_violation"
	SelectionOutcomeRoundsExceeded     = "tool_rounds_exceeded"
	SelectionOutcomeInvalidFinal       = "invalid_final"
)

// SelectionResult is produced once per request. ChosenTitle is empty
// only when the selector legitimately found no suitable match or when
// moderation rejected the input upstream.
type SelectionResult struct {
	ChosenTitle string `json:"chosen_title,omitempty"`
	Rationale   string `json:"rationale"`
	UsedTool    bool   `json:"used_tool"`
	Outcome     string `json:"-"`
}

// RecommendationResponse is the externally visible result. Summary is
// populated if and only if ChosenTitle is set and present in the
// summary catalog.
type RecommendationResponse struct {
	Answer      string `json:"answer"`
	ChosenTitle string `json:"chosen_title,omitempty"`
	Summary     string `json:"summary,omitempty"`
}
