package domain

// Media job kinds handled by the worker.
const (
	MediaKindImage  = "image"
	MediaKindSpeech = "speech"
)

// MediaJob is a best-effort request to produce an illustrative image or
// a spoken rendition of an answer. Jobs are decoupled from the
// recommendation pipeline: a failed job never invalidates an already
// issued recommendation.
type MediaJob struct {
	Kind     string `json:"kind"`
	Title    string `json:"title,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Text     string `json:"text,omitempty"`
	FileName string `json:"file_name"`
}
