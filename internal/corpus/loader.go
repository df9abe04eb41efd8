package corpus

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Book is one entry of the corpus file. Title is the unique key used by
// retrieval, the selector tool and the summary catalog.
type Book struct {
	Title   string   `yaml:"title"`
	Themes  []string `yaml:"themes"`
	Summary string   `yaml:"summary"`
}

type corpusFile struct {
	Books []Book `yaml:"books"`
}

// LoadBooks reads and validates the corpus file. Titles must be unique
// and non-empty; duplicates would break exact-match grounding.
func LoadBooks(path string) ([]Book, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var file corpusFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse corpus file: %w", err)
	}
	if len(file.Books) == 0 {
		return nil, fmt.Errorf("corpus file %s contains no books", path)
	}

	seen := make(map[string]struct{}, len(file.Books))
	for i := range file.Books {
		file.Books[i].Title = strings.TrimSpace(file.Books[i].Title)
		file.Books[i].Summary = strings.TrimSpace(file.Books[i].Summary)

		title := file.Books[i].Title
		if title == "" {
			return nil, fmt.Errorf("book %d has an empty title", i)
		}
		if _, dup := seen[title]; dup {
			return nil, fmt.Errorf("duplicate book title: %s", title)
		}
		seen[title] = struct{}{}

		if file.Books[i].Summary == "" {
			return nil, fmt.Errorf("book %q has an empty summary", title)
		}
	}
	return file.Books, nil
}

// EmbeddingText is the document representation fed to the embedding
// model, for both corpus build and (shape-wise) query embedding.
func (b Book) EmbeddingText() string {
	var sb strings.Builder
	sb.WriteString(b.Title)
	if len(b.Themes) > 0 {
		sb.WriteString("\nThemes: ")
		sb.WriteString(strings.Join(b.Themes, ", "))
	}
	sb.WriteString("\n")
	sb.WriteString(b.Summary)
	return sb.String()
}
