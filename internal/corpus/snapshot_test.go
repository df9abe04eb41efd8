package corpus

import (
	"context"
	"errors"
	"testing"
)

type snapshotEmbedderFake struct {
	vectors map[string][]float32
	calls   [][]string
	err     error
}

func (f *snapshotEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vector, ok := f.vectors[text]
		if !ok {
			vector = []float32{1, 0}
		}
		out[i] = vector
	}
	return out, nil
}

func testBooks() []Book {
	return []Book{
		{Title: "1984", Summary: "Winston."},
		{Title: "The Hobbit", Summary: "Bilbo."},
		{Title: "Frankenstein", Summary: "Victor."},
	}
}

func TestBuildSnapshotWithoutCache(t *testing.T) {
	embedder := &snapshotEmbedderFake{}
	snapshot, err := BuildSnapshot(context.Background(), testBooks(), embedder, nil, "test-model")
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if snapshot.Size() != 3 {
		t.Fatalf("expected 3 records, got %d", snapshot.Size())
	}
	if len(embedder.calls) != 1 || len(embedder.calls[0]) != 3 {
		t.Fatalf("all records must be embedded in one batch, calls: %v", embedder.calls)
	}
}

func TestBuildSnapshotEmbedError(t *testing.T) {
	embedder := &snapshotEmbedderFake{err: errors.New("embed down")}
	if _, err := BuildSnapshot(context.Background(), testBooks(), embedder, nil, "m"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSnapshotSearchOrderingAndTieBreak(t *testing.T) {
	books := testBooks()
	embedder := &snapshotEmbedderFake{vectors: map[string][]float32{
		books[0].EmbeddingText(): {1, 0},
		books[1].EmbeddingText(): {0, 1},
		books[2].EmbeddingText(): {0, 1},
	}}
	snapshot, err := BuildSnapshot(context.Background(), books, embedder, nil, "m")
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}

	results := snapshot.Search([]float32{0, 1}, 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// The Hobbit and Frankenstein score identically; insertion order
	// must decide their relative rank.
	if results[0].Title != "The Hobbit" || results[1].Title != "Frankenstein" {
		t.Fatalf("unexpected ordering: %+v", results)
	}
	if results[2].Title != "1984" {
		t.Fatalf("orthogonal record must rank last: %+v", results)
	}
}

func TestSnapshotSearchClampsK(t *testing.T) {
	snapshot, err := BuildSnapshot(context.Background(), testBooks(), &snapshotEmbedderFake{}, nil, "m")
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if got := len(snapshot.Search([]float32{1, 0}, 10)); got != 3 {
		t.Fatalf("k above corpus size must clamp, got %d results", got)
	}
	if snapshot.Search([]float32{1, 0}, 0) != nil {
		t.Fatalf("k below 1 must return nil")
	}
	if snapshot.Search(nil, 3) != nil {
		t.Fatalf("empty query vector must return nil")
	}
}

func TestSnapshotLookupAndTitles(t *testing.T) {
	snapshot, err := BuildSnapshot(context.Background(), testBooks(), &snapshotEmbedderFake{}, nil, "m")
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}

	summary, ok := snapshot.Lookup("1984")
	if !ok || summary != "Winston." {
		t.Fatalf("exact lookup failed: %q, %v", summary, ok)
	}
	if _, ok := snapshot.Lookup("1984 "); ok {
		t.Fatalf("lookup must be exact, no trimming")
	}

	titles := snapshot.Titles()
	if len(titles) != 3 || titles[0] != "1984" || titles[2] != "Frankenstein" {
		t.Fatalf("titles must keep insertion order: %v", titles)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors must score ~1, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors must score 0, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Fatalf("dimension mismatch must score 0, got %f", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("zero vector must score 0, got %f", got)
	}
}
