package corpus

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// EmbeddingCache persists corpus embeddings keyed by embedding model
// and content hash, so restarts only re-embed records whose text or
// model changed. It holds derived data only and can be deleted at any
// time.
type EmbeddingCache struct {
	db *sql.DB
}

func OpenEmbeddingCache(path string) (*EmbeddingCache, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create embedding cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return NewEmbeddingCache(db), nil
}

func NewEmbeddingCache(db *sql.DB) *EmbeddingCache {
	return &EmbeddingCache{db: db}
}

func (c *EmbeddingCache) EnsureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS embeddings (
	model        TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	dim          INTEGER NOT NULL,
	vector       BLOB NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	PRIMARY KEY (model, content_hash)
)`)
	if err != nil {
		return fmt.Errorf("ensure embeddings schema: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) Get(ctx context.Context, model, contentHash string) ([]float32, bool, error) {
	var (
		dim  int
		blob []byte
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT dim, vector FROM embeddings WHERE model = ? AND content_hash = ?`,
		model, contentHash,
	).Scan(&dim, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query embedding: %w", err)
	}

	vector, err := decodeVector(blob, dim)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached embedding: %w", err)
	}
	return vector, true, nil
}

func (c *EmbeddingCache) Put(ctx context.Context, model, contentHash string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("refusing to cache empty embedding")
	}
	blob, err := encodeVector(vector)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (model, content_hash, dim, vector, created_at) VALUES (?, ?, ?, ?, ?)`,
		model, contentHash, len(vector), blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

// ContentHash keys a record's embedding by its exact document text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func encodeVector(vector []float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, vector); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeVector(blob []byte, dim int) ([]float32, error) {
	if dim <= 0 || len(blob) != dim*4 {
		return nil, fmt.Errorf("vector blob has %d bytes for dim %d", len(blob), dim)
	}
	vector := make([]float32, dim)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vector); err != nil {
		return nil, err
	}
	return vector, nil
}
