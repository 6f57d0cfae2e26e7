package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// timeLayout is fixed-width UTC so stored timestamps compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Blob is one cached value with the commit SHA it was built from.
type Blob struct {
	Key       string
	SHA       string
	Value     []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}

// BlobStats summarizes the store.
type BlobStats struct {
	Entries         int64 `json:"entries"`
	CompressedBytes int64 `json:"compressedBytes"`
	RawBytes        int64 `json:"rawBytes"`
}

// BlobStore is a TTL'd key/value store with zstd-compressed values.
// Writes are INSERT OR REPLACE, so concurrent writers converge on the last value.
type BlobStore struct {
	db  *DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// NewBlobStore wraps db.
func NewBlobStore(db *DB) (*BlobStore, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &BlobStore{db: db, enc: enc, dec: dec, now: time.Now}, nil
}

// Close releases the codec resources. The DB stays open.
func (s *BlobStore) Close() error {
	s.dec.Close()
	return s.enc.Close()
}

// Get returns the blob under key. Expired entries are deleted and reported as a miss.
func (s *BlobStore) Get(ctx context.Context, key string) (*Blob, bool, error) {
	var sha, expiresAt, createdAt string
	var compressed []byte

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT sha, value, expires_at, created_at
		FROM blobs
		WHERE key = ?
	`, key).Scan(&sha, &compressed, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("blob lookup failed: %w", err)
	}

	expiresAtTime, err := time.Parse(timeLayout, expiresAt)
	if err != nil {
		return nil, false, fmt.Errorf("invalid expires_at format: %w", err)
	}
	if !s.now().Before(expiresAtTime) {
		if _, err := s.db.conn.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", key); err != nil {
			return nil, false, fmt.Errorf("failed to delete expired blob: %w", err)
		}
		return nil, false, nil
	}

	value, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress blob %s: %w", key, err)
	}
	createdAtTime, _ := time.Parse(timeLayout, createdAt)

	return &Blob{
		Key:       key,
		SHA:       sha,
		Value:     value,
		ExpiresAt: expiresAtTime,
		CreatedAt: createdAtTime,
	}, true, nil
}

// Put stores value under key tagged with sha, replacing any previous entry.
func (s *BlobStore) Put(ctx context.Context, key, sha string, value []byte, ttl time.Duration) error {
	now := s.now().UTC()
	compressed := s.enc.EncodeAll(value, nil)

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO blobs (key, sha, value, raw_size, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key, sha, compressed, len(value),
		now.Add(ttl).Format(timeLayout),
		now.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

// Delete removes one key.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.conn.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix and returns the count.
func (s *BlobStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM blobs WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to delete prefix %s: %w", prefix, err)
	}
	return res.RowsAffected()
}

// CleanupExpired removes every expired entry and returns the count.
func (s *BlobStore) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx,
		"DELETE FROM blobs WHERE expires_at <= ?", s.now().UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up expired blobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns entry counts and sizes.
func (s *BlobStore) Stats(ctx context.Context) (BlobStats, error) {
	var st BlobStats
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(value)), 0), COALESCE(SUM(raw_size), 0)
		FROM blobs
	`).Scan(&st.Entries, &st.CompressedBytes, &st.RawBytes)
	if err != nil {
		return st, fmt.Errorf("failed to read blob stats: %w", err)
	}
	return st, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
