package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// OCRRepo caches extracted text by (image_hash, engine).
type OCRRepo struct{ DB *sql.DB }

func NewOCRRepo(db *sql.DB) *OCRRepo { return &OCRRepo{DB: db} }

// Find returns the cached text. If maxAge > 0 and the row is older, it
// returns ErrNotFound so the caller runs OCR again.
func (r *OCRRepo) Find(ctx context.Context, imageHash, engine string, maxAge time.Duration) (string, error) {
	const q = `select text, created_at from ocr_cache where image_hash = $1 and engine = $2`
	var (
		text string
		ts   time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, imageHash, engine).Scan(&text, &ts); err != nil {
		return "", err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return "", ErrNotFound
	}
	return text, nil
}

func (r *OCRRepo) Upsert(ctx context.Context, imageHash, engine, text string) error {
	const q = `
insert into ocr_cache (image_hash, engine, text)
values ($1, $2, $3)
on conflict (image_hash, engine)
do update set text = excluded.text, created_at = now()`
	_, err := r.DB.ExecContext(ctx, q, imageHash, engine, text)
	return err
}

// PurgeOlderThan deletes cache rows older than olderThan.
func (r *OCRRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from ocr_cache where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
