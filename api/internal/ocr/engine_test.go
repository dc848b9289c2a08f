package ocr

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Extract(ctx context.Context, image []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

type memCache struct {
	rows      map[string]string
	upsertErr error
}

func (m *memCache) Find(ctx context.Context, hash, engine string, maxAge time.Duration) (string, error) {
	if v, ok := m.rows[hash+"/"+engine]; ok {
		return v, nil
	}
	return "", sql.ErrNoRows
}

func (m *memCache) Upsert(ctx context.Context, hash, engine, text string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.rows[hash+"/"+engine] = text
	return nil
}

func TestEnginesGetEngine(t *testing.T) {
	tess := &stubEngine{name: "tesseract"}
	gem := &stubEngine{name: "gemini"}
	engs := NewEngines("Tesseract", tess, gem, nil)

	got, err := engs.Default()
	require.NoError(t, err)
	assert.Same(t, tess, got)

	got, err = engs.GetEngine(" GEMINI ")
	require.NoError(t, err)
	assert.Same(t, gem, got)

	_, err = engs.GetEngine("yandex")
	assert.ErrorContains(t, err, "gemini, tesseract")
}

func TestCachedReadsThrough(t *testing.T) {
	eng := &stubEngine{name: "tesseract", text: "hello"}
	cache := &memCache{rows: map[string]string{}}
	c := NewCached(eng, cache, time.Hour, nil)

	for i := 0; i < 3; i++ {
		text, err := c.Extract(context.Background(), []byte("img"))
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	}
	assert.Equal(t, 1, eng.calls)
	assert.Equal(t, "tesseract", c.Name())
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	eng := &stubEngine{name: "tesseract", err: errors.New("boom")}
	cache := &memCache{rows: map[string]string{}}
	c := NewCached(eng, cache, 0, nil)

	_, err := c.Extract(context.Background(), []byte("img"))
	assert.EqualError(t, err, "boom")
	assert.Empty(t, cache.rows)
}

func TestCachedIgnoresUpsertError(t *testing.T) {
	eng := &stubEngine{name: "tesseract", text: "ok"}
	c := NewCached(eng, &memCache{rows: map[string]string{}, upsertErr: errors.New("db down")}, 0, nil)

	text, err := c.Extract(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}
