package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "UPLOAD_DIR", "KEEP_UPLOADS", "OCR_ENGINE", "OCR_LANGUAGES", "DATABASE_URL", "PGHOST", "FETCH_TIMEOUT", "APP_ENV", "MAX_UPLOAD_MB"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.True(t, cfg.KeepUploads)
	assert.Equal(t, "tesseract", cfg.OCREngine)
	assert.Equal(t, []string{"eng"}, cfg.OCRLanguages)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("KEEP_UPLOADS", "false")
	t.Setenv("OCR_ENGINE", "Gemini")
	t.Setenv("OCR_LANGUAGES", "eng+rus, deu")
	t.Setenv("OCR_CACHE_TTL", "1h")
	t.Setenv("DETECT_URL", "http://detector:9000/")
	t.Setenv("MAX_UPLOAD_MB", "nope")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.KeepUploads)
	assert.Equal(t, "gemini", cfg.OCREngine)
	assert.Equal(t, []string{"eng", "rus", "deu"}, cfg.OCRLanguages)
	assert.Equal(t, time.Hour, cfg.OCRCacheTTL)
	assert.Equal(t, "http://detector:9000", cfg.DetectURL)
	assert.Equal(t, int64(32), cfg.MaxUploadMB)
	assert.Equal(t, []string{`config: bad int MAX_UPLOAD_MB="nope", using 32`}, cfg.Warnings)
}

func TestTelegramToken(t *testing.T) {
	_, err := (&Config{}).TelegramToken()
	assert.ErrorIs(t, err, ErrNoTelegramToken)

	tok, err := (&Config{TelegramBotToken: "123:abc"}).TelegramToken()
	assert.NoError(t, err)
	assert.Equal(t, "123:abc", tok)
}

func TestResolveDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PGHOST", "db")
	t.Setenv("PGPORT", "")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "study")

	assert.Equal(t, "postgres://app:secret@db:5432/study?sslmode=disable", resolveDSN())

	t.Setenv("DATABASE_URL", "postgres://x@y/z")
	assert.Equal(t, "postgres://x@y/z", resolveDSN())
}
