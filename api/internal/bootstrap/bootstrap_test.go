package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"study-assist/api/internal/config"
)

func baseConfig(detectURL string) *config.Config {
	return &config.Config{
		OCREngine:    "tesseract",
		OCRLanguages: []string{"eng"},
		FetchTimeout: time.Second,
		MaxUploadMB:  1,
		DetectURL:    detectURL,
		DetectModel:  "yolov8n.pt",
		TutorEngine:  "gpt",
	}
}

func TestBuildWithoutOptionalDeps(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	app, err := Build(context.Background(), baseConfig(down.URL), zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	as := app.Assistant
	assert.Equal(t, "tesseract", as.OCR.Name())
	assert.False(t, as.DetectorReady())
	assert.Nil(t, as.Speech)
	assert.Nil(t, as.Chats)
	assert.Nil(t, app.DB)
}

func TestBuildLoadsDetector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","model":"yolov8n.pt","names":{"0":"person"}}`))
	}))
	defer srv.Close()

	app, err := Build(context.Background(), baseConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)
	assert.True(t, app.Assistant.DetectorReady())
}

func TestBuildRejectsUnknownOCREngine(t *testing.T) {
	cfg := baseConfig("http://127.0.0.1:1")
	cfg.OCREngine = "gemini"

	_, err := Build(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown ocr engine")
}
