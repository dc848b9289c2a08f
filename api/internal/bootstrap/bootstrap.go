// Package bootstrap builds the capabilities shared by the server and the bot
// from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"study-assist/api/internal/config"
	"study-assist/api/internal/detect/inference"
	"study-assist/api/internal/imaging"
	"study-assist/api/internal/ocr"
	ocrgemini "study-assist/api/internal/ocr/gemini"
	ocropenai "study-assist/api/internal/ocr/openai"
	"study-assist/api/internal/ocr/tesseract"
	"study-assist/api/internal/ocr/yandex"
	"study-assist/api/internal/service"
	speechgemini "study-assist/api/internal/speech/gemini"
	"study-assist/api/internal/store"
	"study-assist/api/internal/tutor"
	tutorgemini "study-assist/api/internal/tutor/gemini"
	"study-assist/api/internal/tutor/openai"
)

type App struct {
	Assistant *service.Assistant
	DB        *sql.DB
}

func (a *App) Ping(ctx context.Context) error { return a.DB.PingContext(ctx) }

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// Build wires every capability. Missing optional dependencies (database,
// detector, Gemini key) are logged and left out; only an unusable OCR engine
// is fatal.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{}

	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("db connected", zap.String("dsn", store.SafeDSNSummary(cfg.DatabaseURL)))
		app.DB = db
	} else {
		log.Warn("database not configured; chat history and ocr cache disabled")
	}

	engines := []ocr.Engine{tesseract.New(cfg.TessdataPrefix, cfg.OCRLanguages...)}
	if cfg.GeminiAPIKey != "" {
		engines = append(engines, ocrgemini.New(cfg.GeminiAPIKey, cfg.GeminiModel))
	}
	if cfg.OpenAIAPIKey != "" {
		engines = append(engines, ocropenai.New(cfg.OpenAIAPIKey, cfg.OpenAIVisionModel))
	}
	if cfg.YCOAuthToken != "" && cfg.YCFolderID != "" {
		engines = append(engines, yandex.New(cfg.YCOAuthToken, cfg.YCFolderID, cfg.OCRLanguages...))
	}
	eng, err := ocr.NewEngines(cfg.OCREngine, engines...).Default()
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("ocr: %w", err)
	}
	if app.DB != nil && cfg.OCRCacheTTL > 0 {
		repo := store.NewOCRRepo(app.DB)
		eng = ocr.NewCached(eng, repo, cfg.OCRCacheTTL, log)
		go purgeOCRCache(ctx, repo, cfg.OCRCacheTTL, log)
	}

	as := &service.Assistant{
		OCR:     eng,
		Fetcher: imaging.NewFetcher(cfg.FetchTimeout, cfg.MaxUploadBytes()),
		Tutors:  &tutor.Engines{Default: cfg.TutorEngine},
		Log:     log,
	}

	det := inference.New(cfg.DetectURL, cfg.DetectModel, 60*time.Second)
	lctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := det.Load(lctx); err != nil {
		log.Error("detection model not loaded", zap.String("url", cfg.DetectURL), zap.Error(err))
	} else {
		log.Info("detection model loaded", zap.String("model", det.Model()))
		as.Detector = det
	}
	cancel()

	if cfg.OpenAIAPIKey != "" {
		as.Tutors.OpenAI = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	if cfg.GeminiAPIKey != "" {
		as.Speech = speechgemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
		as.Tutors.Gemini = tutorgemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		log.Warn("GEMINI_API_KEY not set; transcription disabled")
	}
	if app.DB != nil {
		as.Chats = store.NewChatRepo(app.DB)
	}

	log.Info("capabilities ready",
		zap.String("ocr", eng.Name()),
		zap.Bool("detect", as.DetectorReady()),
		zap.Bool("speech", as.Speech != nil),
		zap.String("tutor", cfg.TutorEngine),
	)
	app.Assistant = as
	return app, nil
}

func purgeOCRCache(ctx context.Context, repo *store.OCRRepo, ttl time.Duration, log *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeOlderThan(ctx, ttl)
			if err != nil {
				log.Warn("ocr cache purge", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("ocr cache purged", zap.Int64("rows", n))
			}
		}
	}
}
