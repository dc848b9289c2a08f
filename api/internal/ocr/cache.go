package ocr

import (
	"context"
	"time"

	"go.uber.org/zap"

	"study-assist/api/internal/util"
)

// Cache stores extracted text by image hash and engine name. Find returns a
// non-nil error on a miss.
type Cache interface {
	Find(ctx context.Context, imageHash, engine string, maxAge time.Duration) (string, error)
	Upsert(ctx context.Context, imageHash, engine, text string) error
}

// Cached wraps an Engine with a read-through cache. Cache failures never fail
// the extraction.
type Cached struct {
	Engine
	cache  Cache
	maxAge time.Duration
	log    *zap.Logger
}

func NewCached(eng Engine, cache Cache, maxAge time.Duration, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{Engine: eng, cache: cache, maxAge: maxAge, log: log}
}

func (c *Cached) Extract(ctx context.Context, image []byte) (string, error) {
	hash := util.SHA256Hex(image)
	name := c.Engine.Name()

	if text, err := c.cache.Find(ctx, hash, name, c.maxAge); err == nil {
		c.log.Debug("ocr cache hit", zap.String("engine", name), zap.String("hash", hash))
		return text, nil
	}

	text, err := c.Engine.Extract(ctx, image)
	if err != nil {
		return "", err
	}
	if err := c.cache.Upsert(ctx, hash, name, text); err != nil {
		c.log.Warn("ocr cache upsert failed", zap.String("engine", name), zap.Error(err))
	}
	return text, nil
}
