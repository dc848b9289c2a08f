package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Engine runs libtesseract through gosseract. A fresh client is created per
// call; gosseract clients are not safe for concurrent use.
type Engine struct {
	Languages      []string
	TessdataPrefix string

	clientFactory func() *gosseract.Client
}

func New(tessdataPrefix string, languages ...string) *Engine {
	return &Engine{
		Languages:      append([]string(nil), languages...),
		TessdataPrefix: tessdataPrefix,
		clientFactory:  gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return "", fmt.Errorf("tesseract: set tessdata prefix: %w", err)
		}
	}
	if len(e.Languages) > 0 {
		if err := c.SetLanguage(e.Languages...); err != nil {
			return "", fmt.Errorf("tesseract: set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract: set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: recognize: %w", err)
	}
	return text, nil
}
