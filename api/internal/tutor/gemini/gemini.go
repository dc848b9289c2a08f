package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"

	gem "study-assist/api/internal/gemini"
	"study-assist/api/internal/tutor"
)

type Engine struct {
	client *gem.Client
}

func New(apiKey, model string) *Engine {
	return &Engine{client: gem.New(apiKey, model)}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.client.GetModel() }

func (e *Engine) Reply(ctx context.Context, message string) (string, error) {
	txt, err := e.client.Generate(ctx, tutor.SystemPrompt, genai.Text(message))
	if err != nil {
		return "", err
	}
	txt = strings.TrimSpace(txt)
	if txt == "" {
		return "", errors.New("gemini chat: empty response")
	}
	return txt, nil
}
