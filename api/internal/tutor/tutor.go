package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SystemPrompt is the persona every tutor engine answers with.
const SystemPrompt = "You are a helpful student tutor."

var (
	ErrUnknownEngine = errors.New("unknown engine; use 'gpt' or 'gemini'")
	ErrNotConfigured = errors.New("engine is not configured")
)

type Engine interface {
	Name() string
	GetModel() string
	Reply(ctx context.Context, message string) (string, error)
}

type Engines struct {
	OpenAI  Engine
	Gemini  Engine
	Default string
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = e.Default
	}
	var eng Engine
	switch name {
	case "gpt", "openai":
		eng = e.OpenAI
	case "gemini":
		eng = e.Gemini
	default:
		return nil, ErrUnknownEngine
	}
	if eng == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	return eng, nil
}
