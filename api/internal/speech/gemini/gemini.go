package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	gem "study-assist/api/internal/gemini"
	"study-assist/api/internal/speech"
)

// unrecognized is the token the model is told to answer with for silence or noise.
const unrecognized = "[UNRECOGNIZED]"

const system = `You are a speech-to-text engine. Transcribe the spoken words in the audio verbatim,
in the language they are spoken. Output only the transcript, without timestamps, speaker labels or comments.
If the audio contains no intelligible speech, output exactly ` + unrecognized + `.`

type Engine struct {
	client *gem.Client
}

func New(apiKey, model string) *Engine {
	return &Engine{client: gem.New(apiKey, model)}
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio")
	}
	txt, err := e.client.Generate(ctx, system,
		genai.Text("Transcribe this recording."),
		&genai.Blob{MIMEType: mime, Data: audio},
	)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return interpret(txt)
}

// interpret maps a raw model answer to a transcript or ErrNotRecognized.
func interpret(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	t = strings.Trim(t, "`\"")
	t = strings.TrimSpace(t)
	if t == "" || strings.EqualFold(t, unrecognized) || strings.EqualFold(strings.Trim(t, "[]"), "unrecognized") {
		return "", speech.ErrNotRecognized
	}
	return t, nil
}
