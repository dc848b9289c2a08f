package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"

	gem "study-assist/api/internal/gemini"
	"study-assist/api/internal/util"
)

const system = `You are an OCR engine. Transcribe every piece of text visible in the image verbatim,
line by line, preserving line breaks, numbering and punctuation.
Do not translate, summarise, correct or comment. Output only the transcribed text.
If the image contains no text, output nothing.`

type Engine struct {
	client *gem.Client
}

func New(apiKey, model string) *Engine {
	return &Engine{client: gem.New(apiKey, model)}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.client.GetModel() }

func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	txt, err := e.client.Generate(ctx, system,
		genai.Text("Transcribe the text in this image."),
		&genai.Blob{MIMEType: util.SniffMimeHTTP(image), Data: image},
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(util.StripCodeFences(txt)), nil
}
