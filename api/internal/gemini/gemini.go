// Package gemini is the shared Gemini client used by the OCR, speech and tutor engines.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrNoAPIKey = errors.New("GEMINI_API_KEY is empty")

type Client struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Client {
	return &Client{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (c *Client) GetModel() string { return c.Model }

// Generate sends system + parts to the model and returns the first text part
// of the answer. A failed call is reported as is, without retrying.
func (c *Client) Generate(ctx context.Context, system string, parts ...genai.Part) (string, error) {
	if c.APIKey == "" {
		return "", ErrNoAPIKey
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini: client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(c.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	return generate(ctx, m, parts)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

func generate(ctx context.Context, g contentGenerator, parts []genai.Part) (string, error) {
	resp, err := g.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return FirstText(resp), nil
}

// FirstText returns the first text part across candidates, or "".
func FirstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
