package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestFirstText(t *testing.T) {
	assert.Equal(t, "", FirstText(nil))
	assert.Equal(t, "", FirstText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{
				&genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text("first"),
				genai.Text("second"),
			}}},
		},
	}
	assert.Equal(t, "first", FirstText(resp))
}

func TestGenerateWithoutKey(t *testing.T) {
	_, err := New("  ", "gemini-2.5-flash").Generate(context.Background(), "sys", genai.Text("hi"))
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

type countingModel struct {
	calls int
	err   error
}

func (m *countingModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("ok")}}},
	}}, nil
}

func TestGenerateCallsModelOnce(t *testing.T) {
	boom := errors.New("503 unavailable")
	m := &countingModel{err: boom}
	_, err := generate(context.Background(), m, []genai.Part{genai.Text("hi")})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.calls)

	m = &countingModel{}
	text, err := generate(context.Background(), m, []genai.Part{genai.Text("hi")})
	assert.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, m.calls)
}
