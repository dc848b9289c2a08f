package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSendsImageAsDataURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body struct {
			Model    string            `json:"model"`
			Messages []json.RawMessage `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Contains(t, string(body.Messages[1]), "data:image/png;base64,")
		}
		_, _ = w.Write([]byte("{\"choices\":[{\"message\":{\"content\":\"```\\nHello\\n```\"}}]}"))
	}))
	defer srv.Close()

	e := New("k", "gpt-4o-mini")
	e.BaseURL = srv.URL
	text, err := e.Extract(context.Background(), []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestExtractErrors(t *testing.T) {
	_, err := New("", "m").Extract(context.Background(), []byte("x"))
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("quota ", 3), http.StatusTooManyRequests)
	}))
	defer srv.Close()
	e := New("k", "m")
	e.BaseURL = srv.URL
	_, err = e.Extract(context.Background(), []byte("x"))
	assert.ErrorContains(t, err, "openai ocr 429")
}
