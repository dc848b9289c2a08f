package pdf

import (
	"bytes"
	"errors"
	"io"
	"testing"

	readpdf "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	got := Lines("Invoice 42\r\n\n   \nTotal: 10\n\t\nThanks")
	assert.Equal(t, []string{"Invoice 42", "Total: 10", "Thanks"}, got)
	assert.Empty(t, Lines(" \n\n"))
}

func TestRenderReadsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render([]string{"Hello", "World"}, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	r, err := readpdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())

	plain, err := r.GetPlainText()
	require.NoError(t, err)
	text, err := io.ReadAll(plain)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Hello")
	assert.Contains(t, string(text), "World")
}

func TestRenderEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(nil, &buf))

	r, err := readpdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderWriteError(t *testing.T) {
	err := Render([]string{"x"}, failingWriter{})
	assert.ErrorContains(t, err, "disk full")
}
