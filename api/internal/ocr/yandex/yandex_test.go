package yandex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloud struct {
	srv       *httptest.Server
	iamCalls  atomic.Int32
	ocrCalls  atomic.Int32
	rejectOne atomic.Bool
	last      request
	body      string
}

func newFakeCloud(t *testing.T, body string) *fakeCloud {
	t.Helper()
	fc := &fakeCloud{body: body}
	mux := http.NewServeMux()
	mux.HandleFunc("/iam", func(w http.ResponseWriter, r *http.Request) {
		fc.iamCalls.Add(1)
		_, _ = w.Write([]byte(`{"iamToken":"t-1"}`))
	})
	mux.HandleFunc("/ocr", func(w http.ResponseWriter, r *http.Request) {
		fc.ocrCalls.Add(1)
		assert.Equal(t, "Bearer t-1", r.Header.Get("Authorization"))
		assert.Equal(t, "folder", r.Header.Get("x-folder-id"))
		if fc.rejectOne.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&fc.last))
		_, _ = w.Write([]byte(fc.body))
	})
	fc.srv = httptest.NewServer(mux)
	t.Cleanup(fc.srv.Close)
	return fc
}

func (fc *fakeCloud) engine() *Engine {
	e := New("oauth", "folder", "eng", "rus")
	e.iamc.url = fc.srv.URL + "/iam"
	e.url = fc.srv.URL + "/ocr"
	return e
}

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0}

func TestExtractFullText(t *testing.T) {
	fc := newFakeCloud(t, `{"result":{"textAnnotation":{"fullText":" 2 + 2 = 4 \n"}}}`)
	text, err := fc.engine().Extract(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "2 + 2 = 4", text)
	assert.Equal(t, "PNG", fc.last.MimeType)
	assert.Equal(t, []string{"en", "ru"}, fc.last.LanguageCodes)
}

func TestExtractFallsBackToLines(t *testing.T) {
	fc := newFakeCloud(t, `{"result":{"textAnnotation":{"blocks":[{"lines":[{"text":"one"},{"text":" "}]},{"lines":[{"text":"two"}]}]}}}`)
	text, err := fc.engine().Extract(context.Background(), []byte{0xFF, 0xD8, 0})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
	assert.Equal(t, "JPEG", fc.last.MimeType)
}

func TestExtractRetriesOnUnauthorized(t *testing.T) {
	fc := newFakeCloud(t, `{"result":{}}`)
	fc.rejectOne.Store(true)
	e := fc.engine()

	text, err := e.Extract(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, int32(2), fc.ocrCalls.Load())
	assert.Equal(t, int32(2), fc.iamCalls.Load())

	_, err = e.Extract(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fc.iamCalls.Load(), "token is cached")
}
