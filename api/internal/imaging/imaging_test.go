package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.Black)
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func TestNormalizePassesPNGThrough(t *testing.T) {
	in := pngBytes(t)
	out, format, err := Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, in, out)
}

func TestNormalizeReencodesGIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(), nil))

	out, format, err := Normalize(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 3, cfg.Height)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, _, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, _, err = Normalize([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestFetchDirectImage(t *testing.T) {
	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	got, err := NewFetcher(5*time.Second, 0).Fetch(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestFetchFollowsOGImage(t *testing.T) {
	img := pngBytes(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="/img/cover.png"></head>
<body><img src="/img/other.png"></body></html>`))
	})
	mux.HandleFunc("/img/cover.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := NewFetcher(5*time.Second, 0).Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestFetchFallsBackToFirstImg(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<body><p>hi</p><img src="pic.jpg"><img src="second.jpg"></body>`))
	})
	mux.HandleFunc("/pic.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := NewFetcher(5*time.Second, 0).Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(got))
}

func TestFetchErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", http.NotFound)
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	})
	mux.HandleFunc("/noimg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<p>nothing here</p>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(5*time.Second, 0)
	ctx := context.Background()

	_, err := f.Fetch(ctx, srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")

	_, err = NewFetcher(5*time.Second, 16).Fetch(ctx, srv.URL+"/big")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Fetch(ctx, srv.URL+"/noimg")
	assert.ErrorContains(t, err, "no image found")

	_, err = f.Fetch(ctx, "ftp://example.com/a.png")
	assert.ErrorContains(t, err, "unsupported scheme")
}
