package imaging

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sized(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestStackPlacesPagesVertically(t *testing.T) {
	out, err := Stack([][]byte{sized(t, 40, 10), sized(t, 20, 30)}, 0)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
}

func TestStackScalesDown(t *testing.T) {
	out, err := Stack([][]byte{sized(t, 100, 100), sized(t, 100, 100)}, 5000)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width*cfg.Height, 5000)
	assert.Equal(t, 50, cfg.Width)
}

func TestStackErrors(t *testing.T) {
	_, err := Stack(nil, 0)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Stack([][]byte{sized(t, 2, 2), []byte("junk")}, 0)
	assert.ErrorContains(t, err, "image 2")
}
