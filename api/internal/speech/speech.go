package speech

import (
	"context"
	"errors"
)

// ErrNotRecognized means the engine ran but could not make out any speech.
var ErrNotRecognized = errors.New("speech not recognized")

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, mime string) (string, error)
}
