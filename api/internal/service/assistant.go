// Package service wires the capabilities together for both front-ends (HTTP and Telegram).
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"study-assist/api/internal/detect"
	"study-assist/api/internal/imaging"
	"study-assist/api/internal/ocr"
	"study-assist/api/internal/pdf"
	"study-assist/api/internal/speech"
	"study-assist/api/internal/store"
	"study-assist/api/internal/tutor"
	"study-assist/api/internal/util"
)

var (
	ErrNoHistory     = errors.New("history store unavailable")
	ErrNoTranscriber = errors.New("transcription engine not configured")
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type ChatStore interface {
	Insert(ctx context.Context, user, bot, engine string) (store.Chat, error)
	Recent(ctx context.Context, limit int) ([]store.Chat, error)
}

// Assistant holds the capabilities. Detector, Speech and Chats may be nil when
// the corresponding dependency failed to initialise or is not configured.
type Assistant struct {
	OCR      ocr.Engine
	Fetcher  Fetcher
	Detector detect.Detector
	Speech   speech.Transcriber
	Tutors   *tutor.Engines
	Chats    ChatStore
	Log      *zap.Logger
}

// TextFromURL downloads an image and extracts its text.
func (a *Assistant) TextFromURL(ctx context.Context, url string) (string, error) {
	img, err := a.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return a.Text(ctx, img)
}

// Text decodes the image and runs OCR over it.
func (a *Assistant) Text(ctx context.Context, image []byte) (string, error) {
	img, _, err := imaging.Normalize(image)
	if err != nil {
		return "", err
	}
	return a.OCR.Extract(ctx, img)
}

// Document runs OCR and renders every non-blank line as a PDF row.
func (a *Assistant) Document(ctx context.Context, image []byte) (string, []byte, error) {
	text, err := a.Text(ctx, image)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Render(pdf.Lines(text), &buf); err != nil {
		return "", nil, err
	}
	return text, buf.Bytes(), nil
}

// Detect returns detect.ErrNotLoaded when no detector was initialised.
func (a *Assistant) Detect(ctx context.Context, image []byte, filename string) ([]detect.Detection, error) {
	if a.Detector == nil {
		return nil, detect.ErrNotLoaded
	}
	out, err := a.Detector.Detect(ctx, image, filename)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []detect.Detection{}
	}
	return out, nil
}

func (a *Assistant) DetectorReady() bool { return a.Detector != nil }

// Transcribe sends audio to the speech engine. The MIME type is taken from
// mime when set, otherwise from the filename extension.
func (a *Assistant) Transcribe(ctx context.Context, audio []byte, filename, mime string) (string, error) {
	if a.Speech == nil {
		return "", ErrNoTranscriber
	}
	if mime == "" {
		mime = util.AudioMIME(filename)
	}
	return a.Speech.Transcribe(ctx, audio, mime)
}

// Chat asks the tutor engine and records the exchange when a store is set.
// A failed insert is logged and does not fail the reply.
func (a *Assistant) Chat(ctx context.Context, message, engine string) (string, error) {
	eng, err := a.Tutors.GetEngine(engine)
	if err != nil {
		return "", err
	}
	reply, err := eng.Reply(ctx, message)
	if err != nil {
		return "", fmt.Errorf("%s: %w", eng.Name(), err)
	}
	if a.Chats != nil {
		if _, err := a.Chats.Insert(ctx, message, reply, eng.Name()); err != nil {
			a.logger().Warn("chat not saved", zap.String("engine", eng.Name()), zap.Error(err))
		}
	}
	return reply, nil
}

func (a *Assistant) History(ctx context.Context, limit int) ([]store.Chat, error) {
	if a.Chats == nil {
		return nil, ErrNoHistory
	}
	return a.Chats.Recent(ctx, limit)
}

func (a *Assistant) logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}
