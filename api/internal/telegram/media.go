package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-assist/api/internal/detect"
	"study-assist/api/internal/imaging"
	"study-assist/api/internal/speech"
	"study-assist/api/internal/storage"
	"study-assist/api/internal/util"
)

const defaultDebounce = 1200 * time.Millisecond

// album collects the photos of one media group until no new photo arrived
// for Debounce. Once flushed it is detached from Router.albums and never
// accepts another photo.
type album struct {
	chatID int64

	mu      sync.Mutex
	action  action
	images  [][]byte
	timer   *time.Timer
	gen     int
	flushed bool
}

func (r *Router) acceptPhoto(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	act := parseAction(msg.Caption)

	img, err := r.download(msg.Photo[len(msg.Photo)-1].FileID)
	if err != nil {
		r.sendError(cid, "download", err)
		return
	}
	if msg.MediaGroupID == "" {
		r.processPhoto(cid, act, img)
		return
	}

	debounce := r.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	key := msg.MediaGroupID
	for {
		v, _ := r.albums.LoadOrStore(key, &album{chatID: cid})
		a := v.(*album)

		a.mu.Lock()
		if a.flushed {
			a.mu.Unlock()
			r.albums.CompareAndDelete(key, a)
			continue
		}
		a.images = append(a.images, img)
		if act != actionText {
			a.action = act
		}
		if a.timer != nil {
			a.timer.Stop()
		}
		a.gen++
		gen := a.gen
		a.timer = time.AfterFunc(debounce, func() { r.flushAlbum(key, a, gen) })
		a.mu.Unlock()
		return
	}
}

// flushAlbum processes a once its latest timer (gen) fires. A timer that was
// superseded by a newer photo is a no-op.
func (r *Router) flushAlbum(key string, a *album, gen int) {
	a.mu.Lock()
	if a.flushed || a.gen != gen {
		a.mu.Unlock()
		return
	}
	a.flushed = true
	images := a.images
	act := a.action
	a.mu.Unlock()
	r.albums.CompareAndDelete(key, a)

	page, err := imaging.Stack(images, imaging.DefaultMaxPixels)
	if err != nil {
		r.sendError(a.chatID, "album", err)
		return
	}
	r.processPhoto(a.chatID, act, page)
}

func (r *Router) processPhoto(cid int64, act action, img []byte) {
	ctx, cancel := r.context()
	defer cancel()

	switch act {
	case actionPDF:
		_, doc, err := r.Assistant.Document(ctx, img)
		if err != nil {
			r.sendError(cid, "OCR", err)
			return
		}
		file := tgbotapi.FileBytes{Name: storage.DownloadName("photo", ".pdf"), Bytes: doc}
		if _, err := r.Bot.Send(tgbotapi.NewDocument(cid, file)); err != nil {
			r.sendError(cid, "send pdf", err)
		}
	case actionDetect:
		out, err := r.Assistant.Detect(ctx, img, "photo.jpg")
		if errors.Is(err, detect.ErrNotLoaded) {
			r.send(cid, "⚠️ Detection is not available right now.")
			return
		}
		if err != nil {
			r.sendError(cid, "Detection", err)
			return
		}
		r.send(cid, formatDetections(out))
	default:
		text, err := r.Assistant.Text(ctx, img)
		if err != nil {
			r.sendError(cid, "OCR", err)
			return
		}
		r.send(cid, formatText(text))
	}
}

func (r *Router) transcribe(cid int64, fileID, filename, mime string) {
	audio, err := r.download(fileID)
	if err != nil {
		r.sendError(cid, "download", err)
		return
	}
	ctx, cancel := r.context()
	defer cancel()

	text, err := r.Assistant.Transcribe(ctx, audio, filename, mime)
	switch {
	case errors.Is(err, speech.ErrNotRecognized):
		r.send(cid, "🤷 Speech not recognized. Try again a bit closer to the microphone.")
	case err != nil:
		r.sendError(cid, "Transcription", err)
	default:
		r.send(cid, "🎙 "+util.Truncate(text, maxMessage))
	}
}

func (r *Router) download(fileID string) ([]byte, error) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return r.Files.Fetch(ctx, url)
}
