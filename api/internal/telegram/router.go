package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"study-assist/api/internal/service"
	"study-assist/api/internal/util"
)

const maxMessage = 3900

// Bot is the subset of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot       Bot
	Assistant *service.Assistant
	Files     service.Fetcher
	Log       *zap.Logger

	// Timeout bounds the work done for one update. Debounce is how long an
	// album waits for its remaining photos.
	Timeout  time.Duration
	Debounce time.Duration

	engines sync.Map // chatID -> tutor engine name
	albums  sync.Map // media group id -> *album
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(msg)
	case msg.Voice != nil:
		r.transcribe(msg.Chat.ID, msg.Voice.FileID, "voice.ogg", msg.Voice.MimeType)
	case msg.Audio != nil:
		r.transcribe(msg.Chat.ID, msg.Audio.FileID, msg.Audio.FileName, msg.Audio.MimeType)
	case strings.TrimSpace(msg.Text) != "":
		r.chat(msg.Chat.ID, msg.Text)
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, startText)
	case "health":
		r.send(cid, r.healthText(cid))
	case "engine":
		r.switchEngine(cid, msg.CommandArguments())
	case "pdf", "detect":
		r.send(cid, "Send a photo with /"+msg.Command()+" as its caption.")
	default:
		r.send(cid, "Unknown command. Try /help")
	}
}

const startText = `Hi! I am your study assistant.
• Send a photo of a page and I will read the text.
• Add /pdf as the caption to get the text back as a PDF.
• Add /detect as the caption to list the objects in the photo.
• Send a voice message and I will transcribe it.
• Ask me anything in plain text.
Commands: /health, /engine [gpt|gemini]`

func (r *Router) healthText(cid int64) string {
	as := r.Assistant
	var b strings.Builder
	b.WriteString("✅ OK\n")
	fmt.Fprintf(&b, "OCR: %s\n", as.OCR.Name())
	if as.DetectorReady() {
		b.WriteString("Detection: ready\n")
	} else {
		b.WriteString("Detection: not loaded\n")
	}
	if as.Speech != nil {
		fmt.Fprintf(&b, "Speech: %s\n", as.Speech.Name())
	} else {
		b.WriteString("Speech: not configured\n")
	}
	if eng, err := as.Tutors.GetEngine(r.engineFor(cid)); err == nil {
		fmt.Fprintf(&b, "Tutor: %s (%s)", eng.Name(), eng.GetModel())
	} else {
		fmt.Fprintf(&b, "Tutor: %v", err)
	}
	return b.String()
}

func (r *Router) switchEngine(cid int64, args string) {
	name := strings.ToLower(strings.TrimSpace(args))
	if name == "" {
		cur := r.engineFor(cid)
		if cur == "" {
			cur = r.Assistant.Tutors.Default
		}
		r.send(cid, "Current tutor engine: "+cur+"\nUsage: /engine gpt | /engine gemini")
		return
	}
	eng, err := r.Assistant.Tutors.GetEngine(name)
	if err != nil {
		r.send(cid, "❌ "+err.Error())
		return
	}
	r.engines.Store(cid, name)
	r.send(cid, fmt.Sprintf("✅ Tutor engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) engineFor(cid int64) string {
	if v, ok := r.engines.Load(cid); ok {
		return v.(string)
	}
	return ""
}

func (r *Router) chat(cid int64, text string) {
	ctx, cancel := r.context()
	defer cancel()

	reply, err := r.Assistant.Chat(ctx, text, r.engineFor(cid))
	if err != nil {
		r.sendError(cid, "tutor", err)
		return
	}
	r.send(cid, util.Truncate(reply, maxMessage))
}

func (r *Router) context() (context.Context, context.CancelFunc) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger().Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendError(chatID int64, capability string, err error) {
	r.logger().Error("telegram update failed",
		zap.Int64("chat_id", chatID),
		zap.String("capability", capability),
		zap.Error(err),
	)
	r.send(chatID, fmt.Sprintf("⚠️ %s failed: %v", capability, err))
}

func (r *Router) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
