package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"study-assist/api/internal/service"
	"study-assist/api/internal/store"
	"study-assist/api/internal/tutor"
)

const (
	defaultHistory = 20
	maxHistory     = 100
)

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	Engine  string `json:"engine" validate:"omitempty,oneof=gpt openai gemini"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

func (h *Handle) Chat(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, validation("No message provided"))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	req.Engine = strings.ToLower(strings.TrimSpace(req.Engine))
	if err := h.validate.Struct(req); err != nil {
		if req.Message == "" {
			writeError(w, validation("No message provided"))
			return
		}
		writeError(w, validation(tutor.ErrUnknownEngine.Error()))
		return
	}

	reply, err := h.as.Chat(r.Context(), req.Message, req.Engine)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
	case errors.Is(err, tutor.ErrUnknownEngine):
		writeError(w, validation(err.Error()))
	case errors.Is(err, tutor.ErrNotConfigured):
		h.fail(w, r, "tutor", unavailable(err.Error(), err))
	default:
		h.fail(w, r, "tutor", processing("Chat failed", err))
	}
}

// History lists the latest chats, newest first.
func (h *Handle) History(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	limit := defaultHistory
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, validation("limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistory)
	}

	chats, err := h.as.History(r.Context(), limit)
	switch {
	case err == nil:
		if chats == nil {
			chats = []store.Chat{}
		}
		writeJSON(w, http.StatusOK, chats)
	case errors.Is(err, service.ErrNoHistory):
		h.fail(w, r, "store", unavailable(err.Error(), err))
	default:
		h.fail(w, r, "store", processing("History failed", err))
	}
}
