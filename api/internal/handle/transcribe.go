package handle

import (
	"errors"
	"net/http"

	"study-assist/api/internal/service"
	"study-assist/api/internal/speech"
	"study-assist/api/internal/util"
)

type TranscribeResponse struct {
	Transcript string `json:"transcript"`
}

func (h *Handle) Transcribe(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	fh, herr := h.formFile(w, r, "audio", "No audio uploaded")
	if herr != nil {
		writeError(w, herr)
		return
	}
	if !util.HasExt(fh.Filename, audioExts...) {
		writeError(w, validation("Invalid audio format"))
		return
	}

	data, done, err := h.persist(fh)
	if err != nil {
		h.fail(w, r, "storage", processing("Transcription failed", err))
		return
	}
	defer done()

	text, err := h.as.Transcribe(r.Context(), data, fh.Filename, "")
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, TranscribeResponse{Transcript: text})
	case errors.Is(err, speech.ErrNotRecognized):
		h.fail(w, r, "speech", recognition("Speech not recognized", err))
	case errors.Is(err, service.ErrNoTranscriber):
		h.fail(w, r, "speech", unavailable("transcription engine not configured", err))
	default:
		h.fail(w, r, "speech", processing("Transcription failed", err))
	}
}
