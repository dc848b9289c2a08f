package handle

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"study-assist/api/internal/storage"
	"study-assist/api/internal/util"
)

type OCRURLRequest struct {
	ImageURL string `json:"imageUrl" validate:"required"`
}

type OCRResponse struct {
	Text string `json:"text"`
}

// OCR dispatches on the body type: a JSON body carries an image URL and gets
// the text back, a multipart upload gets a PDF of the text back.
func (h *Handle) OCR(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		h.ocrFromURL(w, r)
		return
	}
	h.ocrFromUpload(w, r)
}

func (h *Handle) ocrFromURL(w http.ResponseWriter, r *http.Request) {
	var req OCRURLRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		writeError(w, validation("No image URL provided"))
		return
	}
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if err := h.validate.Struct(req); err != nil {
		writeError(w, validation("No image URL provided"))
		return
	}

	text, err := h.as.TextFromURL(r.Context(), req.ImageURL)
	if err != nil {
		h.fail(w, r, "ocr", processing("OCR failed", err))
		return
	}
	writeJSON(w, http.StatusOK, OCRResponse{Text: text})
}

func (h *Handle) ocrFromUpload(w http.ResponseWriter, r *http.Request) {
	fh, herr := h.formFile(w, r, "image", "No image uploaded")
	if herr != nil {
		writeError(w, herr)
		return
	}
	if !util.HasExt(fh.Filename, imageExts...) {
		writeError(w, validation("Invalid image format"))
		return
	}

	data, done, err := h.persist(fh)
	if err != nil {
		h.fail(w, r, "storage", processing("OCR failed", err))
		return
	}
	defer done()

	_, doc, err := h.as.Document(r.Context(), data)
	if err != nil {
		h.fail(w, r, "ocr", processing("OCR failed", err))
		return
	}
	artifactDone, err := h.store(".pdf", doc)
	if err != nil {
		h.fail(w, r, "storage", processing("OCR failed", err))
		return
	}
	defer artifactDone()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storage.DownloadName(fh.Filename, ".pdf")))
	w.Header().Set("Content-Length", fmt.Sprint(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
