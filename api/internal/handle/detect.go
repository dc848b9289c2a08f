package handle

import (
	"net/http"

	"study-assist/api/internal/util"
)

// Detect runs object detection over an uploaded image. The upload is checked
// for presence before the detector, and for its extension after.
func (h *Handle) Detect(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	fh, herr := h.formFile(w, r, "image", "No image uploaded")
	if herr != nil {
		writeError(w, herr)
		return
	}
	if !h.as.DetectorReady() {
		h.fail(w, r, "detect", unavailable("detection model not loaded", nil))
		return
	}
	if !util.HasExt(fh.Filename, imageExts...) {
		writeError(w, validation("Invalid image format"))
		return
	}

	data, done, err := h.persist(fh)
	if err != nil {
		h.fail(w, r, "storage", processing("Detection failed", err))
		return
	}
	defer done()

	out, err := h.as.Detect(r.Context(), data, fh.Filename)
	if err != nil {
		h.fail(w, r, "detect", processing("Detection failed", err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}
