package handle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"study-assist/api/internal/storage"
)

var (
	imageExts = []string{"png", "jpg", "jpeg"}
	audioExts = []string{"wav", "mp3"}
)

// formFile returns the header of the multipart file in field. A body that is
// not multipart, or has no such field, yields missingMsg.
func (h *Handle) formFile(w http.ResponseWriter, r *http.Request, field, missingMsg string) (*multipart.FileHeader, *Error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, validation(fmt.Sprintf("Upload exceeds %d MB", h.maxBytes>>20))
		}
		return nil, validation(missingMsg)
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 || files[0].Filename == "" {
		return nil, validation(missingMsg)
	}
	return files[0], nil
}

// persist reads the upload and writes it to working storage. The returned
// cleanup removes the stored copy unless uploads are kept.
func (h *Handle) persist(fh *multipart.FileHeader) ([]byte, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	saved, err := h.files.Save(fh.Filename, bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return data, h.cleanup(saved), nil
}

// store writes a generated artifact with extension ext.
func (h *Handle) store(ext string, data []byte) (func(), error) {
	f, err := h.files.Create(ext)
	if err != nil {
		return nil, err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = h.files.Remove(f.Name())
		return nil, fmt.Errorf("storage: write %s: %w", f.Name(), err)
	}
	return h.cleanup(storage.File{Path: f.Name(), Size: int64(len(data))}), nil
}

func (h *Handle) cleanup(f storage.File) func() {
	if h.keep {
		return func() {}
	}
	return func() {
		if err := h.files.Remove(f.Path); err != nil {
			h.log.Warn("remove upload", zap.String("path", f.Path), zap.Error(err))
		}
	}
}
