package yandex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"study-assist/api/internal/util"
)

const defaultOCRURL = "https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText"

// Engine calls Yandex Vision OCR.
type Engine struct {
	iamc      *IamClient
	folderID  string
	languages []string
	model     string
	url       string
	httpc     *http.Client
}

func New(oauthToken, folderID string, languages ...string) *Engine {
	return &Engine{
		iamc:      NewIamClient(oauthToken),
		folderID:  folderID,
		languages: toLanguageCodes(languages),
		model:     "page",
		url:       defaultOCRURL,
		httpc:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "yandex" }

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`
	LanguageCodes []string `json:"languageCodes,omitempty"`
	Model         string   `json:"model,omitempty"`
}

type textAnnotation struct {
	FullText string `json:"fullText,omitempty"`
	Blocks   []struct {
		Lines []struct {
			Text string `json:"text,omitempty"`
		} `json:"lines,omitempty"`
	} `json:"blocks,omitempty"`
}

type response struct {
	Result *struct {
		TextAnnotation *textAnnotation `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	payload, err := json.Marshal(request{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      mimeType(image),
		LanguageCodes: e.languages,
		Model:         e.model,
	})
	if err != nil {
		return "", err
	}

	resp, err := e.do(ctx, payload)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		e.iamc.invalidate()
		if resp, err = e.do(ctx, payload); err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("yandex ocr: decode: %w", err)
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return "", nil
	}
	ta := out.Result.TextAnnotation
	if t := strings.TrimSpace(ta.FullText); t != "" {
		return t, nil
	}
	var lines []string
	for _, b := range ta.Blocks {
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Engine) do(ctx context.Context, payload []byte) (*http.Response, error) {
	token, err := e.iamc.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-folder-id", e.folderID)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yandex ocr: %w", err)
	}
	return resp, nil
}

func mimeType(image []byte) string {
	switch util.SniffMimeHTTP(image) {
	case "image/png":
		return "PNG"
	default:
		return "JPEG"
	}
}

// toLanguageCodes maps tesseract codes ("eng", "rus") to the ISO 639-1 codes
// the API expects. Unknown codes pass through.
func toLanguageCodes(langs []string) []string {
	m := map[string]string{"eng": "en", "rus": "ru", "deu": "de", "fra": "fr", "spa": "es", "ita": "it", "ukr": "uk", "kaz": "kk"}
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if v, ok := m[l]; ok {
			l = v
		}
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
