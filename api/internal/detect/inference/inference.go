// Package inference talks to an external YOLO inference service over HTTP.
//
// The service exposes:
//
//	GET  /health   -> {"status":"ok","model":"yolov8n.pt","names":{"0":"person",...}}
//	POST /predict  multipart "file" -> {"detections":[{"label":"person","class_id":0,"confidence":0.91,"bbox":[x1,y1,x2,y2]}]}
//
// A detection without a label is named through the class table returned by /health.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"study-assist/api/internal/detect"
)

type Adapter struct {
	baseURL string
	model   string
	httpc   *http.Client

	names map[int]string
}

func New(baseURL, model string, timeout time.Duration) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (a *Adapter) Model() string { return a.model }

type healthResponse struct {
	Status string            `json:"status"`
	Model  string            `json:"model"`
	Names  map[string]string `json:"names"`
}

// Load checks that the service is up and has a model loaded. It is called
// once at startup, before the adapter is shared between requests.
func (a *Adapter) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := a.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("inference health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	var h healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return fmt.Errorf("decode health: %w", err)
	}
	if !strings.EqualFold(h.Status, "ok") {
		return fmt.Errorf("inference service status %q", h.Status)
	}
	if h.Model != "" && a.model != "" && h.Model != a.model {
		return fmt.Errorf("inference service serves %q, want %q", h.Model, a.model)
	}
	if h.Model != "" {
		a.model = h.Model
	}

	names := make(map[int]string, len(h.Names))
	for k, v := range h.Names {
		id, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("bad class id %q: %w", k, err)
		}
		names[id] = v
	}
	a.names = names
	return nil
}

type predictResponse struct {
	Detections []struct {
		Label      string    `json:"label"`
		ClassID    *int      `json:"class_id"`
		Confidence float64   `json:"confidence"`
		BBox       []float64 `json:"bbox"`
	} `json:"detections"`
}

func (a *Adapter) Detect(ctx context.Context, image []byte, filename string) ([]detect.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]detect.Detection, 0, len(result.Detections))
	for i, d := range result.Detections {
		if len(d.BBox) != 4 {
			return nil, fmt.Errorf("detection %d: bbox has %d values, want 4", i, len(d.BBox))
		}
		if !(d.Confidence >= 0 && d.Confidence <= 1) {
			return nil, fmt.Errorf("detection %d: confidence %v outside [0, 1]", i, d.Confidence)
		}
		label := d.Label
		if label == "" && d.ClassID != nil {
			label = a.names[*d.ClassID]
			if label == "" {
				label = strconv.Itoa(*d.ClassID)
			}
		}
		out = append(out, detect.Detection{
			Label:      label,
			Confidence: d.Confidence,
			BBox:       [4]float64{d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]},
		})
	}
	return out, nil
}
