package telegram

import (
	"fmt"
	"strings"

	"study-assist/api/internal/detect"
	"study-assist/api/internal/util"
)

type action int

const (
	actionText action = iota
	actionPDF
	actionDetect
)

// parseAction reads the photo caption: "/pdf" or "/detect" (optionally with
// a @botname suffix) select the action, anything else means plain OCR.
func parseAction(caption string) action {
	fields := strings.Fields(strings.ToLower(caption))
	if len(fields) == 0 {
		return actionText
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	switch cmd {
	case "/pdf":
		return actionPDF
	case "/detect":
		return actionDetect
	default:
		return actionText
	}
}

func formatText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "📝 No text found on the photo."
	}
	return "📝 Recognised text:\n\n" + util.Truncate(text, maxMessage)
}

func formatDetections(ds []detect.Detection) string {
	if len(ds) == 0 {
		return "🔍 No objects found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Found %d object(s):\n", len(ds))
	for i, d := range ds {
		fmt.Fprintf(&b, "%d) %s %.0f%% [%.0f, %.0f, %.0f, %.0f]\n",
			i+1, d.Label, d.Confidence*100, d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3])
	}
	return util.Truncate(strings.TrimRight(b.String(), "\n"), maxMessage)
}
