// Package pdf renders extracted text as a single-column PDF document.
package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	cellWidth  = 200
	cellHeight = 10
	fontFamily = "Arial"
	fontSize   = 12
)

// Lines splits text on newlines and drops blank rows.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// Render writes one A4 document with one cell row per line. A document with
// no lines is still a valid one-page PDF.
func Render(lines []string, w io.Writer) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("OCR export", true)
	doc.AddPage()
	doc.SetFont(fontFamily, "", fontSize)

	// core fonts are cp1252; characters outside it are dropped by the translator
	tr := doc.UnicodeTranslatorFromDescriptor("")
	for _, line := range lines {
		doc.CellFormat(cellWidth, cellHeight, tr(line), "", 1, "", false, 0, "")
	}
	if err := doc.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
