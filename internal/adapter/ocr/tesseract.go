// Package ocr shells out to an external OCR engine to read payment
// screenshots.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
	"github.com/blackoutassasin/NF-BOT/internal/port"
)

var imageMagics = [][]byte{
	{0x89, 0x50, 0x4E, 0x47}, // PNG
	{0xFF, 0xD8, 0xFF},       // JPEG
	{0x47, 0x49, 0x46, 0x38}, // GIF
	{0x42, 0x4D},             // BMP
	{0x52, 0x49, 0x46, 0x46}, // WEBP (RIFF container)
}

// TesseractExtractor runs the tesseract binary over stdin/stdout. The engine
// can hang on malformed input, so callers bound each invocation with a
// context deadline; a deadline hit surfaces as the context error and is
// mapped to an unreadable outcome by the orchestrator.
type TesseractExtractor struct {
	binary string
}

func NewTesseractExtractor(binary string) *TesseractExtractor {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractExtractor{binary: binary}
}

func (e *TesseractExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	if !looksLikeImage(image) {
		return "", domain.ErrImageUnreadable
	}

	cmd := exec.CommandContext(ctx, e.binary, "stdin", "stdout", "--psm", "6")
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// The engine ran but could not decode the input.
		return "", fmt.Errorf("%w: %s", domain.ErrImageUnreadable, firstLine(stderr.String()))
	}

	// Empty output is a normal result: a readable image with no text.
	return stdout.String(), nil
}

func looksLikeImage(image []byte) bool {
	if len(image) == 0 {
		return false
	}
	for _, magic := range imageMagics {
		if bytes.HasPrefix(image, magic) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := bytes.IndexByte([]byte(s), '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var _ port.TextExtractor = (*TesseractExtractor)(nil)
