package hardware

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// charWhitelist keeps tesseract from hallucinating punctuation that the
// label patterns never contain.
const charWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789:/-. "

// TesseractOCR recognizes label text by piping a frame through the
// tesseract binary. The engine itself is a black box; its output is raw,
// noisy text for the extractor to vote over.
type TesseractOCR struct {
	Binary string
}

func NewTesseractOCR(binary string) *TesseractOCR {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractOCR{Binary: binary}
}

func (o *TesseractOCR) RecognizeText(ctx context.Context, frame []byte) (string, error) {
	cmd := exec.CommandContext(ctx, o.Binary, "stdin", "stdout",
		"--oem", "3", "--psm", "6",
		"-c", "preserve_interword_spaces=1",
		"-c", "tessedit_char_whitelist="+charWhitelist,
	)
	cmd.Stdin = bytes.NewReader(frame)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
