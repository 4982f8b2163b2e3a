// Package extract turns documents on disk into ordered page texts.
//
// Plain-text documents use the form feed character as the page separator,
// which is also what pdftotext emits between pages. PDF documents are
// converted by running pdftotext, so no PDF parser is linked in.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"docsearch/internal/adapter/fs"
	"docsearch/internal/domain"
	"docsearch/internal/port"
)

// PageSeparator separates pages in extracted text.
const PageSeparator = "\f"

// CommandRunner executes an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// TextExtractor reads a UTF-8 text file and splits it into pages.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Pages(_ context.Context, path string) ([]string, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, path, err)
	}
	return SplitPages(content), nil
}

// PDFExtractor converts PDFs with pdftotext.
type PDFExtractor struct {
	runner CommandRunner
	binary string
}

func NewPDFExtractor(runner CommandRunner, binary string) *PDFExtractor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if binary == "" {
		binary = "pdftotext"
	}
	return &PDFExtractor{runner: runner, binary: binary}
}

func (e *PDFExtractor) Pages(ctx context.Context, path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, path, err)
	}
	out, err := e.runner.Run(ctx, e.binary, "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, path, err)
	}
	return SplitPages(string(out)), nil
}

// AutoExtractor picks an extractor by file extension.
type AutoExtractor struct {
	pdf  port.Extractor
	text port.Extractor
}

func NewAutoExtractor(pdf, text port.Extractor) *AutoExtractor {
	return &AutoExtractor{pdf: pdf, text: text}
}

func (e *AutoExtractor) Pages(ctx context.Context, path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return e.pdf.Pages(ctx, path)
	}
	return e.text.Pages(ctx, path)
}

// New builds the extractor named by kind ("auto", "text" or "pdf").
func New(kind, pdftotext string) (port.Extractor, error) {
	switch kind {
	case "auto", "":
		return NewAutoExtractor(NewPDFExtractor(nil, pdftotext), NewTextExtractor()), nil
	case "text":
		return NewTextExtractor(), nil
	case "pdf":
		return NewPDFExtractor(nil, pdftotext), nil
	default:
		return nil, fmt.Errorf("%w: unsupported extractor: %s", domain.ErrConfiguration, kind)
	}
}

// SplitPages splits on PageSeparator. A single trailing separator does not
// start a new page.
func SplitPages(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, PageSeparator)
	return strings.Split(content, PageSeparator)
}
