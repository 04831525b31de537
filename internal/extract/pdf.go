// Package extract converts source material (PDF bytes, YouTube videos) into
// plain text plus positional metadata. Both extractors are treated as
// boundaries: they produce text or a domain error, nothing in between.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/castforge/castforge/internal/domain"
)

// Page is the text content of a single PDF page.
type Page struct {
	Number int
	Text   string
}

// PDFExtractor extracts per-page text from PDF documents via pdfcpu.
type PDFExtractor struct {
	tempDir string
}

// NewPDFExtractor creates a PDF extractor working in the OS temp directory.
func NewPDFExtractor() *PDFExtractor {
	tempDir := filepath.Join(os.TempDir(), "castforge-pdf")
	_ = os.MkdirAll(tempDir, 0o755)
	return &PDFExtractor{tempDir: tempDir}
}

// ExtractPages extracts text by page from raw PDF bytes. Returns ErrNoText
// when the document yields no extractable text at all.
func (e *PDFExtractor) ExtractPages(ctx context.Context, data []byte) ([]Page, error) {
	id := uuid.NewString()

	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%s.pdf", id))
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w: %v", domain.ErrNoText, err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%s", id))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("extract pdf content: %w: %v", domain.ErrNoText, err)
	}

	pageTexts, err := readPageContents(outDir)
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, pageCount)
	empty := true
	for num := 1; num <= pageCount; num++ {
		text := textFromContentStream(pageTexts[num])
		if text != "" {
			empty = false
		}
		pages = append(pages, Page{Number: num, Text: text})
	}
	if empty {
		return nil, domain.ErrNoText
	}
	return pages, nil
}

// readPageContents reads the per-page content files pdfcpu wrote into outDir.
// File names vary across pdfcpu versions (page_N / Content_page_N).
func readPageContents(outDir string) (map[int]string, error) {
	files, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("read extraction dir: %w", err)
	}

	pageTexts := make(map[int]string, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var num int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &num); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &num); err != nil {
				continue
			}
		}
		pageTexts[num] = string(content)
	}
	return pageTexts, nil
}

// Text-showing operators in a PDF content stream: (string) Tj and [(s1)(s2)] TJ.
var (
	tjRegex    = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	tjArrRegex = regexp.MustCompile(`\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)
	strRegex   = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
)

// textFromContentStream pulls the literal strings out of the page's content
// stream text operators. Covers unencoded Latin text; documents using CID
// fonts come out empty and fail the ErrNoText check upstream.
func textFromContentStream(stream string) string {
	if stream == "" {
		return ""
	}

	var parts []string
	for _, m := range tjRegex.FindAllStringSubmatch(stream, -1) {
		parts = append(parts, unescapePDFString(m[1]))
	}
	for _, m := range tjArrRegex.FindAllStringSubmatch(stream, -1) {
		for _, s := range strRegex.FindAllStringSubmatch(m[1], -1) {
			parts = append(parts, unescapePDFString(s[1]))
		}
	}

	text := strings.Join(parts, " ")
	return strings.TrimSpace(collapseWhitespace(text))
}

func unescapePDFString(s string) string {
	r := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\r`, "", `\t`, " ")
	return r.Replace(s)
}

var wsRegex = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return wsRegex.ReplaceAllString(s, " ")
}
