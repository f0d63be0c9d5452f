package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParserService extracts plain text from uploaded resume PDFs. The rest of
// the pipeline only ever sees the extracted text.
type PDFParserService interface {
	ExtractText(filePath string) (*ResumeContent, error)
}

type ResumeContent struct {
	Text      string
	PageCount int
}

type pdfParserService struct{}

func NewPDFParserService() PDFParserService {
	return &pdfParserService{}
}

func (p *pdfParserService) ExtractText(filePath string) (*ResumeContent, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Keep going; a single unreadable page should not sink the resume.
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := NormalizeText(textBuilder.String())
	if text == "" {
		return nil, fmt.Errorf("no text content found in PDF")
	}

	return &ResumeContent{Text: text, PageCount: totalPage}, nil
}

// NormalizeText trims lines and collapses excess blank lines while keeping
// paragraph boundaries intact for the chunker.
func NormalizeText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	var cleaned []string
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(cleaned) > 0 {
				cleaned = append(cleaned, "")
			}
			blank = true
			continue
		}
		blank = false
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}
