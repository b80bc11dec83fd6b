// Package extractor converts uploaded documents into plain text.
package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"
)

// maxDocumentBytes caps the size of an uploaded document.
const maxDocumentBytes = 10 * 1024 * 1024 // 10MB

var _ domain.TextExtractor = (*DocumentExtractor)(nil)

// DocumentExtractor implements the domain.TextExtractor interface for the
// supported upload formats: plain text, Markdown, HTML and DOCX. The file
// extension selects the strategy.
type DocumentExtractor struct {
	parser domain.PageParser
}

// NewDocumentExtractor creates a new DocumentExtractor.
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{parser: domain.NewHTMLPageParser()}
}

// Extract converts the file content to plain text.
func (e *DocumentExtractor) Extract(filename string, content []byte) (string, error) {
	if len(content) > maxDocumentBytes {
		return "", fmt.Errorf("document too large (>10MB): %s", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", "":
		if isBinary(content) {
			return "", fmt.Errorf("%w: %s does not look like text", domain.ErrUnsupportedDocument, filename)
		}
		return strings.TrimSpace(string(content)), nil
	case ".md", ".markdown":
		return stripMarkdown(string(content)), nil
	case ".html", ".htm":
		page, err := e.parser.Parse(string(content), filename, "")
		if err != nil {
			return "", fmt.Errorf("failed to parse HTML document: %w", err)
		}
		return page.Text, nil
	case ".docx":
		return extractDocx(content)
	default:
		return "", fmt.Errorf("%w: file type %q", domain.ErrUnsupportedDocument, ext)
	}
}

// isBinary does a check to determine if data might be a binary file.
func isBinary(data []byte) bool {
	// Check first N bytes for null bytes or other binary indicators
	checkSize := 1000
	if len(data) < checkSize {
		checkSize = len(data)
	}

	// UTF-8 BOM detection (EF BB BF)
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return false
	}

	nullCount := 0
	controlCount := 0
	for i := 0; i < checkSize; i++ {
		b := data[i]
		if b == 0 {
			nullCount++
		} else if b < 9 || (b > 13 && b < 32 && b != 27) {
			// Control characters except tab, LF, CR, etc.
			controlCount++
		}
	}

	return nullCount > 0 || controlCount > checkSize/100
}

// stripMarkdown removes common markdown formatting for plain text content.
// This is a simplified implementation that handles common cases.
func stripMarkdown(content string) string {
	// Remove code block fences but keep the code text itself
	fences := regexp.MustCompile("(?m)^```[^\n]*$")
	content = fences.ReplaceAllString(content, "")

	// Remove inline code backticks
	content = strings.ReplaceAll(content, "`", "")

	// Remove images ![alt](url)
	images := regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	content = images.ReplaceAllString(content, "")

	// Convert links [text](url) to just text
	links := regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	content = links.ReplaceAllString(content, "$1")

	// Remove heading markers (# ## ### etc)
	headings := regexp.MustCompile(`(?m)^#{1,6}\s+`)
	content = headings.ReplaceAllString(content, "")

	// Remove bold/italic markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")

	// Remove blockquote markers
	blockquote := regexp.MustCompile(`(?m)^>\s*`)
	content = blockquote.ReplaceAllString(content, "")

	// Remove horizontal rules
	hr := regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	content = hr.ReplaceAllString(content, "")

	// Remove list markers (- * + and numbered)
	listMarkers := regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	content = listMarkers.ReplaceAllString(content, "")
	numberedList := regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	content = numberedList.ReplaceAllString(content, "")

	// Collapse multiple newlines
	multiNewlines := regexp.MustCompile(`\n{3,}`)
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// extractDocx pulls the paragraph text out of a DOCX archive.
func extractDocx(content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: not a DOCX archive", domain.ErrUnsupportedDocument)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document.xml: %w", err)
		}

		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read document.xml: %w", err)
		}

		return parseDocumentXML(raw), nil
	}

	return "", fmt.Errorf("%w: DOCX archive has no document.xml", domain.ErrUnsupportedDocument)
}

// parseDocumentXML extracts text content from the document XML.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}
