package application

import (
	"context"
	"log"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"
)

// UploadResult reports the outcome of one document upload.
type UploadResult struct {
	Skipped       bool `json:"skipped"` // extracted text fell below the minimum length
	ChunksCreated int  `json:"chunks_created"`
	ChunksStored  int  `json:"chunks_stored"`
}

// DocumentService ingests uploaded files for a client.
type DocumentService struct {
	extractor    domain.TextExtractor
	ingestor     *IngestionService
	minTextChars int
}

// NewDocumentService creates a new DocumentService. Documents whose extracted
// text is shorter than minTextChars are skipped rather than ingested.
func NewDocumentService(extractor domain.TextExtractor, ingestor *IngestionService, minTextChars int) *DocumentService {
	if minTextChars <= 0 {
		minTextChars = 200
	}
	return &DocumentService{
		extractor:    extractor,
		ingestor:     ingestor,
		minTextChars: minTextChars,
	}
}

// UploadDocument extracts plain text from the file and runs it through the
// ingestion pipeline. The filename becomes the chunk source URL; docDomain
// overrides the chunk domain, defaulting to the client's main domain, so
// uploads share the crawl's search index.
func (s *DocumentService) UploadDocument(ctx context.Context, client *domain.Client, filename, docDomain string, content []byte) (UploadResult, error) {
	text, err := s.extractor.Extract(filename, content)
	if err != nil {
		return UploadResult{}, err
	}

	if len([]rune(text)) < s.minTextChars {
		log.Printf("Skipping document %s: extracted text below %d characters\n", filename, s.minTextChars)
		return UploadResult{Skipped: true}, nil
	}

	if docDomain == "" {
		docDomain = client.MainDomain
	}

	result, err := s.ingestor.IngestText(ctx, client, filename, docDomain, text)
	if err != nil {
		return UploadResult{ChunksCreated: result.ChunksCreated, ChunksStored: result.ChunksStored}, err
	}

	return UploadResult{ChunksCreated: result.ChunksCreated, ChunksStored: result.ChunksStored}, nil
}
