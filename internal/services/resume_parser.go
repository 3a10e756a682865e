package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/metrics"
	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/repositories"
)

// ErrProfileIndexDisabled is returned by FindSimilar when no index is configured.
var ErrProfileIndexDisabled = errors.New("profile index is not enabled")

// UploadInput is one uploaded file plus request metadata.
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	UploadIP    string
	UserAgent   string
}

// ResumeParserService runs the whole pipeline for an upload and serves
// stored results.
type ResumeParserService interface {
	ParseAndStore(ctx context.Context, in UploadInput) (*models.ResumeRecord, error)
	GetResume(ctx context.Context, documentID uuid.UUID) (*models.ResumeRecord, error)
	FindSimilar(ctx context.Context, documentID uuid.UUID, limit int) ([]models.SimilarProfile, error)
}

type resumeParserService struct {
	textExtractor  TextExtractor
	preprocessor   Preprocessor
	chunker        TextChunker
	extractor      StructuredExtractor
	storage        StorageService
	repo           repositories.ResumeRepository
	profileIndex   ProfileIndex
	requestTimeout time.Duration
}

// ResumeParserDeps groups the collaborators of the pipeline. ProfileIndex
// may be nil.
type ResumeParserDeps struct {
	TextExtractor  TextExtractor
	Preprocessor   Preprocessor
	Chunker        TextChunker
	Extractor      StructuredExtractor
	Storage        StorageService
	Repository     repositories.ResumeRepository
	ProfileIndex   ProfileIndex
	RequestTimeout time.Duration
}

func NewResumeParserService(deps ResumeParserDeps) ResumeParserService {
	return &resumeParserService{
		textExtractor:  deps.TextExtractor,
		preprocessor:   deps.Preprocessor,
		chunker:        deps.Chunker,
		extractor:      deps.Extractor,
		storage:        deps.Storage,
		repo:           deps.Repository,
		profileIndex:   deps.ProfileIndex,
		requestTimeout: deps.RequestTimeout,
	}
}

// ParseAndStore implements ResumeParserService. Nothing is persisted unless
// every step up to the database commit succeeds.
func (s *resumeParserService) ParseAndStore(ctx context.Context, in UploadInput) (record *models.ResumeRecord, err error) {
	start := time.Now()
	defer func() {
		code := "OK"
		if err != nil {
			code = common.Code(err)
		}
		metrics.ObserveParse(code, time.Since(start))
	}()

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	log.Printf("📄 Parsing upload %q (%d bytes)", in.Filename, len(in.Data))

	docType := ResolveDocumentType(in.Filename, in.ContentType, sniffHead(in.Data))
	if docType == models.DocumentTypeUnknown {
		return nil, common.NewError(common.ErrUnsupportedFormat, "only PDF and DOCX files are supported", nil)
	}

	raw, err := s.extractText(ctx, in.Data, docType)
	if err != nil {
		return nil, err
	}

	cleaned, err := s.preprocessor.Clean(raw)
	if err != nil {
		return nil, err
	}

	chunks := slices.Collect(s.chunker.Chunks(cleaned))

	result, err := s.extractor.Extract(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, timeoutError(err)
	}

	docID := uuid.New()
	storedPath, err := s.storage.SaveFile(ctx, docID, docType, in.Data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, timeoutError(ctxErr)
		}
		return nil, common.NewError(common.ErrPersistence, "failed to store uploaded file", err)
	}

	doc := &models.UploadedDocument{
		ID:               docID,
		OriginalFilename: in.Filename,
		StoredPath:       storedPath,
		ContentType:      ContentTypeFor(docType),
		DocumentType:     docType,
		FileSize:         int64(len(in.Data)),
		UploadIP:         in.UploadIP,
		UserAgent:        in.UserAgent,
	}
	record = &models.ResumeRecord{
		Data:       datatypes.NewJSONType(result.Data),
		ChunkCount: result.ChunkCount,
		Model:      result.Model,
	}

	log.Println("💾 Saving extraction results...")
	if err := s.repo.Save(ctx, doc, record); err != nil {
		if delErr := s.storage.DeleteFile(context.WithoutCancel(ctx), storedPath); delErr != nil {
			log.Printf("⚠️  Failed to remove orphaned file %s: %v", storedPath, delErr)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, timeoutError(ctxErr)
		}
		return nil, err
	}

	s.indexProfile(ctx, docID, result.Data)

	log.Printf("✅ Resume %s parsed in %s (%d chunk(s), %s)", docID, time.Since(start).Round(time.Millisecond), result.ChunkCount, result.Model)
	return record, nil
}

// extractText runs the parser in its own goroutine so a file that stalls
// it cannot hold the request past its deadline. An abandoned parse finishes
// in the background and its result is dropped.
func (s *resumeParserService) extractText(ctx context.Context, data []byte, docType models.DocumentType) (string, error) {
	type result struct {
		text string
		err  error
	}
	resChan := make(chan result, 1)

	go func() {
		text, err := s.textExtractor.ExtractText(data, docType)
		resChan <- result{text, err}
	}()

	select {
	case res := <-resChan:
		return res.text, res.err
	case <-ctx.Done():
		log.Printf("⚠️  Text extraction abandoned: %v", ctx.Err())
		return "", timeoutError(ctx.Err())
	}
}

// indexProfile is best effort: the record is already committed.
func (s *resumeParserService) indexProfile(ctx context.Context, docID uuid.UUID, data models.ResumeData) {
	if s.profileIndex == nil {
		return
	}
	if err := s.profileIndex.IndexProfile(ctx, docID, data); err != nil {
		log.Printf("⚠️  Failed to index profile %s: %v", docID, err)
	}
}

// GetResume implements ResumeParserService.
func (s *resumeParserService) GetResume(ctx context.Context, documentID uuid.UUID) (*models.ResumeRecord, error) {
	return s.repo.Get(ctx, documentID)
}

// FindSimilar implements ResumeParserService.
func (s *resumeParserService) FindSimilar(ctx context.Context, documentID uuid.UUID, limit int) ([]models.SimilarProfile, error) {
	if s.profileIndex == nil {
		return nil, ErrProfileIndexDisabled
	}

	// The document must exist before the index is asked about it.
	if _, err := s.repo.Get(ctx, documentID); err != nil {
		return nil, err
	}

	matches, err := s.profileIndex.FindSimilar(ctx, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar profiles: %w", err)
	}
	return matches, nil
}

func sniffHead(data []byte) []byte {
	const n = 3072
	if len(data) > n {
		return data[:n]
	}
	return data
}
