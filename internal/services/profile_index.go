package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/config"
	"alfredoptarigan/resume-parser/internal/models"
)

// Embedder turns text into a vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ProfileIndex keeps one vector per saved resume so similar profiles can be
// looked up by document id.
type ProfileIndex interface {
	InitCollection(ctx context.Context) error
	IndexProfile(ctx context.Context, documentID uuid.UUID, data models.ResumeData) error
	FindSimilar(ctx context.Context, documentID uuid.UUID, limit int) ([]models.SimilarProfile, error)
	Close() error
}

type qdrantProfileIndex struct {
	client         *qdrant.Client
	embedder       Embedder
	collectionName string
	vectorSize     uint64
}

func NewQdrantProfileIndex(cfg config.QdrantConfig, embedder Embedder) (ProfileIndex, error) {
	// Parse URL to extract host, port, and TLS usage
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// For gRPC client, use port 6334 by default (gRPC port)
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantProfileIndex{
		client:         client,
		embedder:       embedder,
		collectionName: cfg.Collection,
		vectorSize:     cfg.VectorSize,
	}, nil
}

// InitCollection implements ProfileIndex.
func (q *qdrantProfileIndex) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Printf("✅ Qdrant collection '%s' already exists\n", q.collectionName)
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// IndexProfile implements ProfileIndex. The point id is the document id, so
// reindexing the same document replaces its vector.
func (q *qdrantProfileIndex) IndexProfile(ctx context.Context, documentID uuid.UUID, data models.ResumeData) error {
	text := profileText(data)
	if text == "" {
		return fmt.Errorf("profile %s has no indexable text", documentID)
	}

	embedding, err := q.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return err
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(documentID.String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"document_id": documentID.String(),
			"name":        data.ContactInfo.Name,
			"skills":      strings.Join(data.Skills, ", "),
		}),
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// FindSimilar implements ProfileIndex.
func (q *qdrantProfileIndex) FindSimilar(ctx context.Context, documentID uuid.UUID, limit int) ([]models.SimilarProfile, error) {
	self := qdrant.NewID(documentID.String())

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQueryID(self),
		Filter: &qdrant.Filter{
			MustNot: []*qdrant.Condition{qdrant.NewHasID(self)},
		},
		Limit:       qdrant.PtrOf(uint64(limit)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		// Indexing is best effort, so a stored resume may have no point yet.
		if isPointNotFound(err) {
			return nil, common.NewError(common.ErrNotFound,
				fmt.Sprintf("profile %s is not in the similarity index yet", documentID), err)
		}
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]models.SimilarProfile, 0, len(points))
	for _, point := range points {
		match := models.SimilarProfile{Score: point.Score}

		if v, ok := point.Payload["document_id"]; ok {
			match.DocumentID = v.GetStringValue()
		}
		if v, ok := point.Payload["name"]; ok {
			match.Name = v.GetStringValue()
		}

		matches = append(matches, match)
	}

	return matches, nil
}

// isPointNotFound reports whether Qdrant rejected a query because the
// reference point does not exist.
func isPointNotFound(err error) bool {
	s, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch s.Code() {
	case codes.NotFound:
		return true
	case codes.InvalidArgument:
		return strings.Contains(s.Message(), "No point with id")
	}
	return false
}

func (q *qdrantProfileIndex) Close() error {
	return q.client.Close()
}

// profileText is the text embedded for a profile: headline facts first,
// then experience, education and skills.
func profileText(data models.ResumeData) string {
	var parts []string
	if data.Summary != "" {
		parts = append(parts, data.Summary)
	}
	for _, w := range data.WorkExperience {
		switch {
		case w.Role != "" && w.Company != "":
			parts = append(parts, w.Role+" at "+w.Company)
		case w.Role != "":
			parts = append(parts, w.Role)
		case w.Company != "":
			parts = append(parts, w.Company)
		}
	}
	for _, e := range data.Education {
		if line := strings.TrimSpace(e.Degree + " " + e.Institution); line != "" {
			parts = append(parts, line)
		}
	}
	if len(data.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(data.Skills, ", "))
	}
	if len(data.Certifications) > 0 {
		parts = append(parts, "Certifications: "+strings.Join(data.Certifications, ", "))
	}
	return strings.Join(parts, "\n")
}
