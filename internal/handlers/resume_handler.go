package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/services"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
)

type ResumeHandler struct {
	parser services.ResumeParserService
}

func NewResumeHandler(parser services.ResumeParserService) *ResumeHandler {
	return &ResumeHandler{
		parser: parser,
	}
}

func (h *ResumeHandler) HandleGetResume(c *fiber.Ctx) error {
	documentID, err := uuid.Parse(c.Params("document_id"))
	if err != nil {
		return badRequest(c, fiber.StatusBadRequest, "Invalid document ID format", "INVALID_DOCUMENT_ID")
	}

	record, err := h.parser.GetResume(c.UserContext(), documentID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.ResumeResponse{
		DocumentID:    record.DocumentID.String(),
		Filename:      record.Document.OriginalFilename,
		ExtractedData: record.Data.Data(),
		CreatedAt:     record.CreatedAt,
	})
}

func (h *ResumeHandler) HandleGetSimilar(c *fiber.Ctx) error {
	documentID, err := uuid.Parse(c.Params("document_id"))
	if err != nil {
		return badRequest(c, fiber.StatusBadRequest, "Invalid document ID format", "INVALID_DOCUMENT_ID")
	}

	limit := c.QueryInt("limit", defaultSimilarLimit)
	if limit < 1 {
		limit = defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}

	matches, err := h.parser.FindSimilar(c.UserContext(), documentID, limit)
	if err != nil {
		if errors.Is(err, services.ErrProfileIndexDisabled) {
			return badRequest(c, fiber.StatusNotFound, "similar profile search is not enabled", "PROFILE_INDEX_DISABLED")
		}
		return respondError(c, err)
	}

	return c.JSON(models.SimilarResponse{
		DocumentID: documentID.String(),
		Matches:    matches,
	})
}
