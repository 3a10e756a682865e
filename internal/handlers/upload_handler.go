package handlers

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/services"
)

type UploadHandler struct {
	parser      services.ResumeParserService
	maxFileSize int64
}

func NewUploadHandler(
	parser services.ResumeParserService,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		parser:      parser,
		maxFileSize: maxFileSize,
	}
}

func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, fiber.StatusBadRequest, "a resume file is required in the 'file' form field", "MISSING_FILE")
	}

	if fileHeader.Size > h.maxFileSize {
		return badRequest(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("file too large. Max size: %d bytes", h.maxFileSize), "FILE_TOO_LARGE")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, fiber.StatusBadRequest, "failed to read uploaded file", "INVALID_FILE")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
	if err != nil {
		return badRequest(c, fiber.StatusBadRequest, "failed to read uploaded file", "INVALID_FILE")
	}
	if int64(len(data)) > h.maxFileSize {
		return badRequest(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("file too large. Max size: %d bytes", h.maxFileSize), "FILE_TOO_LARGE")
	}
	if len(data) == 0 {
		return badRequest(c, fiber.StatusBadRequest, "uploaded file is empty", "EMPTY_FILE")
	}

	record, err := h.parser.ParseAndStore(c.UserContext(), services.UploadInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Data:        data,
		UploadIP:    c.IP(),
		UserAgent:   c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		DocumentID:          record.DocumentID.String(),
		Message:             "Resume uploaded and processed successfully",
		ExtractedResumeData: record.Data.Data(),
	})
}
