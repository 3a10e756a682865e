package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/models"
)

var kindStatus = []struct {
	kind   error
	status int
}{
	{common.ErrUnsupportedFormat, fiber.StatusUnprocessableEntity},
	{common.ErrExtractionFailure, fiber.StatusUnprocessableEntity},
	{common.ErrEmptyDocument, fiber.StatusUnprocessableEntity},
	{common.ErrExtractionValidationFailure, fiber.StatusBadGateway},
	{common.ErrExtractionServiceUnavailable, fiber.StatusServiceUnavailable},
	{common.ErrExtractionTimeout, fiber.StatusGatewayTimeout},
	{common.ErrPersistence, fiber.StatusInternalServerError},
	{common.ErrNotFound, fiber.StatusNotFound},
}

// StatusFor maps a pipeline error to its HTTP status.
func StatusFor(err error) int {
	kind := common.Kind(err)
	for _, ks := range kindStatus {
		if ks.kind == kind {
			return ks.status
		}
	}
	return fiber.StatusInternalServerError
}

// respondError writes the JSON error body for err.
func respondError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)

	message := err.Error()
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ %s %s failed: %v", c.Method(), c.Path(), err)
		if appErr == nil {
			message = "internal server error"
		}
	}

	body := models.ErrorResponse{
		Error:  message,
		Detail: common.Code(err),
	}
	for _, f := range common.Fields(err) {
		body.Fields = append(body.Fields, models.FieldIssue{Field: f.Field, Message: f.Message})
	}

	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, status int, message, detail string) error {
	return c.Status(status).JSON(models.ErrorResponse{
		Error:  message,
		Detail: detail,
	})
}
