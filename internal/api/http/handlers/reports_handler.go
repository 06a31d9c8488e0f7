package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/trafficwatch/problem-service/internal/auth"
	"github.com/trafficwatch/problem-service/internal/domain"
	"github.com/trafficwatch/problem-service/internal/report"
	apperrors "github.com/trafficwatch/problem-service/pkg/util"
)

// ReportsHandler serves the PDF report endpoint.
type ReportsHandler struct {
	generator *report.Generator
}

// NewReportsHandler constructs handler.
func NewReportsHandler(generator *report.Generator) *ReportsHandler {
	return &ReportsHandler{generator: generator}
}

// Problems GET /reports/problems. The optional status query is either a
// member of the closed status set or the "svi" sentinel meaning all.
func (h *ReportsHandler) Problems(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("Morate biti ulogovani")
	}

	status, ok := domain.ParseStatusFilter(c.Query("status"))
	if !ok {
		return apperrors.NewValidationError("Nevalidan status.", nil)
	}

	data, filename, err := h.generator.Generate(c.UserContext(), principal.User.ID, status)
	if err != nil {
		return apperrors.NewInternal("Greška pri generisanju PDF-a.", err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}
