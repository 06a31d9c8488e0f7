package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/trafficwatch/problem-service/internal/api/dto"
	"github.com/trafficwatch/problem-service/internal/auth"
	"github.com/trafficwatch/problem-service/internal/domain"
	"github.com/trafficwatch/problem-service/internal/service"
	apperrors "github.com/trafficwatch/problem-service/pkg/util"
)

// ProblemsHandler manages owner-scoped problem endpoints.
type ProblemsHandler struct {
	service *service.ProblemService
}

// NewProblemsHandler constructs handler.
func NewProblemsHandler(problemService *service.ProblemService) *ProblemsHandler {
	return &ProblemsHandler{service: problemService}
}

// Create POST /problems.
func (h *ProblemsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("Morate biti ulogovani")
	}
	var req dto.CreateProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.ProblemType == "" || req.Latitude == nil || req.Longitude == nil {
		return apperrors.NewValidationError("Naslov, tip problema i lokacija su obavezni", nil)
	}

	input := service.ProblemCreateInput{
		Title:            req.Title,
		Description:      req.Description,
		ProblemType:      req.ProblemType,
		ProposedSolution: req.ProposedSolution,
		Priority:         req.Priority,
		Status:           req.Status,
		Latitude:         *req.Latitude,
		Longitude:        *req.Longitude,
		ImageURL:         req.ImageURL,
	}
	problem, err := h.service.CreateProblem(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": problemBody(problem)})
}

// List GET /problems.
func (h *ProblemsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("Morate biti ulogovani")
	}
	status, ok := domain.ParseStatusFilter(c.Query("status"))
	if !ok {
		return apperrors.NewValidationError("Nevalidan status.", nil)
	}

	problems, err := h.service.ListProblems(c.Context(), principal.User.ID, status)
	if err != nil {
		return err
	}
	items := make([]dto.ProblemResponse, 0, len(problems))
	for i := range problems {
		items = append(items, problemBody(&problems[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /problems/:id.
func (h *ProblemsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("Morate biti ulogovani")
	}
	problem, err := h.service.GetProblem(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": problemBody(problem)})
}

// Update PUT /problems/:id.
func (h *ProblemsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("Morate biti ulogovani")
	}
	var req dto.UpdateProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ProblemUpdateInput{
		Title:            req.Title,
		Description:      req.Description,
		ProblemType:      req.ProblemType,
		ProposedSolution: req.ProposedSolution,
		Priority:         req.Priority,
		Status:           req.Status,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		ImageURL:         req.ImageURL,
	}
	problem, err := h.service.UpdateProblem(c.Context(), principal.User.ID, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": problemBody(problem)})
}

// Delete DELETE /problems/:id.
func (h *ProblemsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("Morate biti ulogovani")
	}
	if err := h.service.DeleteProblem(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Problem uspešno obrisan"})
}

func problemBody(p *domain.Problem) dto.ProblemResponse {
	return dto.ProblemResponse{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		ProblemType:      p.ProblemType,
		ProposedSolution: p.ProposedSolution,
		Priority:         p.Priority,
		Status:           p.Status,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		ImageURL:         p.ImageURL,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
