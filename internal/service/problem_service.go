package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trafficwatch/problem-service/internal/domain"
	"github.com/trafficwatch/problem-service/internal/events"
	"github.com/trafficwatch/problem-service/internal/repository"
	apperrors "github.com/trafficwatch/problem-service/pkg/util"
)

// ProblemService coordinates owner-scoped problem workflows. All single-record
// operations resolve through the ownership predicate, so a foreign record id
// surfaces exactly like a missing one.
type ProblemService struct {
	problems   repository.ProblemRepository
	dispatcher events.Dispatcher
}

// ProblemCreateInput describes the creation payload.
type ProblemCreateInput struct {
	Title            string
	Description      *string
	ProblemType      string
	ProposedSolution *string
	Priority         domain.ProblemPriority
	Status           domain.ProblemStatus
	Latitude         float64
	Longitude        float64
	ImageURL         *string
}

// ProblemUpdateInput carries a lenient partial update. Nil fields keep their
// prior value; empty strings on optional text fields clear to unset.
type ProblemUpdateInput struct {
	Title            *string
	Description      *string
	ProblemType      *string
	ProposedSolution *string
	Priority         *domain.ProblemPriority
	Status           *domain.ProblemStatus
	Latitude         *float64
	Longitude        *float64
	ImageURL         *string
}

// NewProblemService constructs the service.
func NewProblemService(problems repository.ProblemRepository, dispatcher events.Dispatcher) *ProblemService {
	return &ProblemService{problems: problems, dispatcher: dispatcher}
}

// CreateProblem validates and stores a new problem owned by ownerID.
func (s *ProblemService) CreateProblem(ctx context.Context, ownerID string, input ProblemCreateInput) (*domain.Problem, error) {
	title := strings.TrimSpace(input.Title)
	problemType := strings.TrimSpace(input.ProblemType)
	if title == "" || problemType == "" {
		return nil, apperrors.NewValidationError("title and problemType required", nil)
	}
	if !domain.FiniteCoordinate(input.Latitude) || !domain.FiniteCoordinate(input.Longitude) {
		return nil, apperrors.NewValidationError("latitude and longitude must be finite numbers", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.ProblemPrioritySrednji
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", nil)
	}
	status := input.Status
	if status == "" {
		status = domain.ProblemStatusPrijavljeno
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", nil)
	}

	problem := &domain.Problem{
		UserID:           ownerID,
		Title:            title,
		Description:      normalizeOptional(input.Description),
		ProblemType:      problemType,
		ProposedSolution: normalizeOptional(input.ProposedSolution),
		Priority:         priority,
		Status:           status,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
		ImageURL:         normalizeOptional(input.ImageURL),
	}
	if err := s.problems.Create(ctx, problem); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProblemCreated,
		ProblemID: problem.ID,
		UserID:    ownerID,
		Payload: events.ProblemCreatedPayload{
			Title:       problem.Title,
			ProblemType: problem.ProblemType,
			Priority:    problem.Priority,
			Status:      problem.Status,
			Latitude:    problem.Latitude,
			Longitude:   problem.Longitude,
		},
	})
	return problem, nil
}

// ListProblems returns the owner's problems, newest first, optionally
// restricted to one status.
func (s *ProblemService) ListProblems(ctx context.Context, ownerID string, status *domain.ProblemStatus) ([]domain.Problem, error) {
	return s.problems.ListByOwner(ctx, ownerID, status)
}

// GetProblem fetches one owner-scoped problem. A malformed id can never match
// a record, so it is the same NotFound as an unknown one; it must not reach
// the uuid column and come back as a driver error.
func (s *ProblemService) GetProblem(ctx context.Context, ownerID, id string) (*domain.Problem, error) {
	if uuid.Validate(id) != nil {
		return nil, apperrors.NewNotFound("problem", nil)
	}
	problem, err := s.problems.GetForOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("problem", nil)
		}
		return nil, err
	}
	return problem, nil
}

// UpdateProblem applies a lenient partial update to an owner-scoped problem.
func (s *ProblemService) UpdateProblem(ctx context.Context, ownerID, id string, input ProblemUpdateInput) (*domain.Problem, error) {
	problem, err := s.GetProblem(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	oldStatus := problem.Status

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title must not be empty", nil)
		}
		problem.Title = title
	}
	if input.ProblemType != nil {
		problemType := strings.TrimSpace(*input.ProblemType)
		if problemType == "" {
			return nil, apperrors.NewValidationError("problemType must not be empty", nil)
		}
		problem.ProblemType = problemType
	}
	if input.Description != nil {
		problem.Description = normalizeOptional(input.Description)
	}
	if input.ProposedSolution != nil {
		problem.ProposedSolution = normalizeOptional(input.ProposedSolution)
	}
	if input.ImageURL != nil {
		problem.ImageURL = normalizeOptional(input.ImageURL)
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", nil)
		}
		problem.Priority = *input.Priority
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", nil)
		}
		problem.Status = *input.Status
	}
	if input.Latitude != nil {
		if !domain.FiniteCoordinate(*input.Latitude) {
			return nil, apperrors.NewValidationError("latitude must be a finite number", nil)
		}
		problem.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		if !domain.FiniteCoordinate(*input.Longitude) {
			return nil, apperrors.NewValidationError("longitude must be a finite number", nil)
		}
		problem.Longitude = *input.Longitude
	}

	if err := s.problems.Update(ctx, problem); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("problem", nil)
		}
		return nil, err
	}

	if problem.Status != oldStatus {
		s.publish(ctx, events.Event{
			Type:      events.EventProblemStatusChanged,
			ProblemID: problem.ID,
			UserID:    ownerID,
			Payload: events.ProblemStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: problem.Status,
			},
		})
	}
	return problem, nil
}

// DeleteProblem removes an owner-scoped problem.
func (s *ProblemService) DeleteProblem(ctx context.Context, ownerID, id string) error {
	problem, err := s.GetProblem(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.problems.DeleteForOwner(ctx, ownerID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("problem", nil)
		}
		return err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProblemDeleted,
		ProblemID: id,
		UserID:    ownerID,
		Payload:   events.ProblemDeletedPayload{Title: problem.Title},
	})
	return nil
}

func (s *ProblemService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// normalizeOptional maps empty strings to unset so optional text fields never
// persist as "".
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
