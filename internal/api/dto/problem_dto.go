package dto

import (
	"time"

	"github.com/trafficwatch/problem-service/internal/domain"
)

// CreateProblemRequest payload. Field names match the map client.
type CreateProblemRequest struct {
	Title            string                 `json:"title"`
	Description      *string                `json:"description"`
	ProblemType      string                 `json:"problemType"`
	ProposedSolution *string                `json:"proposedSolution"`
	Priority         domain.ProblemPriority `json:"priority"`
	Status           domain.ProblemStatus   `json:"status"`
	Latitude         *float64               `json:"latitude"`
	Longitude        *float64               `json:"longitude"`
	ImageURL         *string                `json:"imageUrl"`
}

// UpdateProblemRequest is a lenient partial update: absent fields keep prior
// values, empty strings clear optional text fields.
type UpdateProblemRequest struct {
	Title            *string                 `json:"title"`
	Description      *string                 `json:"description"`
	ProblemType      *string                 `json:"problemType"`
	ProposedSolution *string                 `json:"proposedSolution"`
	Priority         *domain.ProblemPriority `json:"priority"`
	Status           *domain.ProblemStatus   `json:"status"`
	Latitude         *float64                `json:"latitude"`
	Longitude        *float64                `json:"longitude"`
	ImageURL         *string                 `json:"imageUrl"`
}

// ProblemResponse mirrors the stored record.
type ProblemResponse struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Description      *string                `json:"description"`
	ProblemType      string                 `json:"problemType"`
	ProposedSolution *string                `json:"proposedSolution"`
	Priority         domain.ProblemPriority `json:"priority"`
	Status           domain.ProblemStatus   `json:"status"`
	Latitude         float64                `json:"latitude"`
	Longitude        float64                `json:"longitude"`
	ImageURL         *string                `json:"imageUrl"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// UploadResponse returns the public URL of a stored image.
type UploadResponse struct {
	URL string `json:"url"`
}
