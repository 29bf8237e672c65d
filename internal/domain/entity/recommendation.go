package entity

import "strings"

type RecommendationRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// Normalize trims the user id in place.
func (r *RecommendationRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

type Recommendation struct {
	ProductID   string   `json:"product_id"`
	ProductName string   `json:"product_name"`
	Score       float64  `json:"score"`
	SourceEvent string   `json:"source_event"`
	Explanation string   `json:"explanation"`
	Evidence    []string `json:"evidence"`

	// Cached marks an explanation served from the cache. Never serialised.
	Cached bool `json:"-"`
}

type RecommendationResponse struct {
	UserID          string           `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Candidate is a scored product before explanation and naming.
type Candidate struct {
	ProductID   string
	Score       float64
	SourceEvent string
}
