package dataapi

import (
	"github.com/rafaeljc/bifrost/internal/copydoc"
	"github.com/rafaeljc/bifrost/internal/experiment"
)

// ExperimentResponse describes a registered experiment.
type ExperimentResponse struct {
	ID       string               `json:"id"`
	Enabled  bool                 `json:"enabled"`
	Variants []experiment.Variant `json:"variants"`
	Exposed  bool                 `json:"exposed"`
}

// ListResponse wraps list endpoints.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// AssignmentResponse is the variant served to the current installation.
// Degraded is true when no bucket identity was available and the default variant was used.
type AssignmentResponse struct {
	ExperimentID string `json:"experiment_id"`
	Variant      string `json:"variant"`
	UserID       string `json:"user_id,omitempty"`
	Degraded     bool   `json:"degraded"`
}

// ExposureResponse reports whether this call emitted the exposure event.
type ExposureResponse struct {
	ExperimentID string `json:"experiment_id"`
	Variant      string `json:"variant"`
	Emitted      bool   `json:"emitted"`
}

// ConversionRequest is the payload of POST /experiments/{id}/conversions.
type ConversionRequest struct {
	// Event is the analytics event name (e.g., "onboarding_cta_click").
	Event string `json:"event" validate:"required,max=40"`

	// Params are merged into the event; experiment fields take precedence.
	Params map[string]any `json:"params,omitempty" validate:"max=25"`
}

// CopyResponse is a resolved copy string.
type CopyResponse struct {
	Path     string `json:"path,omitempty"`
	Key      string `json:"key,omitempty"`
	Language string `json:"language"`
	Value    string `json:"value"`
}

// CopyStatusResponse exposes the merged document diagnostics.
type CopyStatusResponse struct {
	copydoc.Status
	DefaultLanguage string `json:"language"`
}

// ErrorResponse represents a standard structured API error.
type ErrorResponse struct {
	// Code is a machine-readable error code (e.g., "ERR_INVALID_INPUT").
	Code string `json:"code"`

	// Message is a human-readable description of the error.
	Message string `json:"message"`
}
