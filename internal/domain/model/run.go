package model

import (
	"time"

	apperrors "github.com/syntheaweb/synthea-client/internal/errors"
)

// Run is a stored generation run as returned by the runs endpoints.
type Run struct {
	RunID          string    `json:"runId"`
	CreatedAt      time.Time `json:"createdAt"`
	State          string    `json:"state,omitempty"`
	City           string    `json:"city,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	PopulationSize int       `json:"populationSize,omitempty"`
	MinAge         int       `json:"minAge,omitempty"`
	MaxAge         int       `json:"maxAge,omitempty"`
}

// Gender values accepted by the generation endpoint.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderAny    = "ANY"
)

// DownloadFormat identifies an export format for generated data.
type DownloadFormat string

const (
	FormatCSV  DownloadFormat = "csv"
	FormatFHIR DownloadFormat = "fhir"
)

// ParseDownloadFormat validates a user-supplied format string.
func ParseDownloadFormat(s string) (DownloadFormat, error) {
	switch DownloadFormat(s) {
	case FormatCSV, FormatFHIR:
		return DownloadFormat(s), nil
	default:
		return "", apperrors.ValidationField("format", "format must be csv or fhir")
	}
}

// GenerateParams are the demographic parameters for a generation request.
type GenerateParams struct {
	PopulationSize int    `json:"populationSize"`
	Gender         string `json:"gender,omitempty"`
	MinAge         int    `json:"minAge,omitempty"`
	MaxAge         int    `json:"maxAge,omitempty"`
	State          string `json:"state,omitempty"`
	City           string `json:"city,omitempty"`
}

// Validate applies the same guardrails the generation form enforces.
func (p GenerateParams) Validate() error {
	if p.PopulationSize < 1 {
		return apperrors.ValidationField("populationSize", "population size must be at least 1")
	}
	switch p.Gender {
	case "", GenderMale, GenderFemale, GenderAny:
	default:
		return apperrors.ValidationField("gender", "gender must be M, F, or ANY")
	}
	// Age bounds come as a pair; one without the other is a form error.
	if (p.MinAge == 0) != (p.MaxAge == 0) {
		return apperrors.Validation("minimum and maximum age must be set together")
	}
	if p.MinAge < 0 || p.MaxAge < 0 {
		return apperrors.Validation("ages must not be negative")
	}
	if p.MaxAge != 0 && p.MinAge > p.MaxAge {
		return apperrors.Validation("minimum age must not exceed maximum age")
	}
	if p.City != "" && p.State == "" {
		return apperrors.ValidationField("city", "city requires a federal state")
	}
	return nil
}

// GenerateResult is the payload of a successful generation request.
type GenerateResult struct {
	Message string `json:"message"`
	RunID   string `json:"runID"`
}
