package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/syntheaweb/synthea-client/internal/errors"
)

func TestGenerateParams_Validate(t *testing.T) {
	tests := []struct {
		name        string
		params      GenerateParams
		expectError bool
		field       string
	}{
		{
			name:   "minimal valid",
			params: GenerateParams{PopulationSize: 1},
		},
		{
			name: "fully specified",
			params: GenerateParams{
				PopulationSize: 100,
				Gender:         GenderFemale,
				MinAge:         18,
				MaxAge:         65,
				State:          "Ohio",
				City:           "Columbus",
			},
		},
		{
			name:        "zero population",
			params:      GenerateParams{PopulationSize: 0},
			expectError: true,
			field:       "populationSize",
		},
		{
			name:        "negative population",
			params:      GenerateParams{PopulationSize: -5},
			expectError: true,
			field:       "populationSize",
		},
		{
			name:        "bad gender",
			params:      GenerateParams{PopulationSize: 1, Gender: "X"},
			expectError: true,
			field:       "gender",
		},
		{
			name:   "any gender",
			params: GenerateParams{PopulationSize: 1, Gender: GenderAny},
		},
		{
			name:        "min age without max",
			params:      GenerateParams{PopulationSize: 1, MinAge: 18},
			expectError: true,
		},
		{
			name:        "max age without min",
			params:      GenerateParams{PopulationSize: 1, MaxAge: 65},
			expectError: true,
		},
		{
			name:        "inverted age range",
			params:      GenerateParams{PopulationSize: 1, MinAge: 65, MaxAge: 18},
			expectError: true,
		},
		{
			name:        "negative age",
			params:      GenerateParams{PopulationSize: 1, MinAge: -1, MaxAge: 10},
			expectError: true,
		},
		{
			name:        "city without state",
			params:      GenerateParams{PopulationSize: 1, City: "Columbus"},
			expectError: true,
			field:       "city",
		},
		{
			name:   "state without city",
			params: GenerateParams{PopulationSize: 1, State: "Ohio"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if !tt.expectError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			if tt.field != "" {
				assert.Equal(t, tt.field, apperrors.GetField(err))
			}
		})
	}
}

func TestParseDownloadFormat(t *testing.T) {
	format, err := ParseDownloadFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	format, err = ParseDownloadFormat("fhir")
	require.NoError(t, err)
	assert.Equal(t, FormatFHIR, format)

	_, err = ParseDownloadFormat("xml")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "format", apperrors.GetField(err))
}
