package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntheaweb/synthea-client/internal/domain/model"
)

func TestQuery_ProjectsStructsByJSONName(t *testing.T) {
	runs := []model.Run{
		{RunID: "run-1", State: "Ohio", PopulationSize: 100},
		{RunID: "run-2", State: "Texas", PopulationSize: 250},
	}

	result, err := Query("[].runId", runs)
	require.NoError(t, err)
	assert.Equal(t, []any{"run-1", "run-2"}, result)
}

func TestQuery_Filters(t *testing.T) {
	runs := []model.Run{
		{RunID: "run-1", PopulationSize: 100},
		{RunID: "run-2", PopulationSize: 250},
	}

	result, err := Query("[?populationSize > `200`].runId | [0]", runs)
	require.NoError(t, err)
	assert.Equal(t, "run-2", result)
}

func TestQuery_NoMatchIsNil(t *testing.T) {
	result, err := Query("missing", map[string]string{"present": "x"})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestQuery_InvalidExpression(t *testing.T) {
	_, err := Query("[invalid", map[string]string{})
	assert.Error(t, err)
}
