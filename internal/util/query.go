package util

import (
	"encoding/json"
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Query applies a JMESPath expression to an arbitrary value. The value is
// round-tripped through JSON so struct fields are addressed by their JSON
// names, matching what the server returns.
func Query(expression string, data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal query input: %w", err)
	}

	var generic any
	if err = json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal query input: %w", err)
	}

	result, err := jmespath.Search(expression, generic)
	if err != nil {
		return nil, fmt.Errorf("evaluate query %q: %w", expression, err)
	}
	return result, nil
}
