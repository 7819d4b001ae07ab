package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseJSON decodes the first JSON object in a model answer into T.
// Markdown fences and any prose before or after the object are ignored.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	start := strings.IndexByte(response, '{')
	if start < 0 {
		return zero, errors.New("no JSON object found in response")
	}

	var res T
	// Decode stops after one value, so trailing text never reaches the parser.
	if err := json.NewDecoder(strings.NewReader(response[start:])).Decode(&res); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return res, nil
}
