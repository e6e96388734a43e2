package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject returns the outermost {...} span of raw, tolerating code
// fences and surrounding prose.
func ExtractJSONObject(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object found")
	}
	return clean[start : end+1], nil
}

// DecodeJSONObject extracts a JSON object from raw model output and decodes it into v.
func DecodeJSONObject(raw string, v any) error {
	clean, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("failed to parse model output: %w", err)
	}
	return nil
}
