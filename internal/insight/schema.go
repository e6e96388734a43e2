package insight

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/easeaico/mindmate/internal/types"
	"github.com/easeaico/mindmate/internal/utils"
)

var (
	schemaOnce     sync.Once
	resolvedSchema *jsonschema.Resolved
	schemaErr      error
)

func insightsSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		schema, err := jsonschema.For[types.Insights](nil)
		if err != nil {
			schemaErr = fmt.Errorf("failed to infer insights schema: %w", err)
			return
		}
		resolvedSchema, schemaErr = schema.Resolve(nil)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to resolve insights schema: %w", schemaErr)
		}
	})
	return resolvedSchema, schemaErr
}

// SchemaJSON returns the insights schema for embedding in prompts.
func SchemaJSON() string {
	schema, err := jsonschema.For[types.Insights](nil)
	if err != nil {
		return ""
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return ""
	}
	return string(data)
}

// ParseInsights decodes raw model output and validates it against the
// insights schema.
func ParseInsights(raw string) (types.Insights, error) {
	resolved, err := insightsSchema()
	if err != nil {
		return types.Insights{}, err
	}

	clean, err := utils.ExtractJSONObject(raw)
	if err != nil {
		return types.Insights{}, err
	}

	var instance map[string]any
	if err := json.Unmarshal([]byte(clean), &instance); err != nil {
		return types.Insights{}, fmt.Errorf("failed to parse insights: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return types.Insights{}, fmt.Errorf("insights do not match schema: %w", err)
	}

	var out types.Insights
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return types.Insights{}, fmt.Errorf("failed to decode insights: %w", err)
	}
	if out.OverallMood == "" || len(out.Recommendations) == 0 {
		return types.Insights{}, fmt.Errorf("insights missing mood summary or recommendations")
	}
	return normalize(out), nil
}

func normalize(in types.Insights) types.Insights {
	if in.AreasOfStrength == nil {
		in.AreasOfStrength = []string{}
	}
	if in.AreasForGrowth == nil {
		in.AreasForGrowth = []string{}
	}
	if in.Recommendations == nil {
		in.Recommendations = []string{}
	}
	if in.Patterns == nil {
		in.Patterns = []string{}
	}
	return in
}
