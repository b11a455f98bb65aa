package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/ahrav/go-tribunal/infrastructure/llm"
)

// RegisterEvaluationTools registers the built-in tools judges may invoke
// during a run. These stand in for calls to external systems (rule stores,
// scoring services) and demonstrate the auto-invocation path end to end.
func RegisterEvaluationTools(registry *llm.ToolRegistry) error {
	if err := registry.Register(llm.Tool{
		Name:        "get_rules",
		Description: "Retrieve custom 'rules' or data from an external system.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What rules to look up.",
				},
			},
			"required": []string{"query"},
		},
		Func: getRules,
	}); err != nil {
		return err
	}

	return registry.Register(llm.Tool{
		Name:        "get_score",
		Description: "Returns a random 'score' for demonstration.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Func: getScore,
	})
}

// getRules is a placeholder for a call to an external rules service.
func getRules(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	return fmt.Sprintf("Mocked rules for query: %s", args.Query), nil
}

// getScore pretends to generate a score from external data.
func getScore(ctx context.Context, arguments string) (string, error) {
	// #nosec G404 - demonstration data, not security sensitive
	return strconv.Itoa(rand.Intn(100) + 1), nil
}
