package llm

import "context"

// ToolDefinition describes a tool the model may call. Parameters is a
// JSON-schema-shaped structure passed through to the provider.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Runner is the abstract language-model capability consumed by the
// markdown conversion workflows. Implementations wrap a concrete
// provider; this module never talks to one directly.
type Runner interface {
	Run(ctx context.Context, history []Message, tools []ToolDefinition) (AIMessage, error)
}

// RunnerFactory builds independent runner instances, for workflows that
// need one conversation per page.
type RunnerFactory func() Runner
