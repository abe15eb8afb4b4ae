package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dinnerplanner"
	"dinnerplanner/tools/storage"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a tool registry over the provider sources and the
// planning coordinator.
func NewRegistry(src storage.Sources, coord dinnerplanner.Coordinator, now func() time.Time) (*Registry, error) {
	if coord == nil {
		return nil, fmt.Errorf("registry requires a coordinator")
	}
	tools := map[string]Tool{
		"pantry_get":  NewPantryGet(src, now),
		"recipe_get":  NewRecipeGet(src),
		"dinner_plan": NewDinnerPlan(coord),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry sorted by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}

// Dispatch runs a call against the named tool.
func (r Registry) Dispatch(ctx context.Context, call Call) (map[string]any, error) {
	tool, err := r.GetTool(call.Name)
	if err != nil {
		return nil, err
	}
	return tool.Run(ctx, call.Input)
}
