// Package tool exposes the agent's callable actions.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/capitalize-ai/announcement-agent/internal/llm"
	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/pkg/metrics"
	"github.com/capitalize-ai/announcement-agent/pkg/tracing"
)

// ErrUnknownTool is reported when a model asks for a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Handler runs a tool. It returns a JSON object string in every case; a
// non-nil error only annotates a failure already encoded in the result.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool couples a definition with its handler.
type Tool struct {
	Definition llm.ToolDefinition
	Handler    Handler
}

// Registry dispatches tool invocations by name.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a registry holding tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Definition.Name] = t
	}
	return r
}

// Definitions lists registered tools sorted by name.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs one invocation. The returned string is always a JSON object
// suitable as a tool result, including for unknown tools.
func (r *Registry) Execute(ctx context.Context, call model.ToolInvocation) (string, error) {
	ctx, span := tracing.Tracer("tool").Start(ctx, "tool.execute")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", call.Name))

	t, ok := r.tools[call.Name]
	if !ok {
		metrics.RecordToolCall("unknown", "error")
		err := fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
		span.SetStatus(codes.Error, err.Error())
		return errorResult(err.Error()), err
	}

	out, err := t.Handler(ctx, call.Arguments)
	if err != nil {
		metrics.RecordToolCall(call.Name, "error")
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}

	metrics.RecordToolCall(call.Name, "success")
	return out, nil
}

func errorResult(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

// decodeArgs converts a loosely typed argument map into dst.
func decodeArgs(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
