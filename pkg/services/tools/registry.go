package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/metrics"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/api"
)

// Handler runs one tool with its raw JSON arguments and returns a JSON-serializable result.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type Tool struct {
	Name        string
	Description string
	InputSchema Schema
	Handler     Handler
}

// Registry maps tool names to their definitions.
type Registry interface {
	// Register adds a tool; names must be unique.
	Register(tool Tool) error
	// Get returns the tool registered under name.
	Get(name string) (Tool, bool)
	// List returns all tools sorted by name.
	List() []Tool
	// Call invokes a tool. Failures come back as a structured tool error, never a raw error.
	Call(ctx context.Context, name string, args json.RawMessage) (any, *api.ToolError)
}

type registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() Registry {
	return &registry{
		tools: make(map[string]Tool),
	}
}

func (r *registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %q has no handler", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %q is already registered", tool.Name)
	}
	if tool.InputSchema == nil {
		tool.InputSchema = Object(nil)
	}
	r.tools[tool.Name] = tool
	return nil
}

func (r *registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

func (r *registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *registry) Call(ctx context.Context, name string, args json.RawMessage) (any, *api.ToolError) {
	logger := zerolog.Ctx(ctx).With().
		Str("tool", name).
		Str("invocation_id", uuid.NewString()).
		Logger()
	ctx = logger.WithContext(ctx)

	tool, ok := r.Get(name)
	if !ok {
		metrics.RecordToolCall(name, CodeInvalidArgument)
		return nil, &api.ToolError{Operation: name, Code: CodeInvalidArgument, Message: fmt.Sprintf("unknown tool %q", name)}
	}

	started := time.Now()
	result, err := tool.Handler(ctx, args)
	if err != nil {
		toolErr := ToToolError(name, err)
		metrics.RecordToolCall(name, toolErr.Code)
		logger.Error().Err(err).Str("code", toolErr.Code).Dur("elapsed", time.Since(started)).Msg("tool call failed")
		return nil, toolErr
	}

	metrics.RecordToolCall(name, codeOK)
	logger.Info().Dur("elapsed", time.Since(started)).Msg("tool call completed")
	return result, nil
}
