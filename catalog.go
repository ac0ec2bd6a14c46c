package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/Protocol-Lattice/research-agent/src/models"
)

var (
	// ErrUnknownTool is reported when the model names a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrMissingArgument is reported when a required argument is absent.
	ErrMissingArgument = errors.New("missing required argument")
	// ErrInvalidArgument is reported when an argument has the wrong JSON type.
	ErrInvalidArgument = errors.New("invalid argument")
)

// InvocationError is a tool failure the model can react to. The agent
// reports it back into the conversation instead of aborting.
type InvocationError struct {
	Tool   string
	CallID string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// StaticToolCatalog is the default in-memory implementation of ToolCatalog used by the agent.
type StaticToolCatalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]ToolSpec
	order []string
}

// NewStaticToolCatalog constructs a catalog seeded with the provided tools.
func NewStaticToolCatalog(tools []Tool) *StaticToolCatalog {
	catalog := &StaticToolCatalog{
		tools: make(map[string]Tool),
		specs: make(map[string]ToolSpec),
	}
	for _, tool := range tools {
		_ = catalog.Register(tool)
	}
	return catalog
}

// Register adds a tool to the catalog using a lower-cased key. Duplicate names return an error.
func (c *StaticToolCatalog) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	key := strings.ToLower(strings.TrimSpace(spec.Name))
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[key]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	c.tools[key] = tool
	c.specs[key] = cloneSpec(spec)
	c.order = append(c.order, key)
	return nil
}

// Lookup returns the tool and its specification if present.
func (c *StaticToolCatalog) Lookup(name string) (Tool, ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	tool, ok := c.tools[key]
	if !ok {
		return nil, ToolSpec{}, false
	}
	return tool, cloneSpec(c.specs[key]), true
}

// Specs returns copies of the tool specifications in registration order.
func (c *StaticToolCatalog) Specs() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(c.order))
	for _, key := range c.order {
		specs = append(specs, cloneSpec(c.specs[key]))
	}
	return specs
}

// cloneSpec copies the parameter map so registered specs stay immutable.
func cloneSpec(spec ToolSpec) ToolSpec {
	if spec.Parameters == nil {
		return spec
	}
	params := make(map[string]Parameter, len(spec.Parameters))
	for name, p := range spec.Parameters {
		params[name] = p
	}
	spec.Parameters = params
	return spec
}

// Invoke validates call against the registered spec and runs the tool.
// Lookup and validation failures are returned as *InvocationError; handler
// errors are returned as the handler produced them.
func (c *StaticToolCatalog) Invoke(ctx context.Context, call models.ToolCall) (ToolResponse, error) {
	tool, spec, ok := c.Lookup(call.Name)
	if !ok {
		return ToolResponse{}, &InvocationError{Tool: call.Name, CallID: call.ID, Err: ErrUnknownTool}
	}
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := ValidateArguments(spec, args); err != nil {
		return ToolResponse{}, &InvocationError{Tool: spec.Name, CallID: call.ID, Err: err}
	}
	return tool.Invoke(ctx, ToolRequest{CallID: call.ID, Arguments: args})
}

// ValidateArguments checks that every required parameter is present and that
// declared parameters carry a value of their JSON type. Unknown arguments and
// unknown types pass.
func ValidateArguments(spec ToolSpec, args map[string]any) error {
	var errs []error
	for _, name := range spec.RequiredParameters() {
		v, ok := args[name]
		if !ok || v == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingArgument, name))
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingArgument, name))
		}
	}
	for name, param := range spec.Parameters {
		v, ok := args[name]
		if !ok || v == nil {
			continue
		}
		if !matchesType(param.Type, v) {
			errs = append(errs, fmt.Errorf("%w: %s must be %s, got %T", ErrInvalidArgument, name, param.Type, v))
		}
	}
	return errors.Join(errs...)
}

func matchesType(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number":
		_, ok := toFloat(v)
		return ok
	case "integer":
		f, ok := toFloat(v)
		return ok && f == math.Trunc(f)
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	default:
		return true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

var _ ToolCatalog = (*StaticToolCatalog)(nil)
