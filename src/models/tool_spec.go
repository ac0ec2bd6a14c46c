package models

import "sort"

// Parameter describes one argument of a tool.
type Parameter struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolSpec is the declaration of a callable tool as shown to the model.
type ToolSpec struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]Parameter `json:"parameters"`
}

// RequiredParameters returns the names of required parameters, sorted.
func (s ToolSpec) RequiredParameters() []string {
	var names []string
	for name, p := range s.Parameters {
		if p.Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ParameterNames returns all parameter names, sorted.
func (s ToolSpec) ParameterNames() []string {
	names := make([]string, 0, len(s.Parameters))
	for name := range s.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InputSchema renders the parameters as a JSON schema object.
func (s ToolSpec) InputSchema() map[string]any {
	props := make(map[string]any, len(s.Parameters))
	for name, p := range s.Parameters {
		props[name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := s.RequiredParameters(); len(req) > 0 {
		schema["required"] = req
	}
	return schema
}

// FunctionSchema renders the spec in the OpenAI function-tool format, which
// the Ollama chat API accepts as well.
func (s ToolSpec) FunctionSchema() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"parameters":  s.InputSchema(),
		},
	}
}
