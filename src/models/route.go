package models

import (
	"fmt"
	"strings"
)

// Backend identifies an inference service family.
type Backend string

const (
	BackendOllama    Backend = "ollama"
	BackendOpenAI    Backend = "openai"
	BackendAnthropic Backend = "anthropic"
	BackendGemini    Backend = "gemini"
)

type route struct {
	backend  Backend
	prefix   string
	contains string
}

// routes is matched top to bottom; gpt-oss must stay ahead of gpt-.
var routes = []route{
	{backend: BackendOllama, prefix: "gpt-oss", contains: "ollama"},
	{backend: BackendOpenAI, prefix: "gpt-", contains: "openai"},
	{backend: BackendAnthropic, prefix: "claude", contains: "anthropic"},
	{backend: BackendGemini, prefix: "gemini", contains: "google"},
}

// Route maps a model id to the backend that serves it.
func Route(model string) (Backend, error) {
	id := strings.ToLower(strings.TrimSpace(model))
	for _, r := range routes {
		if strings.HasPrefix(id, r.prefix) || strings.Contains(id, r.contains) {
			return r.backend, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, model)
}
