package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/Protocol-Lattice/research-agent"
	"github.com/Protocol-Lattice/research-agent/src/curate"
	"github.com/Protocol-Lattice/research-agent/src/models"
)

func TestScriptedRunProducesCitedAnswer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := &models.ScriptedProvider{Fallback: demoScript}
	d := models.NewDispatcher(map[models.Backend]models.Provider{models.BackendOllama: p})

	curator := &curate.Curator{Querier: d, Model: "gpt-oss:20b", RelevanceFilter: true, Logger: logger}
	ag, err := agent.New(agent.Options{
		Querier: d,
		Model:   "gpt-oss:20b",
		Tools:   []agent.Tool{agent.NewWebSearchTool(demoSearch, curator, 8)},
		Logger:  logger,
	})
	require.NoError(t, err)

	answer, err := ag.Ask(context.Background(), "quantum error correction")
	require.NoError(t, err)
	assert.Contains(t, answer, "https://example.org/surface-code")
	assert.Contains(t, answer, "https://example.org/cat-qubits")
	assert.NotContains(t, answer, "https://example.org/ads", "denylisted result leaked into the answer")
}

func TestReadQuestionPrefersFlag(t *testing.T) {
	q, err := readQuestion("  what is QEC?  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "  what is QEC?  ", q)
}
