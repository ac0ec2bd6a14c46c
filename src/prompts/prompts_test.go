package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPresets(t *testing.T) {
	now := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

	research, err := System("Research", now)
	require.NoError(t, err)
	assert.Contains(t, research, "web_search")
	assert.Contains(t, research, "(Title, URL)")

	legal, err := System(Legal, now)
	require.NoError(t, err)
	assert.Contains(t, legal, "Heutiges Datum: 07.03.2025")

	_, err = System("poetry", now)
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestRelevanceShowsSnippetOnly(t *testing.T) {
	content := strings.Repeat("ä", SnippetLength+50)
	p := Relevance("recent QEC results", "Title", "https://x", content)

	assert.Contains(t, p, "Question: recent QEC results")
	assert.Contains(t, p, "Answer with YES or NO only.")
	assert.Contains(t, p, strings.Repeat("ä", SnippetLength)+"\n")
	assert.NotContains(t, p, strings.Repeat("ä", SnippetLength+1))
}

func TestSummaryIncludesWholePage(t *testing.T) {
	content := strings.Repeat("x", 1000)
	p := Summary("goal", content)
	assert.True(t, strings.HasSuffix(p, content))
	assert.Contains(t, p, "question: goal")
}
