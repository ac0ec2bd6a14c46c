// Package prompts holds the fixed prompt texts used by the agent and the
// result curator.
package prompts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnknownPreset is returned by System for names that are not registered.
var ErrUnknownPreset = errors.New("unknown prompt preset")

// Preset names.
const (
	Research = "research"
	Legal    = "legal"
)

// SnippetLength bounds the page text shown to the relevance judge.
const SnippetLength = 300

const researchPrompt = `You are a research assistant.

When answering:
1. If you need external information, call the web_search tool with a precise query and a short query_goal describing what the results should help you answer.
2. When search results are provided (JSON with title, url and raw_content):
   - Read them carefully.
   - Write a clear academic-style summary (2-4 paragraphs).
   - Ground all claims in the provided results.
   - Cite sources inline using (Title, URL).
   - Do not fabricate references. Only use titles and URLs from the given results.
   - Do not output JSON unless explicitly asked.
   - Your final answer must be natural language prose, not a list of citations.

You may run several searches to refine or complete your findings.
Your goal: deliver a concise research-style overview with correct references.`

const legalPromptTemplate = "Du bist ein juristischer Rechercheassistent. " +
	"Heutiges Datum: %s\n" +
	"Beantworte juristische Fragen präzise, faktenbasiert und mit Quellenangaben. " +
	"Wenn Informationen fehlen oder aktualisiert werden müssen, nutze das Tool web_search, " +
	"um gezielt nach Gesetzen, Urteilen, Kommentaren, Nachrichtenartikeln oder anderen " +
	"relevanten Informationen zu suchen. " +
	"Du darfst mehrere Rechercheschritte durchführen, um Ergebnisse zu verfeinern oder zu ergänzen.\n" +
	"Verarbeite die bereitgestellten Suchzusammenfassungen aktiv in deiner Antwort.\n" +
	"Zitiere Quellen inline in der Form (Titel, URL), erfinde keine.\n" +
	"Formuliere klar, juristisch korrekt und strukturiert.\n" +
	"Antworte in natürlicher Sprache, nicht in JSON.\n" +
	"Ziel: Eine prägnante, quellenbasierte juristische Einschätzung."

var presets = map[string]func(now time.Time) string{
	Research: func(time.Time) string { return researchPrompt },
	Legal: func(now time.Time) string {
		return fmt.Sprintf(legalPromptTemplate, now.Format("02.01.2006"))
	},
}

// Names lists the registered presets.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// System renders the named system prompt. Presets that mention the date use now.
func System(name string, now time.Time) (string, error) {
	render, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownPreset, name, strings.Join(Names(), ", "))
	}
	return render(now), nil
}

// Relevance asks for a YES/NO verdict on a single search result.
func Relevance(goal, title, url, content string) string {
	var sb strings.Builder
	sb.WriteString("You are evaluating a web search result and should decide if this result is relevant to answering the question\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", goal)
	sb.WriteString("Web search result:\n")
	fmt.Fprintf(&sb, "Title: %s\n", title)
	fmt.Fprintf(&sb, "URL: %s\n", url)
	fmt.Fprintf(&sb, "Snippet: %s\n\n", Snippet(content))
	sb.WriteString("Is this result relevant to answering the question?\n")
	sb.WriteString("Answer with YES or NO only.")
	return sb.String()
}

// Summary asks for a goal-conditioned summary of a page.
func Summary(goal, content string) string {
	return fmt.Sprintf("You are processing a web search result. For the given user question: %s\n"+
		"Write a short summary for the following search result in context of the given question. "+
		"Answer directly with the summary, do not leave out key points.\n"+
		"This is the search result: \n%s", goal, content)
}

// Snippet returns the first SnippetLength runes of content.
func Snippet(content string) string {
	r := []rune(content)
	if len(r) <= SnippetLength {
		return content
	}
	return string(r[:SnippetLength])
}
