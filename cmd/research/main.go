// Command research asks the research agent one question and prints the answer.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"

	agent "github.com/Protocol-Lattice/research-agent"
	"github.com/Protocol-Lattice/research-agent/src/config"
	"github.com/Protocol-Lattice/research-agent/src/curate"
	"github.com/Protocol-Lattice/research-agent/src/models"
	"github.com/Protocol-Lattice/research-agent/src/prompts"
	"github.com/Protocol-Lattice/research-agent/src/search"
	"github.com/Protocol-Lattice/research-agent/src/search/store"
)

const defaultQuestion = `Summarize the latest breakthroughs in quantum error correction
and superconducting qubits research. Provide references if possible.`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	model := flag.String("model", cfg.Model, "Model id; routes to ollama, openai, anthropic or gemini")
	curationModel := flag.String("curation-model", cfg.CurationModel, "Model id for relevance and summary calls (defaults to -model)")
	prompt := flag.String("prompt", cfg.Prompt, "System prompt preset: "+strings.Join(prompts.Names(), ", "))
	filter := flag.Bool("filter", cfg.RelevanceFilter, "Judge and summarize every search result with the model")
	question := flag.String("question", "", "Question to ask; read from stdin when empty and stdin is piped")
	maxResults := flag.Int("max-results", cfg.MaxResults, "Search results requested per web_search call")
	maxRounds := flag.Int("max-rounds", cfg.MaxRounds, "Maximum model calls per question")
	timeout := flag.Duration("timeout", cfg.CallTimeout, "Timeout for each model call")
	searchBackend := flag.String("search", cfg.SearchBackend, "Search backend: tavily or ollama")
	searchCache := flag.String("cache", cfg.SearchCache, "Search cache: none, memory, redis, postgres or mongo")
	utcpProviders := flag.String("utcp-providers", cfg.UTCPProviders, "UTCP providers file whose tools are offered to the model")
	scripted := flag.Bool("scripted", false, "Run offline with a scripted model and canned search results")
	verbose := flag.Bool("v", false, "Log debug output, including model thinking")
	flag.Parse()

	cfg.Model = *model
	cfg.CurationModel = *curationModel
	cfg.Prompt = *prompt
	cfg.RelevanceFilter = *filter
	cfg.MaxResults = *maxResults
	cfg.MaxRounds = *maxRounds
	cfg.CallTimeout = *timeout
	cfg.SearchBackend = *searchBackend
	cfg.SearchCache = *searchCache
	cfg.UTCPProviders = *utcpProviders
	if *scripted {
		cfg.SearchCache = config.CacheNone
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	text, err := readQuestion(*question, os.Stdin)
	if err != nil {
		log.Fatalf("failed to read question: %v", err)
	}

	var (
		providers map[models.Backend]models.Provider
		backend   search.Backend
		cleanup   = func() {}
	)
	if *scripted {
		p := &models.ScriptedProvider{Fallback: demoScript}
		providers = map[models.Backend]models.Provider{
			models.BackendOllama:    p,
			models.BackendOpenAI:    p,
			models.BackendAnthropic: p,
			models.BackendGemini:    p,
		}
		backend = demoSearch
	} else {
		providers, cleanup, err = buildProviders(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to create model providers: %v", err)
		}
		var closeStore func()
		backend, closeStore, err = buildSearch(ctx, cfg, logger)
		if err != nil {
			cleanup()
			log.Fatalf("failed to create search backend: %v", err)
		}
		closeProviders := cleanup
		cleanup = func() {
			closeStore()
			closeProviders()
		}
	}
	defer cleanup()

	cached := make(map[models.Backend]models.Provider, len(providers))
	for b, p := range providers {
		cached[b] = models.NewCachedProvider(p, 512, time.Hour)
	}

	curator := &curate.Curator{
		Querier:         models.NewDispatcher(cached),
		Model:           cfg.EffectiveCurationModel(),
		RelevanceFilter: cfg.RelevanceFilter,
		Concurrency:     cfg.Concurrency,
		CallTimeout:     cfg.CallTimeout,
		Logger:          logger,
	}

	systemPrompt, err := prompts.System(cfg.Prompt, time.Now())
	if err != nil {
		log.Fatalf("failed to render prompt: %v", err)
	}

	var utcpClient agent.UTCPClient
	if cfg.UTCPProviders != "" && !*scripted {
		client, err := utcp.NewUTCPClient(ctx, &utcp.UtcpClientConfig{ProvidersFilePath: cfg.UTCPProviders}, nil, nil)
		if err != nil {
			log.Fatalf("failed to create utcp client: %v", err)
		}
		utcpClient = client
	}

	ag, err := agent.New(agent.Options{
		Querier:       models.NewDispatcher(providers),
		Model:         cfg.Model,
		SystemPrompt:  systemPrompt,
		Temperature:   cfg.Temperature,
		Reasoning:     cfg.Reasoning,
		Thinking:      cfg.Thinking,
		MaxRounds:     cfg.MaxRounds,
		CallTimeout:   cfg.CallTimeout,
		Tools:         []agent.Tool{agent.NewWebSearchTool(backend, curator, cfg.MaxResults)},
		UTCPClient:    utcpClient,
		UTCPToolQuery: cfg.UTCPToolQuery,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("failed to build agent: %v", err)
	}
	for _, spec := range ag.ToolSpecs() {
		logger.Debug("tool available", slog.String("tool", spec.Name))
	}

	logger.Info("asking agent", slog.String("model", cfg.Model), slog.Bool("relevance_filter", cfg.RelevanceFilter))
	answer, err := ag.Ask(ctx, text)
	if err != nil {
		log.Fatalf("agent failed: %v", err)
	}
	fmt.Println("\n=== Agent Answer ===")
	fmt.Println(answer)
}

func readQuestion(flagValue string, stdin *os.File) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, nil
	}
	if info, err := stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(bufio.NewReader(stdin))
		if err != nil {
			return "", err
		}
		if q := strings.TrimSpace(string(data)); q != "" {
			return q, nil
		}
	}
	return defaultQuestion, nil
}

func buildProviders(ctx context.Context, cfg config.Config) (map[models.Backend]models.Provider, func(), error) {
	providers := make(map[models.Backend]models.Provider)
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	ollama, err := models.NewOllamaProvider(cfg.OllamaHost, cfg.CallTimeout)
	if err != nil {
		return nil, cleanup, err
	}
	providers[models.BackendOllama] = ollama

	if cfg.OpenAIAPIKey != "" {
		providers[models.BackendOpenAI] = models.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	}
	if cfg.AnthropicAPIKey != "" {
		providers[models.BackendAnthropic] = models.NewAnthropicProvider(cfg.AnthropicAPIKey)
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := models.NewGeminiProvider(ctx, cfg.GeminiAPIKey)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		providers[models.BackendGemini] = gemini
		closers = append(closers, func() { _ = gemini.Close() })
	}
	return providers, cleanup, nil
}

func buildSearch(ctx context.Context, cfg config.Config, logger *slog.Logger) (search.Backend, func(), error) {
	var backend search.Backend
	switch cfg.SearchBackend {
	case config.SearchOllama:
		o := search.NewOllamaWebSearch("", cfg.OllamaAPIKey)
		o.Logger = logger
		backend = o
	default:
		if cfg.TavilyAPIKey == "" {
			return nil, nil, fmt.Errorf("TAVILY_API_KEY: %w", search.ErrMissingAPIKey)
		}
		t := search.NewTavily(cfg.TavilyAPIKey)
		t.Logger = logger
		backend = t
	}

	var (
		st      search.Store
		closeFn = func() {}
	)
	switch cfg.SearchCache {
	case config.CacheNone:
		return backend, closeFn, nil
	case config.CacheMemory:
		st = store.NewMemory(256, cfg.CacheTTL)
	case config.CacheRedis:
		r, err := store.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		st, closeFn = r, func() { _ = r.Close() }
	case config.CachePostgres:
		p, err := store.NewPostgres(ctx, cfg.PostgresDSN, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		st, closeFn = p, p.Close
	case config.CacheMongo:
		m, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, "search_cache", cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		st, closeFn = m, func() { _ = m.Close() }
	default:
		return nil, nil, errors.New("unknown search cache " + cfg.SearchCache)
	}
	cached := search.NewCached(backend, st)
	cached.Logger = logger
	return cached, closeFn, nil
}

var demoSearch = search.BackendFunc(func(_ context.Context, req search.Request) ([]search.Result, error) {
	return []search.Result{
		{Title: "Surface code below threshold", URL: "https://example.org/surface-code", Content: "A distance-7 surface code memory showed logical error suppression as code distance grew, for the query: " + req.Query},
		{Title: "Buy a quantum computer course", URL: "https://example.org/ads", Content: "Enroll now."},
		{Title: "Bosonic cat qubits", URL: "https://example.org/cat-qubits", Content: "Cat qubits with biased noise reduce the overhead of error correction."},
	}, nil
})

// demoScript plays every role the offline run needs: it requests one
// search, answers relevance and summary prompts, and then writes an answer
// from the tool output.
func demoScript(req models.ChatRequest) (models.AssistantMessage, error) {
	switch last := req.Conversation.Last().(type) {
	case models.SystemMessage:
		if strings.Contains(last.Content, "Answer with YES or NO only.") {
			return models.AssistantMessage{Content: "YES"}, nil
		}
		page := last.Content[strings.LastIndex(last.Content, "\n")+1:]
		return models.AssistantMessage{Content: prompts.Snippet(page)}, nil
	case models.UserMessage:
		return models.AssistantMessage{ToolCalls: []models.ToolCall{{
			Name:      "web_search",
			Arguments: map[string]any{"query": last.Content, "query_goal": "answer: " + last.Content},
		}}}, nil
	case models.ToolMessage:
		var results []search.Result
		if err := json.Unmarshal([]byte(last.Content), &results); err != nil || len(results) == 0 {
			return models.AssistantMessage{Content: "No usable sources were found."}, nil
		}
		var sb strings.Builder
		sb.WriteString("Based on the retrieved sources: ")
		for i, r := range results {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%s (%s, %s).", strings.TrimSuffix(r.Content, "."), r.Title, r.URL)
		}
		return models.AssistantMessage{Content: sb.String()}, nil
	}
	return models.AssistantMessage{}, nil
}
