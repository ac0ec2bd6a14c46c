// Package config loads the research agent settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Protocol-Lattice/research-agent/src/models"
	"github.com/Protocol-Lattice/research-agent/src/prompts"
)

// Search backends.
const (
	SearchTavily = "tavily"
	SearchOllama = "ollama"
)

// Search cache kinds.
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
	CacheMongo    = "mongo"
)

// Config is the full set of settings for one agent process.
type Config struct {
	Model           string
	CurationModel   string
	Prompt          string
	RelevanceFilter bool
	Reasoning       string
	Thinking        bool
	Temperature     float32
	MaxResults      int
	MaxRounds       int
	CallTimeout     time.Duration
	Concurrency     int

	SearchBackend string
	SearchCache   string
	CacheTTL      time.Duration
	RedisURL      string
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string

	// UTCPProviders is a UTCP providers file whose tools are offered to the
	// model next to web_search. Empty disables UTCP.
	UTCPProviders string
	UTCPToolQuery string

	OllamaHost      string
	OllamaAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	GeminiAPIKey    string
	TavilyAPIKey    string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Model:         "gpt-oss:20b",
		Prompt:        prompts.Research,
		Reasoning:     models.ReasoningHigh,
		Thinking:      true,
		Temperature:   0.3,
		MaxResults:    8,
		MaxRounds:     10,
		CallTimeout:   120 * time.Second,
		Concurrency:   1,
		SearchBackend: SearchTavily,
		SearchCache:   CacheMemory,
		CacheTTL:      time.Hour,
		MongoDatabase: "research_agent",
		OllamaHost:    "http://localhost:11434",
	}
}

// Load reads an optional .env file and overlays environment variables on
// the defaults. Existing environment variables win over .env entries.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("RESEARCH_MODEL", &cfg.Model)
	str("RESEARCH_CURATION_MODEL", &cfg.CurationModel)
	str("RESEARCH_PROMPT", &cfg.Prompt)
	boolean("RESEARCH_RELEVANCE_FILTER", &cfg.RelevanceFilter)
	str("RESEARCH_REASONING", &cfg.Reasoning)
	boolean("RESEARCH_THINKING", &cfg.Thinking)
	integer("RESEARCH_MAX_RESULTS", &cfg.MaxResults)
	integer("RESEARCH_MAX_ROUNDS", &cfg.MaxRounds)
	duration("RESEARCH_CALL_TIMEOUT", &cfg.CallTimeout)
	integer("RESEARCH_CURATION_CONCURRENCY", &cfg.Concurrency)

	str("RESEARCH_SEARCH_BACKEND", &cfg.SearchBackend)
	str("RESEARCH_SEARCH_CACHE", &cfg.SearchCache)
	duration("RESEARCH_SEARCH_CACHE_TTL", &cfg.CacheTTL)
	str("REDIS_URL", &cfg.RedisURL)
	str("POSTGRES_DSN", &cfg.PostgresDSN)
	str("MONGO_URI", &cfg.MongoURI)
	str("MONGO_DATABASE", &cfg.MongoDatabase)
	str("RESEARCH_UTCP_PROVIDERS", &cfg.UTCPProviders)
	str("RESEARCH_UTCP_TOOL_QUERY", &cfg.UTCPToolQuery)

	str("OLLAMA_HOST", &cfg.OllamaHost)
	str("OLLAMA_API_KEY", &cfg.OllamaAPIKey)
	str("OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	str("OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	str("ANTHROPIC_API_KEY", &cfg.AnthropicAPIKey)
	str("GEMINI_API_KEY", &cfg.GeminiAPIKey)
	str("GOOGLE_API_KEY", &cfg.GeminiAPIKey)
	str("TAVILY_API_KEY", &cfg.TavilyAPIKey)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EffectiveCurationModel is the model used for relevance and summary calls.
func (c Config) EffectiveCurationModel() string {
	if c.CurationModel != "" {
		return c.CurationModel
	}
	return c.Model
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	var errs []error
	if _, err := models.Route(c.Model); err != nil {
		errs = append(errs, fmt.Errorf("model: %w", err))
	}
	if _, err := models.Route(c.EffectiveCurationModel()); err != nil {
		errs = append(errs, fmt.Errorf("curation model: %w", err))
	}
	if _, err := prompts.System(c.Prompt, time.Now()); err != nil {
		errs = append(errs, err)
	}
	switch c.Reasoning {
	case "", models.ReasoningLow, models.ReasoningMedium, models.ReasoningHigh:
	default:
		errs = append(errs, fmt.Errorf("reasoning: unknown level %q", c.Reasoning))
	}
	if c.MaxResults <= 0 {
		errs = append(errs, errors.New("max results must be positive"))
	}
	if c.MaxRounds <= 0 {
		errs = append(errs, errors.New("max rounds must be positive"))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, errors.New("call timeout must be positive"))
	}
	switch c.SearchBackend {
	case SearchTavily, SearchOllama:
	default:
		errs = append(errs, fmt.Errorf("search backend: unknown %q", c.SearchBackend))
	}
	switch c.SearchCache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("search cache redis requires REDIS_URL"))
		}
	case CachePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("search cache postgres requires POSTGRES_DSN"))
		}
	case CacheMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("search cache mongo requires MONGO_URI"))
		}
	default:
		errs = append(errs, fmt.Errorf("search cache: unknown %q", c.SearchCache))
	}
	return errors.Join(errs...)
}
