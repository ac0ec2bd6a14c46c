package curate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Protocol-Lattice/research-agent/src/concurrent"
	"github.com/Protocol-Lattice/research-agent/src/models"
	"github.com/Protocol-Lattice/research-agent/src/prompts"
	"github.com/Protocol-Lattice/research-agent/src/search"
)

const (
	temperature        = 0.3
	defaultCallTimeout = 120 * time.Second
)

// errNotRelevant marks a result the judge rejected.
var errNotRelevant = errors.New("judged not relevant")

// errEmptySummary marks a result whose summary came back blank.
var errEmptySummary = errors.New("empty summary")

// Curator runs the static filter and, when RelevanceFilter is set, a
// model-judged relevance check followed by a goal-conditioned summary.
type Curator struct {
	Querier         models.Querier
	Model           string
	RelevanceFilter bool
	// Reasoning is passed to judge and summary calls. Empty means low.
	Reasoning string
	// Concurrency bounds in-flight judgments; values below 2 run sequentially.
	Concurrency int
	// CallTimeout bounds each judge and summary call. Zero means 120s.
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// Curate filters results against goal. A failed judge or summary call
// excludes that result only. The returned error is non-nil only when ctx
// ends before curation finishes.
func (c *Curator) Curate(ctx context.Context, results []search.Result, goal string) ([]search.Result, error) {
	filtered := StaticFilter(results)
	logger := c.logger()
	logger.Debug("static filter applied", slog.Int("in", len(results)), slog.Int("kept", len(filtered)))
	if !c.RelevanceFilter || len(filtered) == 0 {
		return filtered, nil
	}

	curated, errs := concurrent.Map(ctx, filtered, c.Concurrency, func(ctx context.Context, _ int, r search.Result) (search.Result, error) {
		return c.curateOne(ctx, r, goal)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := make([]search.Result, 0, len(curated))
	for i, r := range curated {
		if err := errs[i]; err != nil {
			if !errors.Is(err, errNotRelevant) {
				logger.Warn("result excluded", slog.String("url", filtered[i].URL), slog.Any("error", err))
			}
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}

func (c *Curator) curateOne(ctx context.Context, r search.Result, goal string) (search.Result, error) {
	logger := c.logger().With(slog.String("url", r.URL))

	verdict, err := c.ask(ctx, prompts.Relevance(goal, r.Title, r.URL, r.Content))
	if err != nil {
		return search.Result{}, fmt.Errorf("relevance check: %w", err)
	}
	if !IsYes(verdict) {
		logger.Debug("result judged not relevant", slog.String("verdict", verdict))
		return search.Result{}, errNotRelevant
	}

	summary, err := c.ask(ctx, prompts.Summary(goal, r.Content))
	if err != nil {
		return search.Result{}, fmt.Errorf("summary: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return search.Result{}, errEmptySummary
	}

	before, after := utf8.RuneCountInString(r.Content), utf8.RuneCountInString(summary)
	logger.Info("result summarized",
		slog.Int("length", before),
		slog.Int("summary_length", after),
		slog.Int("reduction", before/after))

	r.Content = summary
	return r, nil
}

// ask sends prompt as a lone system message and returns the reply text.
func (c *Curator) ask(ctx context.Context, prompt string) (string, error) {
	if c.Querier == nil {
		return "", errors.New("curator has no querier")
	}
	reasoning := c.Reasoning
	if reasoning == "" {
		reasoning = models.ReasoningLow
	}
	timeout := c.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, _, err := c.Querier.Query(callCtx, models.Conversation{models.SystemMessage{Content: prompt}}, models.QueryOptions{
		Model:       c.Model,
		Temperature: temperature,
		Reasoning:   reasoning,
	})
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

func (c *Curator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// IsYes reports whether a judge reply is affirmative. Anything that does not
// start with YES after trimming counts as NO.
func IsYes(reply string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(reply)), "YES")
}
