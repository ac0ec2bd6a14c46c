// Package agent answers questions with a language model that may search the
// web before it replies.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Protocol-Lattice/research-agent/src/concurrent"
	"github.com/Protocol-Lattice/research-agent/src/models"
)

const (
	defaultMaxRounds   = 10
	defaultCallTimeout = 120 * time.Second
)

// ErrEmptyQuestion is returned by Ask for blank input.
var ErrEmptyQuestion = errors.New("question is empty")

type loopState int

const (
	stateAwaitingModel loopState = iota
	stateExecutingTools
	stateDone
)

func (s loopState) String() string {
	switch s {
	case stateAwaitingModel:
		return "awaiting_model"
	case stateExecutingTools:
		return "executing_tools"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Agent drives the question, tool call and answer exchange with a model.
// It keeps no per-question state, so one Agent may serve concurrent Ask calls.
type Agent struct {
	querier      models.Querier
	model        string
	systemPrompt string
	temperature  float32
	reasoning    string
	thinking     bool
	maxRounds    int
	callTimeout  time.Duration
	parallel     int
	toolCatalog  ToolCatalog
	logger       *slog.Logger
}

// Options configure a new Agent.
type Options struct {
	// Querier is usually a *models.Dispatcher.
	Querier      models.Querier
	Model        string
	SystemPrompt string
	Temperature  float32
	Reasoning    string
	Thinking     bool
	// MaxRounds caps model calls per question. Zero means 10.
	MaxRounds int
	// CallTimeout bounds each model call. Zero means 120s.
	CallTimeout time.Duration
	// ParallelTools runs up to this many tool calls of one turn at once.
	ParallelTools int
	Tools         []Tool
	ToolCatalog   ToolCatalog
	// UTCPClient, when set, contributes the tools it finds for UTCPToolQuery
	// (at most UTCPToolLimit). Local tools win on name clashes.
	UTCPClient    UTCPClient
	UTCPToolQuery string
	UTCPToolLimit int
	Logger        *slog.Logger
}

// New creates an Agent with the provided options.
func New(opts Options) (*Agent, error) {
	if opts.Querier == nil {
		return nil, errors.New("agent requires a querier")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("agent requires a model id")
	}

	toolCatalog := opts.ToolCatalog
	tolerantTools := false
	if toolCatalog == nil {
		toolCatalog = NewStaticToolCatalog(nil)
		tolerantTools = true
	}
	for _, tool := range opts.Tools {
		if tool == nil {
			continue
		}
		if err := toolCatalog.Register(tool); err != nil {
			if tolerantTools {
				continue
			}
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.UTCPClient != nil {
		remote, err := ImportUTCPTools(opts.UTCPClient, opts.UTCPToolQuery, opts.UTCPToolLimit)
		if err != nil {
			return nil, err
		}
		for _, tool := range remote {
			if err := toolCatalog.Register(tool); err != nil {
				logger.Warn("skipping utcp tool", slog.String("tool", tool.Spec().Name), slog.Any("error", err))
			}
		}
	}

	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	return &Agent{
		querier:      opts.Querier,
		model:        opts.Model,
		systemPrompt: opts.SystemPrompt,
		temperature:  opts.Temperature,
		reasoning:    opts.Reasoning,
		thinking:     opts.Thinking,
		maxRounds:    maxRounds,
		callTimeout:  callTimeout,
		parallel:     opts.ParallelTools,
		toolCatalog:  toolCatalog,
		logger:       logger.With(slog.String("model", opts.Model)),
	}, nil
}

// ToolSpecs returns the specs sent to the model on every call.
func (a *Agent) ToolSpecs() []ToolSpec {
	return a.toolCatalog.Specs()
}

// Ask answers question. It returns the model's prose answer, or a diagnostic
// string when the model produced neither prose nor tool calls or the round
// budget ran out. Errors are limited to backend transport failures, routing
// and configuration errors, tool handler failures and context cancellation.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	conv := make(models.Conversation, 0, 8)
	if strings.TrimSpace(a.systemPrompt) != "" {
		conv = conv.Append(models.SystemMessage{Content: a.systemPrompt})
	}
	conv = conv.Append(models.UserMessage{Content: question})
	specs := a.toolCatalog.Specs()

	var (
		state = stateAwaitingModel
		reply models.AssistantMessage
		round int
		err   error
	)
	for {
		switch state {
		case stateAwaitingModel:
			if round == a.maxRounds {
				a.logger.Warn("round budget exhausted", slog.Int("rounds", round))
				return budgetExhausted(round, reply), nil
			}
			round++
			a.logger.Debug("querying model", slog.Int("round", round), slog.Int("messages", len(conv)))
			reply, conv, err = a.query(ctx, conv, specs)
			if err != nil {
				return "", err
			}
			if reply.Thinking != "" {
				a.logger.Debug("model thinking", slog.Int("round", round), slog.String("thinking", reply.Thinking))
			}
			if reply.HasToolCalls() {
				state = stateExecutingTools
			} else {
				state = stateDone
			}

		case stateExecutingTools:
			conv, err = a.executeTools(ctx, conv, reply.ToolCalls, round)
			if err != nil {
				return "", err
			}
			state = stateAwaitingModel

		case stateDone:
			if reply.HasContent() {
				a.logger.Info("answer ready", slog.Int("round", round))
				return reply.Content, nil
			}
			a.logger.Warn("model returned neither content nor tool calls", slog.Int("round", round))
			return diagnostic(reply), nil
		}
	}
}

func (a *Agent) query(ctx context.Context, conv models.Conversation, specs []ToolSpec) (models.AssistantMessage, models.Conversation, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	return a.querier.Query(callCtx, conv, models.QueryOptions{
		Model:       a.model,
		Tools:       specs,
		Temperature: a.temperature,
		Reasoning:   a.reasoning,
		Thinking:    a.thinking,
	})
}

// executeTools runs every call of one assistant turn and appends exactly one
// tool message per call, in request order.
func (a *Agent) executeTools(ctx context.Context, conv models.Conversation, calls []models.ToolCall, round int) (models.Conversation, error) {
	messages, errs := concurrent.Map(ctx, calls, a.parallel, func(ctx context.Context, _ int, call models.ToolCall) (models.ToolMessage, error) {
		return a.executeTool(ctx, call, round)
	})
	if err := concurrent.FirstError(errs); err != nil {
		return conv, err
	}
	for _, msg := range messages {
		conv = conv.Append(msg)
	}
	return conv, nil
}

func (a *Agent) executeTool(ctx context.Context, call models.ToolCall, round int) (models.ToolMessage, error) {
	logger := a.logger.With(slog.Int("round", round), slog.String("tool", call.Name), slog.String("call_id", call.ID))
	logger.Info("executing tool")

	msg := models.ToolMessage{CallID: call.ID, Name: call.Name}
	response, err := a.toolCatalog.Invoke(ctx, call)
	if err != nil {
		var invErr *InvocationError
		if errors.As(err, &invErr) {
			logger.Warn("tool invocation failed", slog.Any("error", err))
			msg.Content = "error: " + err.Error()
			return msg, nil
		}
		return models.ToolMessage{}, fmt.Errorf("tool %s: %w", call.Name, err)
	}
	msg.Content = response.Content
	return msg, nil
}

func diagnostic(reply models.AssistantMessage) string {
	if reply.Raw != "" {
		return reply.Raw
	}
	return "model returned an empty reply"
}

func budgetExhausted(rounds int, last models.AssistantMessage) string {
	return fmt.Sprintf("no answer after %d model rounds; last reply: %s", rounds, diagnostic(last))
}
