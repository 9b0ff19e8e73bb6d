// Package contract makes one structured round trip to the reasoning model:
// the reply must decode into a declared Go type, be valid against the JSON
// schema derived from that type, and pass the type's own semantic checks.
// Non-conforming replies are re-prompted a bounded number of times.
package contract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mediaagent/pkg/agent/llm"
	"mediaagent/pkg/agent/llmerrors"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/metrics"
	"mediaagent/pkg/utils"
)

// Role names the stage making a call.
type Role string

const (
	RoleAnalyzer Role = "analyzer"
	RolePlanner  Role = "planner"
	RoleVerifier Role = "qc"
)

// Defaults for Options.
const (
	DefaultMaxRepairs        = 2
	DefaultMaxClarifications = 3
)

// maxLoggedChars bounds model text copied into log lines.
const maxLoggedChars = 400

// Validator is implemented by shapes with rules a schema cannot express.
type Validator interface {
	Validate() error
}

// Clarifier is implemented by shapes that may carry a question for the operator.
type Clarifier interface {
	QuestionToUser() string
}

// Asker puts a question to the operator and returns the answer.
type Asker interface {
	Ask(ctx context.Context, role Role, question string) (string, error)
}

// Request is one stage call.
type Request struct {
	// Instructions is the role's standing system prompt.
	Instructions string
	// Prompt carries the contextual inputs.
	Prompt string
	// Temperature overrides the caller default when non-zero.
	Temperature float32
}

// Options configures a Caller.
type Options struct {
	MaxRepairs        int
	MaxClarifications int
	PromptTokenBudget int // 0 = unlimited
	MaxTokens         int
	Temperature       float32
	Asker             Asker
	Recorder          metrics.Recorder
	Counter           *utils.TokenCounter
}

// DefaultOptions returns options with the default bounds.
func DefaultOptions() Options {
	return Options{
		MaxRepairs:        DefaultMaxRepairs,
		MaxClarifications: DefaultMaxClarifications,
		MaxTokens:         llm.DefaultMaxTokens,
		Temperature:       llm.TemperatureDefault,
	}
}

// Caller binds a model client to the contract policy.
type Caller struct {
	client llm.LLMClient
	opts   Options
	logger *logx.Logger
}

// NewCaller creates a caller.
func NewCaller(client llm.LLMClient, opts Options) *Caller {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = llm.DefaultMaxTokens
	}
	if opts.MaxRepairs < 0 {
		opts.MaxRepairs = 0
	}
	if opts.MaxClarifications < 0 {
		opts.MaxClarifications = 0
	}
	opts.Recorder = metrics.OrNop(opts.Recorder)
	return &Caller{client: client, opts: opts, logger: logx.NewLogger("contract")}
}

// Invoke sends req and returns a T decoded from the reply.
//
// A reply that fails parsing, schema or semantic validation is answered with
// a repair prompt up to MaxRepairs times, after which the last
// ValidationError is returned wrapped in ErrContractExhausted. A model
// transport failure is returned as TransportError without re-prompting.
// When T is a Clarifier with a question and an Asker is set, the operator's
// answer is appended and the call repeated, up to MaxClarifications times.
func Invoke[T any](ctx context.Context, c *Caller, role Role, req Request) (T, error) {
	var zero T

	s, err := shapeFor[T]()
	if err != nil {
		return zero, err
	}

	messages := []llm.CompletionMessage{
		llm.NewSystemMessage(systemPrompt(req.Instructions, s.text)),
		llm.NewUserMessage(req.Prompt),
	}

	temperature := c.opts.Temperature
	if req.Temperature != 0 {
		temperature = req.Temperature
	}

	repairs, clarifications := 0, 0
	for {
		if err := c.checkBudget(role, messages); err != nil {
			return zero, err
		}

		start := time.Now()
		completion := llm.NewCompletionRequest(messages)
		completion.Format = llm.FormatJSON
		completion.MaxTokens = c.opts.MaxTokens
		completion.Temperature = temperature
		resp, err := c.client.Complete(ctx, completion)
		if err != nil {
			c.opts.Recorder.ObserveLLMRequest(string(role), metrics.StatusError, time.Since(start))
			return zero, &TransportError{Role: role, Err: err}
		}
		c.opts.Recorder.ObserveLLMRequest(string(role), metrics.StatusSuccess, time.Since(start))

		value, verr := decode[T](role, resp.Content, s)
		if verr != nil {
			c.opts.Recorder.IncValidationFailure(string(role))
			if repairs >= c.opts.MaxRepairs {
				return zero, fmt.Errorf("%w after %d repair prompts: %w", ErrContractExhausted, repairs, verr)
			}
			repairs++
			c.logger.Warn("%s reply rejected (%s), repair %d/%d: %s", role, verr.Phase, repairs, c.opts.MaxRepairs,
				llmerrors.SanitizePrompt(verr.Err.Error(), maxLoggedChars))
			c.logger.Debug("%s rejected reply: %s", role, llmerrors.SanitizePrompt(resp.Content, maxLoggedChars))
			messages = append(messages,
				llm.NewAssistantMessage(resp.Content),
				llm.NewUserMessage(repairPrompt(verr)),
			)
			continue
		}

		question := ""
		if cl, ok := any(&value).(Clarifier); ok {
			question = strings.TrimSpace(cl.QuestionToUser())
		}
		if question == "" || c.opts.Asker == nil || clarifications >= c.opts.MaxClarifications {
			return value, nil
		}

		clarifications++
		c.logger.Info("%s asks the operator (%d/%d): %s", role, clarifications, c.opts.MaxClarifications, question)
		answer, err := c.opts.Asker.Ask(ctx, role, question)
		if err != nil {
			return zero, fmt.Errorf("ask operator: %w", err)
		}
		messages = append(messages,
			llm.NewAssistantMessage(resp.Content),
			llm.NewUserMessage(clarificationPrompt(question, answer)),
		)
	}
}

func (c *Caller) checkBudget(role Role, messages []llm.CompletionMessage) error {
	var b strings.Builder
	for i := range messages {
		b.WriteString(messages[i].Content)
	}
	tokens := c.opts.Counter.CountTokens(b.String())
	c.logger.Debug("%s prompt: %d messages, ~%d tokens", role, len(messages), tokens)

	if c.opts.PromptTokenBudget > 0 && tokens > c.opts.PromptTokenBudget {
		return fmt.Errorf("%w: %s prompt is ~%d tokens, budget %d", ErrPromptTooLarge, role, tokens, c.opts.PromptTokenBudget)
	}
	return nil
}

func systemPrompt(instructions, schema string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\nOUTPUT FORMAT:\nRespond with a single JSON object that conforms to this JSON schema. ")
	b.WriteString("Do not add commentary before or after it.\n")
	b.WriteString(schema)
	return b.String()
}

func repairPrompt(verr *ValidationError) string {
	return fmt.Sprintf("Your previous reply could not be accepted (%s error): %v\n"+
		"Reply again with only a JSON object that conforms to the schema.", verr.Phase, verr.Err)
}

func clarificationPrompt(question, answer string) string {
	return fmt.Sprintf("You asked: %s\nOperator answer: %s\n"+
		"Revise your reply with this information and leave question_to_user empty unless something is still unclear.", question, strings.TrimSpace(answer))
}
