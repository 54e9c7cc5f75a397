package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/HendryAvila/provisio/internal/intent")

// Defaults for the remote classifier.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 10 * time.Second
)

// errNoChoices is returned when the API answers without any choice.
var errNoChoices = errors.New("no choices returned")

// systemPrompt instructs the model to answer with exactly one label.
const systemPrompt = "You are an intent classifier for a platform setup assistant. " +
	"Analyze the user's message and return EXACTLY ONE of these intents:\n\n" +
	"- bootstrap: Initial setup, getting started, first time setup, 'how do i start'\n" +
	"- account.configure: Setting up account details, authentication, account configuration AFTER account creation\n" +
	"- idgen: Unique ID generation, auto-incrementing codes, sequence numbers, identifiers\n" +
	"- workflow: Business process configuration, state machines, approval flows, transitions\n" +
	"- boundary: Geographic hierarchies, administrative boundaries, location setup\n" +
	"- notification: Email/SMS alerts, notification templates, communication setup\n" +
	"- registry: Data schemas, data models, entity definitions, adding/managing data structures\n" +
	"- user: User account creation, user management, adding users (NOT account setup)\n" +
	"- role: Role creation, permission groups, access control roles\n" +
	"- role.assign: Assigning roles to users, granting permissions\n" +
	"- unknown: If the intent is unclear\n\n" +
	"Key distinctions:\n" +
	"- 'account details' or 'configure account' or 'setup account' -> account.configure\n" +
	"- 'create user' or 'add user' -> user (NOT account.configure)\n" +
	"- 'data' or 'schema' -> registry (data models)\n" +
	"- 'id' or 'code generation' -> idgen (unique identifiers)\n" +
	"- 'process' or 'flow' -> workflow (business processes)\n\n" +
	"Return ONLY the intent name, nothing else."

// OpenAIConfig configures the remote classifier.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, e.g. a proxy or a test server (including /v1)
	Timeout time.Duration
}

// OpenAIClassifier labels text with a chat completion call and falls
// back to another classifier whenever the call or its answer is
// unusable.
type OpenAIClassifier struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	fallback Classifier
}

// NewOpenAIClassifier creates a remote classifier. A nil fallback uses
// the KeywordClassifier.
func NewOpenAIClassifier(cfg OpenAIConfig, fallback Classifier) *OpenAIClassifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return newOpenAIClassifierWithClient(openai.NewClientWithConfig(clientCfg), cfg, fallback)
}

// newOpenAIClassifierWithClient is used by tests to inject a client.
func newOpenAIClassifierWithClient(client *openai.Client, cfg OpenAIConfig, fallback Classifier) *OpenAIClassifier {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if fallback == nil {
		fallback = NewKeywordClassifier()
	}
	return &OpenAIClassifier{
		client:   client,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		fallback: fallback,
	}
}

// Classify asks the model for a label. Any failure is logged and the
// fallback classifier answers instead.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) Label {
	ctx, span := tracer.Start(ctx, "intent.classify")
	defer span.End()
	span.SetAttributes(attribute.String("intent.model", c.model))

	label, err := c.classifyRemote(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classifier unavailable")
		log.Warn().Err(err).Str("model", c.model).Msg("intent classifier unavailable, using fallback")

		label = c.fallback.Classify(ctx, text)
		span.SetAttributes(attribute.Bool("intent.fallback", true))
	}

	span.SetAttributes(attribute.String("intent.label", string(label)))
	return label
}

func (c *OpenAIClassifier) classifyRemote(ctx context.Context, text string) (Label, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: %w", errNoChoices)
	}

	raw := resp.Choices[0].Message.Content
	label, ok := ParseLabel(raw)
	if !ok {
		return "", fmt.Errorf("openai answered %q, not a known intent", raw)
	}
	return label, nil
}
