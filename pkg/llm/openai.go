package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// DefaultPromptTemplate asks the model to partition a batch of changed files
// into independently reviewable groups and answer in strict JSON.
const DefaultPromptTemplate = `You are helping split a code change into independently mergeable pull requests.

Partition the following changed files into coherent groups. Files that implement
one feature or fix belong together; unrelated subsystems belong apart. Keep tests
with the code they cover.

Changed files (JSON):
{{.FilesJSON}}

Answer with JSON only, no prose, in this exact shape:
{"groups":[{"files":["path", ...],"rationale":"one sentence","confidence":0.0}]}

Every file you mention must come from the list above. Confidence is your own
estimate in [0,1] that the group is a good standalone pull request.`

// OpenAIConfig configures the OpenAI-backed proposer.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string
	// Model is the chat model name. Empty uses DefaultModel.
	Model string
	// Temperature is passed through to the chat completion request.
	Temperature float32
	// PromptTemplate overrides DefaultPromptTemplate when non-empty. It is
	// parsed as text/template with a .FilesJSON field.
	PromptTemplate string
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger
}

// OpenAIProposer asks an OpenAI chat model to partition a batch.
type OpenAIProposer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tmpl   *template.Template
	logger *slog.Logger
}

// NewOpenAIProposer creates a proposer backed by the OpenAI chat API.
func NewOpenAIProposer(cfg OpenAIConfig) (*OpenAIProposer, error) {
	text := cfg.PromptTemplate
	if text == "" {
		text = DefaultPromptTemplate
	}

	tmpl, err := template.New("proposal").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIProposer{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
		tmpl:   tmpl,
		logger: logger,
	}, nil
}

// ProposeGroups renders the prompt for the batch, calls the chat API, and
// parses the strict-JSON answer. Malformed answers are errors; the caller
// decides whether to degrade.
func (p *OpenAIProposer) ProposeGroups(ctx context.Context, batch Batch) (Proposal, error) {
	if len(batch.Files) == 0 {
		return Proposal{}, ErrEmptyBatch
	}

	prompt, err := p.renderPrompt(batch)
	if err != nil {
		return Proposal{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Proposal{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return Proposal{}, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	proposal, err := ParseProposal(resp.Choices[0].Message.Content, batch)
	if err != nil {
		return Proposal{}, err
	}

	p.logger.Debug("semantic proposal received",
		"model", p.cfg.Model,
		"batch_files", len(batch.Files),
		"groups", len(proposal.Groups))

	return proposal, nil
}

func (p *OpenAIProposer) renderPrompt(batch Batch) (string, error) {
	filesJSON, err := json.MarshalIndent(batch.Files, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}

	var sb strings.Builder

	execErr := p.tmpl.Execute(&sb, struct{ FilesJSON string }{FilesJSON: string(filesJSON)})
	if execErr != nil {
		return "", fmt.Errorf("render prompt: %w", execErr)
	}

	return sb.String(), nil
}

// ParseProposal parses a service answer into a validated Proposal. It
// tolerates markdown code fences around the JSON body but nothing else.
func ParseProposal(raw string, batch Batch) (Proposal, error) {
	body := stripCodeFence(strings.TrimSpace(raw))

	var proposal Proposal

	err := json.Unmarshal([]byte(body), &proposal)
	if err != nil {
		return Proposal{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	validateErr := validateProposal(proposal, batch)
	if validateErr != nil {
		return Proposal{}, validateErr
	}

	return proposal, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
