package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evalhub",
		Subsystem: "ai",
		Name:      "draft_duration_seconds",
		Help:      "Duration of AI feedback draft requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evalhub",
		Subsystem: "ai",
		Name:      "draft_failures_total",
		Help:      "Number of AI feedback draft failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI drafter.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIDrafter implements FeedbackDrafter against the OpenAI chat completion API.
type OpenAIDrafter struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIDrafter builds a new drafter using the provided configuration.
func NewOpenAIDrafter(cfg OpenAIConfig) (*OpenAIDrafter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	tracer := otel.Tracer("github.com/evalhub/evalhub-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIDrafter{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Draft sends the draft request to OpenAI and parses the response.
func (d *OpenAIDrafter) Draft(parent context.Context, input DraftInput) (DraftResult, error) {
	ctx, span := d.tracer.Start(parent, "openai.draft", trace.WithAttributes(
		attribute.String("model", d.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       d.cfg.Model,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: drafterSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildDraftPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := d.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(d.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(d.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DraftResult{}, fmt.Errorf("openai draft: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(d.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DraftResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseDraftResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(d.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DraftResult{}, err
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func drafterSystemPrompt() string {
	return "You are assisting a human evaluator reviewing a written assessment answer. Respond with a JSON object containing " +
		"feedback (a concise draft the evaluator can edit), strengths (array of strings), and gaps (array of strings). " +
		"Never assign a grade; the evaluator decides that."
}

func buildDraftPrompt(input DraftInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Assessment\n")
	builder.WriteString(input.AssessmentTitle)
	if input.Instructions != "" {
		builder.WriteString("\n\n## Instructions\n")
		builder.WriteString(input.Instructions)
	}
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(input.StudentAnswer)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseDraftResponse(content string) (DraftResult, error) {
	type payload struct {
		Feedback  string   `json:"feedback"`
		Strengths []string `json:"strengths"`
		Gaps      []string `json:"gaps"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return DraftResult{}, fmt.Errorf("parse draft json: %w", err)
	}

	if strings.TrimSpace(data.Feedback) == "" {
		return DraftResult{}, fmt.Errorf("draft response missing feedback")
	}

	return DraftResult{
		Feedback:  data.Feedback,
		Strengths: data.Strengths,
		Gaps:      data.Gaps,
	}, nil
}
