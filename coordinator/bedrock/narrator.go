// Package bedrock narrates plans with a Bedrock-hosted model over the
// Converse API.
package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"dinnerplanner/coordinator"
	"dinnerplanner/horizon"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// A narration is a handful of sentences.
	defaultMaxTokens = 512

	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Narrator implements dinnerplanner.Narrator. The model never sees tools; it
// only phrases a finished plan.
type Narrator struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

func NewNarrator(brc bedrockRuntimeClient, opts LLMOptions) *Narrator {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Narrator{brc: brc, opts: opts}
}

func (n *Narrator) Narrate(ctx context.Context, ps horizon.PlanSet) (string, error) {
	prompt, err := coordinator.NarrationPrompt(ps)
	if err != nil {
		return "", err
	}

	slog.Info("NARRATOR: Invoking Bedrock", "model_id", n.opts.ModelID, "days", len(ps.Days))

	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(n.opts.ModelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: coordinator.NarrationSystemPrompt},
		},
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(n.opts.MaxTokens),
			Temperature: aws.Float32(n.opts.Temperature),
			TopP:        aws.Float32(n.opts.TopP),
		},
	}
	out, err := n.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("NARRATOR: Bedrock invoke failed", "error", err)
		return "", fmt.Errorf("bedrock converse: %w", err)
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens))
	}
	slog.Info("NARRATOR: Bedrock invoke succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		return "", fmt.Errorf("model response blocked by Bedrock safety filters")
	}

	text := textFromOutput(out)
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}

// textFromOutput joins the assistant's text blocks. A narration cut short by
// max_tokens is still returned.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && strings.TrimSpace(t.Value) != "" {
			texts = append(texts, strings.TrimSpace(t.Value))
		}
	}
	return strings.Join(texts, "\n")
}
