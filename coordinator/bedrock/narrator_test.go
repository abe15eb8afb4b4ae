package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinnerplanner/horizon"
	"dinnerplanner/kitchen"
	"dinnerplanner/planner"
)

// mockBedrockClient implements bedrockRuntimeClient for testing
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	got      *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.got = input
	return m.response, m.err
}

func textOutput(stop types.StopReason, texts ...string) *bedrockruntime.ConverseOutput {
	var content []types.ContentBlock
	for _, t := range texts {
		content = append(content, &types.ContentBlockMemberText{Value: t})
	}
	return &bedrockruntime.ConverseOutput{
		StopReason: stop,
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{Role: types.ConversationRoleAssistant, Content: content},
		},
		Usage: &types.TokenUsage{InputTokens: aws.Int32(120), OutputTokens: aws.Int32(40)},
	}
}

func plan() horizon.PlanSet {
	return horizon.PlanSet{
		HouseholdID: "hh-1",
		Days:        []planner.Day{{Date: kitchen.MustDate("2025-03-10"), RecipeSlug: "stirfry", RecipeName: "Stir Fry"}},
	}
}

func TestNewNarrator(t *testing.T) {
	tests := []struct {
		name     string
		input    LLMOptions
		expected LLMOptions
	}{
		{
			name:  "empty options uses defaults",
			input: LLMOptions{},
			expected: LLMOptions{
				ModelID:     defaultModelID,
				MaxTokens:   defaultMaxTokens,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
		{
			name:     "custom options preserved",
			input:    LLMOptions{ModelID: "custom-model", MaxTokens: 2048, Temperature: 0.5, TopP: 0.8},
			expected: LLMOptions{ModelID: "custom-model", MaxTokens: 2048, Temperature: 0.5, TopP: 0.8},
		},
		{
			name:     "partial options with defaults",
			input:    LLMOptions{ModelID: "custom-model"},
			expected: LLMOptions{ModelID: "custom-model", MaxTokens: defaultMaxTokens, Temperature: defaultTemperature, TopP: defaultTopP},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockBedrockClient{}
			n := NewNarrator(mockClient, tt.input)
			assert.Equal(t, tt.expected, n.opts)
			assert.Equal(t, mockClient, n.brc)
		})
	}
}

func TestNarrator_Narrate(t *testing.T) {
	tests := []struct {
		name     string
		response *bedrockruntime.ConverseOutput
		err      error
		want     string
		wantErr  bool
	}{
		{
			name:     "single text block",
			response: textOutput(types.StopReasonEndTurn, "Monday: Stir Fry, it uses up the spinach."),
			want:     "Monday: Stir Fry, it uses up the spinach.",
		},
		{
			name:     "blocks are joined and trimmed",
			response: textOutput(types.StopReasonEndTurn, " Monday: Stir Fry. ", "", "Shopping: none.\n"),
			want:     "Monday: Stir Fry.\nShopping: none.",
		},
		{
			name:     "truncated narration is kept",
			response: textOutput(types.StopReasonMaxTokens, "Monday: Stir"),
			want:     "Monday: Stir",
		},
		{
			name:     "filtered",
			response: textOutput(types.StopReasonContentFiltered, "..."),
			wantErr:  true,
		},
		{
			name:     "no text",
			response: textOutput(types.StopReasonEndTurn),
			wantErr:  true,
		},
		{
			name:    "api error",
			err:     errors.New("throttled"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockBedrockClient{response: tt.response, err: tt.err}
			got, err := NewNarrator(mockClient, LLMOptions{}).Narrate(context.Background(), plan())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNarrator_Request(t *testing.T) {
	mockClient := &mockBedrockClient{response: textOutput(types.StopReasonEndTurn, "ok")}
	_, err := NewNarrator(mockClient, LLMOptions{ModelID: "m"}).Narrate(context.Background(), plan())
	require.NoError(t, err)

	in := mockClient.got
	require.NotNil(t, in)
	assert.Equal(t, "m", aws.ToString(in.ModelId))
	assert.Nil(t, in.ToolConfig, "narration never offers tools")
	require.Len(t, in.System, 1)
	require.Len(t, in.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, in.Messages[0].Role)

	text := in.Messages[0].Content[0].(*types.ContentBlockMemberText).Value
	assert.Contains(t, text, `"recipe":"Stir Fry"`)
	assert.Equal(t, int32(defaultMaxTokens), aws.ToInt32(in.InferenceConfig.MaxTokens))
}
