package extraction

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiHistory(t *testing.T) {
	history := geminiHistory([]ChatMessage{
		{Role: ChatRoleSystem, Content: "ignored"},
		{Role: ChatRoleUser, Content: " agendar amanhã "},
		{Role: ChatRoleAssistant, Content: `{"action":"criar"}`},
		{Role: ChatRoleUser, Content: "   "},
	})

	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, []genai.Part{genai.Text("agendar amanhã")}, history[0].Parts)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, []genai.Part{genai.Text(`{"action":"criar"}`)}, history[1].Parts)

	assert.Empty(t, geminiHistory(nil))
}

func TestGeminiResponse(t *testing.T) {
	out, err := geminiResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(` {"action":"criar",`), genai.Text(`"time_iso":"2025-07-25T15:00:00"} `)},
			},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 120, CandidatesTokenCount: 30, TotalTokenCount: 150},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"action":"criar","time_iso":"2025-07-25T15:00:00"}`, out.Text)
	assert.Equal(t, genai.FinishReasonStop.String(), out.StopReason)
	assert.Equal(t, TokenUsage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150}, out.Usage)
}

func TestGeminiResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"no parts", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geminiResponse(tt.resp)
			assert.Error(t, err)
		})
	}
}

func TestGeminiClientRequiresMessages(t *testing.T) {
	client := &GeminiClient{modelID: "gemini-2.5-flash"}
	_, err := client.Complete(context.Background(), LLMRequest{})
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), " ", "")
	assert.Error(t, err)
}
