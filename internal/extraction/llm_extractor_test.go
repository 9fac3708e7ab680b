package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
)

type stubLLMClient struct {
	resp LLMResponse
	err  error
	reqs []LLMRequest
}

func (s *stubLLMClient) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.reqs = append(s.reqs, req)
	return s.resp, s.err
}

func TestLLMExtractor(t *testing.T) {
	client := &stubLLMClient{resp: LLMResponse{
		Text: `{"action":"criar","time_iso":"2025-07-25T15:00:00-03:00","summary":"Avaliação","duration_hours":1}`,
	}}
	extractor := NewLLMExtractor(client, "gemini", "gemini-1.5-flash", brt, nil)
	now := time.Date(2025, 7, 20, 10, 0, 0, 0, brt)

	got, err := extractor.Extract(context.Background(), "quero agendar para 25/07 às 15h", now)
	require.NoError(t, err)
	assert.Equal(t, "gemini", extractor.Name())
	assert.Equal(t, scheduling.ActionCreate, got.Action)
	assert.Equal(t, "Avaliação", got.Title)
	assert.True(t, time.Date(2025, 7, 25, 15, 0, 0, 0, brt).Equal(got.Start))

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.Equal(t, "gemini-1.5-flash", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, ChatRoleUser, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Data atual: 2025-07-20")
	assert.Contains(t, req.Messages[0].Content, "Mensagem recebida: 'quero agendar para 25/07 às 15h'")
	assert.Contains(t, req.Messages[0].Content, "UTC-03:00")
	assert.NotEmpty(t, req.System)
}

func TestLLMExtractorClientError(t *testing.T) {
	boom := errors.New("quota exceeded")
	extractor := NewLLMExtractor(&stubLLMClient{err: boom}, "bedrock", "", brt, nil)

	_, err := extractor.Extract(context.Background(), "agendar amanhã", time.Now())
	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.ErrorIs(t, err, boom)
}

func TestLLMExtractorMalformedResult(t *testing.T) {
	extractor := NewLLMExtractor(&stubLLMClient{resp: LLMResponse{Text: `{"action":"criar"}`}}, "gemini", "", brt, nil)

	_, err := extractor.Extract(context.Background(), "agendar", time.Now())
	var extractionErr *ExtractionError
	assert.True(t, errors.As(err, &extractionErr))
}

func TestNewLLMExtractorPanicsOnNilClient(t *testing.T) {
	assert.Panics(t, func() { NewLLMExtractor(nil, "gemini", "", brt, nil) })
}
