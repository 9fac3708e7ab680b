package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

const extractionSystemPrompt = "Você é um assistente de agendamento via WhatsApp. " +
	"Especialista em converter mensagens em português para um formato JSON estruturado " +
	"com os campos: action, time_iso, summary e duration_hours. " +
	"Sempre usa o formato ISO 8601 com timezone para datas."

const extractionExamples = `EXEMPLOS VÁLIDOS:
- AGENDAR: "marcar reunião amanhã às 14h sobre o projeto X"
- CANCELAR: "cancelar a reunião de quinta-feira às 10h"`

// LLMExtractor asks a language model for the booking JSON and validates it
// with ParseResult.
type LLMExtractor struct {
	client LLMClient
	name   string
	model  string
	loc    *time.Location
	logger *logging.Logger
}

// NewLLMExtractor wraps client. name labels the backend in logs and metrics.
func NewLLMExtractor(client LLMClient, name, model string, loc *time.Location, logger *logging.Logger) *LLMExtractor {
	if client == nil {
		panic("extraction: llm client cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMExtractor{client: client, name: name, model: model, loc: loc, logger: logger}
}

func (e *LLMExtractor) Name() string { return e.name }

func (e *LLMExtractor) Extract(ctx context.Context, text string, now time.Time) (scheduling.BookingRequest, error) {
	prompt := BuildPrompt(text, now.In(e.loc))
	resp, err := e.client.Complete(ctx, LLMRequest{
		Model:       e.model,
		System:      []string{extractionSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens:   256,
		Temperature: 0,
	})
	if err != nil {
		return scheduling.BookingRequest{}, &ExtractionError{Reason: "model call failed", Err: err}
	}
	e.logger.Info("extraction result", "backend", e.name, "result", resp.Text, "output_tokens", resp.Usage.OutputTokens)
	return ParseResult(resp.Text, e.loc)
}

// BuildPrompt renders the task description sent to the model.
func BuildPrompt(text string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Data atual: %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "Fuso horário: %s (UTC%s)\n", now.Location(), now.Format("-07:00"))
	fmt.Fprintf(&b, "Mensagem recebida: '%s'\n", text)
	b.WriteString(extractionExamples)
	b.WriteString("\nRETORNE APENAS UM OBJETO JSON VÁLIDO COM ESTES CAMPOS:\n")
	b.WriteString("{\n")
	b.WriteString(`  "action": "criar" ou "cancelar",` + "\n")
	b.WriteString(`  "time_iso": "Data/hora ISO com timezone",` + "\n")
	b.WriteString(`  "summary": "Título da reunião",` + "\n")
	b.WriteString(`  "duration_hours": 1` + "\n")
	b.WriteString("}")
	return b.String()
}
