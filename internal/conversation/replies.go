package conversation

import (
	"fmt"
	"time"

	"github.com/wolfman30/whatsapp-scheduler/internal/messaging/templates"
	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
)

const (
	replyGreeting        = "greeting"
	replyPriceCaption    = "price_caption"
	replyPriceFailed     = "price_failed"
	replyClosed          = "closed"
	replyNoSlots         = "no_slots"
	replySlotList        = "slot_list"
	replySlotsFailed     = "slots_failed"
	replyInvalidDate     = "invalid_date"
	replyBookingCreated  = "booking_created"
	replyBookingCanceled = "booking_canceled"
	replyNotFound        = "not_found"
	replyBookingFailed   = "booking_failed"
	replyApology         = "apology"
	replyForwardOperator = "forward_operator"
	replyForwardSubject  = "forward_subject"
	replyForwardAck      = "forward_ack"
)

// fallbackApology is sent when even the copy fails to render.
const fallbackApology = "❌ Ocorreu um erro ao processar sua mensagem."

var replySources = map[string]string{
	replyGreeting: `👋 *Olá!* Sou a {{.Assistant}}, o braço direito da {{.Owner}}. 🤖✨

📅 *Posso agendar seu horário com ela!* É simples:
   - Me diga o *dia* e *horário* que deseja
   - Ex: *"Quero agendar dia 25/07 às 15h"*

💬 *Precisa de outra coisa?*
   - Me envie sua solicitação
   - Ex: *"Gostaria de saber sobre valores."*
   - Eu repasso pra ela e *ela te responde pessoalmente* 💛

⏳ *Retorno garantido ainda hoje!*
📲 *Vamos começar?*`,

	replyPriceCaption: `📋 *Aqui está nossa lista de serviços/preços!*

🔹 *Como agendar:*
Responda com: *"Quero agendar para [dia] às [hora]"*

📌 *Exemplo:*
*"Quero agendar para sexta às 15h"*`,

	replyPriceFailed: `❌ *Não consegui enviar o PDF no momento*`,

	replyClosed: `📅 *Domingo - {{.Date}}*

⛔ *Não atendemos aos domingos.*

Por favor, escolha outro dia da semana.`,

	replyNoSlots: `📅 *Horários para {{.Date}}*

❌ *Não há horários disponíveis neste dia.*`,

	replySlotList: `📅 *Horários Disponíveis - {{.Date}}*

{{range $i, $s := .Slots}}{{if $i}}
{{end}}🕒 *{{$s.Start}} - {{$s.End}}*{{end}}

🔹 *Como agendar:*
Responda com: *"Quero o horário das XXh do dia {{.Date}}"*`,

	replySlotsFailed: `❌ *Não consegui verificar os horários*`,

	replyInvalidDate: `❌ *Data inválida.* Confira o dia informado e tente novamente.`,

	replyBookingCreated: `✅ *Agendamento Confirmado!*

📅 *Data:* {{.Date}}
⏰ *Horário:* {{.Time}}

🗒️ *Detalhes:* {{.Title}}

📱 *Lembrete:* Você receberá uma notificação 1 hora antes.
🔄 *Precisa reagendar?* Me avise com 24h de antecedência.`,

	replyBookingCanceled: `🗑️ *Cancelamento Confirmado!*

📅 *Data Cancelada:* {{.Date}}
⏰ *Horário:* {{.Time}}

🗒️ *Detalhes:* {{.Title}}

📱 Lembrete: Este horário está agora disponível para novos agendamentos.
🔄 *Precisa reagendar?* Me avise!`,

	replyNotFound: `❌ Reunião não encontrada`,

	replyBookingFailed: `❌ Não consegui concluir sua solicitação agora. Tente novamente em instantes.`,

	replyApology: fallbackApology,

	replyForwardOperator: `📩 *Novo Pedido de Cliente*

*Mensagem:* {{.Message}}
*Número:* {{.Sender}}
*Data/Hora:* {{.ReceivedAt}}`,

	replyForwardSubject: `Novo pedido de cliente - {{.Sender}}`,

	replyForwardAck: `📨 *Mensagem Encaminhada!*

Sua solicitação foi enviada diretamente para a {{.Owner}}.
Ela responderá pessoalmente em breve!`,
}

var (
	monthsLong = [...]string{
		"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
	}
	monthsShort = [...]string{
		"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
		"Jul", "Ago", "Set", "Out", "Nov", "Dez",
	}
)

// FormatDateShort renders "25 de Jul".
func FormatDateShort(t time.Time) string {
	return fmt.Sprintf("%d de %s", t.Day(), monthsShort[t.Month()-1])
}

// FormatDateLong renders "25 de Julho".
func FormatDateLong(t time.Time) string {
	return fmt.Sprintf("%02d de %s", t.Day(), monthsLong[t.Month()-1])
}

type slotLine struct {
	Start string
	End   string
}

type replyData struct {
	Owner      string
	Assistant  string
	Date       string
	Time       string
	Title      string
	Slots      []slotLine
	Message    string
	Sender     string
	ReceivedAt string
}

func slotLines(slots []scheduling.Slot) []slotLine {
	lines := make([]slotLine, 0, len(slots))
	for _, s := range slots {
		lines = append(lines, slotLine{Start: s.Start.Format("15:04"), End: s.End.Format("15:04")})
	}
	return lines
}

// Replies renders the assistant's pt-BR copy.
type Replies struct {
	renderer  *templates.Renderer
	owner     string
	assistant string
}

func NewReplies(owner, assistant string) *Replies {
	return &Replies{
		renderer:  templates.MustNew(replySources, nil),
		owner:     owner,
		assistant: assistant,
	}
}

func (r *Replies) render(name string, data replyData) (string, error) {
	data.Owner = r.owner
	data.Assistant = r.assistant
	return r.renderer.Render(name, data)
}

// defaultTitle is shown in confirmations when the customer gave no subject.
func (r *Replies) defaultTitle() string {
	return "Reunião com " + r.owner
}
