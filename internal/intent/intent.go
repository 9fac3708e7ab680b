// Package intent routes inbound WhatsApp text to one of the assistant's
// handlers using keyword heuristics.
package intent

import (
	"regexp"
	"strings"
)

// Kind identifies the handler a message is routed to.
type Kind string

const (
	KindPrice     Kind = "price"
	KindFreeSlots Kind = "free_slots"
	KindBooking   Kind = "booking"
	KindForward   Kind = "forward"
)

// Intent is the classification result. DateText is only set for
// KindFreeSlots and holds the "d" or "d/m" fragment found in the message.
type Intent struct {
	Kind     Kind
	DateText string
}

var (
	schedulingWords = []string{"agendar", "marcar", "horário", "hora", "reunião", "consulta", "visita"}
	cancelWords     = []string{"cancelar", "desmarcar", "remover", "excluir"}
	freeSlotWords   = []string{"horários", "horarios", "disponíveis", "disponiveis", "vagas", "abertos"}
	priceWords      = []string{"preços", "precos", "valores", "tabela", "serviços", "servicos", "menu", "cardápio", "cardapio"}

	dateFragment = regexp.MustCompile(`(\d{1,2})(?:\s*/\s*(\d{1,2}))?`)
)

// Classify picks the intent for text. Price requests win over everything;
// a free-slots keyword only routes to KindFreeSlots when a date is present,
// otherwise the message continues to the booking path. Messages matching no
// keyword list are forwarded to a human.
func Classify(text string) Intent {
	lower := strings.ToLower(text)

	price := containsAny(lower, priceWords)
	freeSlots := containsAny(lower, freeSlotWords)
	scheduling := containsAny(lower, schedulingWords)
	cancel := containsAny(lower, cancelWords)

	if price {
		return Intent{Kind: KindPrice}
	}
	if freeSlots {
		if date := DateText(text); date != "" {
			return Intent{Kind: KindFreeSlots, DateText: date}
		}
	}
	if !scheduling && !cancel && !freeSlots {
		return Intent{Kind: KindForward}
	}
	return Intent{Kind: KindBooking}
}

// DateText returns the first "d" or "d/m" fragment in text, normalized
// without spaces, or "" if none.
func DateText(text string) string {
	m := dateFragment.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[2] != "" {
		return m[1] + "/" + m[2]
	}
	return m[1]
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
