package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/whatsapp-scheduler/internal/booking"
	"github.com/wolfman30/whatsapp-scheduler/internal/calendar"
	"github.com/wolfman30/whatsapp-scheduler/internal/extraction"
	"github.com/wolfman30/whatsapp-scheduler/internal/notify"
	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

var brt = time.FixedZone("BRT", -3*60*60)

const (
	customer = "whatsapp:+5511999990000"
	operator = "+5511981583453"
	priceURL = "https://example.com/precos.pdf"
)

func jul(day, hour, minute int) time.Time {
	return time.Date(2025, time.July, day, hour, minute, 0, 0, brt)
}

type recordingMessenger struct {
	mu      sync.Mutex
	sent    []OutboundMessage
	failFor map[int]error
}

func (m *recordingMessenger) Send(_ context.Context, msg OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.failFor[len(m.sent)]
}

func (m *recordingMessenger) SendText(ctx context.Context, to, body string) error {
	return m.Send(ctx, OutboundMessage{To: to, Body: body})
}

type countingProvider struct {
	calendar.Provider
	calls int
	err   error
}

func (c *countingProvider) ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.Booking, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Provider.ListEvents(ctx, from, to)
}

func (c *countingProvider) InsertEvent(ctx context.Context, b scheduling.Booking) (scheduling.Booking, error) {
	c.calls++
	if c.err != nil {
		return scheduling.Booking{}, c.err
	}
	return c.Provider.InsertEvent(ctx, b)
}

type countingExtractor struct {
	extraction.Extractor
	calls int
}

func (c *countingExtractor) Extract(ctx context.Context, text string, now time.Time) (scheduling.BookingRequest, error) {
	c.calls++
	return c.Extractor.Extract(ctx, text, now)
}

type failingScheduler struct {
	err error
}

func (f failingScheduler) Now() time.Time { return jul(20, 10, 0) }

func (f failingScheduler) FreeSlots(context.Context, string) (booking.Availability, error) {
	return booking.Availability{}, f.err
}

func (f failingScheduler) Execute(context.Context, scheduling.BookingRequest) (scheduling.Booking, error) {
	return scheduling.Booking{}, f.err
}

type fixture struct {
	dispatcher *Dispatcher
	messenger  *recordingMessenger
	provider   *countingProvider
	memory     *calendar.MemoryProvider
	extractor  *countingExtractor
}

func settings() Settings {
	return Settings{
		PriceListURL:  priceURL,
		OwnerName:     "Cláudia",
		AssistantName: "IAIÁ",
	}
}

func newFixture(t *testing.T, seed ...scheduling.Booking) *fixture {
	t.Helper()
	logger := logging.New("error")
	mem := calendar.NewMemoryProvider(seed...)
	provider := &countingProvider{Provider: mem}
	svc := booking.NewService(calendar.Instrument(provider, nil, logger), brt, logger,
		booking.WithClock(func() time.Time { return jul(20, 10, 0) }))
	messenger := &recordingMessenger{}
	extractor := &countingExtractor{Extractor: extraction.NewRuleExtractor(brt)}
	d := NewDispatcher(settings(), messenger, svc, extractor,
		WithOperator(notify.NewOperatorNotifier(messenger, nil, operator, "", logger)),
		WithLogger(logger),
	)
	return &fixture{dispatcher: d, messenger: messenger, provider: provider, memory: mem, extractor: extractor}
}

func (f *fixture) handle(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, f.dispatcher.Handle(context.Background(), InboundMessage{From: customer, Body: body, ReceivedAt: jul(20, 10, 0)}))
}

func TestHandleCreatesBooking(t *testing.T) {
	f := newFixture(t)
	f.handle(t, "quero agendar para 25/07 às 15h")

	require.Len(t, f.messenger.sent, 1)
	reply := f.messenger.sent[0]
	assert.Equal(t, customer, reply.To)
	assert.Contains(t, reply.Body, "Agendamento Confirmado")
	assert.Contains(t, reply.Body, "25 de Julho")
	assert.Contains(t, reply.Body, "15:00")
	assert.Contains(t, reply.Body, "Reunião com Cláudia")
	assert.Empty(t, reply.MediaURL)

	events, err := f.memory.ListEvents(context.Background(), jul(25, 0, 0), jul(26, 0, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, booking.DefaultTitle, events[0].Title)
	assert.True(t, jul(25, 15, 0).Equal(events[0].Start))
	assert.True(t, jul(25, 16, 0).Equal(events[0].End))
}

func TestHandlePriceListSendsMediaOnly(t *testing.T) {
	f := newFixture(t)
	f.handle(t, "Oi! Pode me mandar a tabela de valores?")

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, priceURL, f.messenger.sent[0].MediaURL)
	assert.Contains(t, f.messenger.sent[0].Body, "lista de serviços/preços")
	assert.Zero(t, f.provider.calls)
	assert.Zero(t, f.extractor.calls)
}

func TestHandlePriceListFailureSendsNotice(t *testing.T) {
	f := newFixture(t)
	f.messenger.failFor = map[int]error{1: errors.New("twilio 500")}
	f.handle(t, "quais são os preços?")

	require.Len(t, f.messenger.sent, 2)
	assert.Equal(t, "❌ *Não consegui enviar o PDF no momento*", f.messenger.sent[1].Body)
	assert.Empty(t, f.messenger.sent[1].MediaURL)
}

func TestHandleForward(t *testing.T) {
	f := newFixture(t)
	f.handle(t, "Oi, você atende noivas?")

	require.Len(t, f.messenger.sent, 2)
	toOperator, ack := f.messenger.sent[0], f.messenger.sent[1]

	assert.Equal(t, operator, toOperator.To)
	assert.Contains(t, toOperator.Body, "Novo Pedido de Cliente")
	assert.Contains(t, toOperator.Body, "Oi, você atende noivas?")
	assert.Contains(t, toOperator.Body, customer)
	assert.Contains(t, toOperator.Body, "20/07/2025 10:00")

	assert.Equal(t, customer, ack.To)
	assert.Contains(t, ack.Body, "Mensagem Encaminhada")
	assert.Contains(t, ack.Body, "Cláudia")
	assert.Zero(t, f.provider.calls)
	assert.Zero(t, f.extractor.calls)
}

func TestHandleForwardStillAcksWhenOperatorFails(t *testing.T) {
	f := newFixture(t)
	f.messenger.failFor = map[int]error{1: errors.New("twilio down")}
	f.handle(t, "Bom dia, tudo bem?")

	require.Len(t, f.messenger.sent, 2)
	assert.Contains(t, f.messenger.sent[1].Body, "Mensagem Encaminhada")
}

func TestHandleFreeSlots(t *testing.T) {
	f := newFixture(t,
		scheduling.Booking{ID: "a", Title: "Consulta", Start: jul(25, 9, 0), End: jul(25, 10, 0)},
	)
	f.handle(t, "quais horários disponíveis dia 25/07?")

	require.Len(t, f.messenger.sent, 1)
	body := f.messenger.sent[0].Body
	assert.Contains(t, body, "Horários Disponíveis - 25 de Jul")
	assert.Contains(t, body, "🕒 *08:00 - 09:00*\n🕒 *10:00 - 11:00*")
	assert.Contains(t, body, "🕒 *18:00 - 19:00*")
	assert.NotContains(t, body, "09:00 - 10:00")
	assert.Zero(t, f.extractor.calls)
}

func TestHandleFreeSlotsFullDay(t *testing.T) {
	f := newFixture(t,
		scheduling.Booking{ID: "all", Title: "Curso", Start: jul(25, 8, 0), End: jul(25, 19, 0)},
	)
	f.handle(t, "tem vagas dia 25?")

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0].Body, "Não há horários disponíveis neste dia")
}

func TestHandleFreeSlotsSunday(t *testing.T) {
	f := newFixture(t)
	f.handle(t, "horários abertos 27/07")

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0].Body, "Domingo - 27 de Jul")
	assert.Contains(t, f.messenger.sent[0].Body, "Não atendemos aos domingos")
	assert.Zero(t, f.provider.calls)
}

func TestHandleFreeSlotsInvalidDate(t *testing.T) {
	f := newFixture(t)
	f.handle(t, "horários disponíveis 31/06")

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0].Body, "Data inválida")
}

func TestHandleFreeSlotsProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.err = errors.New("503")
	f.handle(t, "horários disponíveis 25/07")

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "❌ *Não consegui verificar os horários*", f.messenger.sent[0].Body)
}

func TestHandleCancel(t *testing.T) {
	f := newFixture(t,
		scheduling.Booking{ID: "maria", Title: "Consulta Maria", Start: jul(25, 15, 0), End: jul(25, 16, 0)},
	)
	f.handle(t, "preciso desmarcar 25/07 às 15h")

	require.Len(t, f.messenger.sent, 1)
	body := f.messenger.sent[0].Body
	assert.Contains(t, body, "Cancelamento Confirmado")
	assert.Contains(t, body, "Consulta Maria")
	assert.Contains(t, body, "25 de Julho")

	events, err := f.memory.ListEvents(context.Background(), jul(25, 0, 0), jul(26, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestHandleCancelNotFound(t *testing.T) {
	f := newFixture(t)
	f.handle(t, "cancelar dia 25 às 10h")

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "❌ Reunião não encontrada", f.messenger.sent[0].Body)
}

func TestHandleExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.handle(t, "quero marcar uma consulta")

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0].Body, "Não consegui concluir sua solicitação")
	assert.Zero(t, f.provider.calls)
}

func TestHandleProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.err = errors.New("calendar quota")
	f.handle(t, "agendar 25/07 às 9h")

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0].Body, "Não consegui concluir sua solicitação")
}

func TestHandleUnexpectedFailure(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(settings(), messenger, failingScheduler{err: errors.New("boom")}, extraction.NewRuleExtractor(brt),
		WithLogger(logging.New("error")))

	require.NoError(t, d.Handle(context.Background(), InboundMessage{From: customer, Body: "agendar 25/07 às 9h"}))
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, fallbackApology, messenger.sent[0].Body)
}

func TestHandleGreetsFirstContactOnce(t *testing.T) {
	f := newFixture(t)
	s := settings()
	s.GreetingEnabled = true
	s.GreetingDelay = 2 * time.Second
	var waited []time.Duration
	d := NewDispatcher(s, f.messenger, failingScheduler{err: errors.New("unused")}, f.extractor,
		WithGreetingTracker(NewMemoryGreetingTracker(time.Hour)),
		WithOperator(notify.NewOperatorNotifier(f.messenger, nil, operator, "", nil)),
		WithLogger(logging.New("error")),
	)
	d.wait = func(_ context.Context, dur time.Duration) { waited = append(waited, dur) }

	require.NoError(t, d.Handle(context.Background(), InboundMessage{From: customer, Body: "Bom dia"}))
	require.NoError(t, d.Handle(context.Background(), InboundMessage{From: "+5511999990000", Body: "Tudo bem?"}))

	var greetings int
	for _, m := range f.messenger.sent {
		if strings.HasPrefix(m.Body, "👋") {
			greetings++
		}
	}
	assert.Equal(t, 1, greetings)
	assert.Equal(t, []time.Duration{2 * time.Second}, waited)
	assert.Contains(t, f.messenger.sent[0].Body, "Sou a IAIÁ, o braço direito da Cláudia")
}

func TestHandleRejectsEmptyInput(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.dispatcher.Handle(context.Background(), InboundMessage{From: customer, Body: "  "}))
	assert.Error(t, f.dispatcher.Handle(context.Background(), InboundMessage{Body: "oi"}))
	assert.Empty(t, f.messenger.sent)
}

func TestFormatDates(t *testing.T) {
	assert.Equal(t, "5 de Mar", FormatDateShort(time.Date(2025, 3, 5, 0, 0, 0, 0, brt)))
	assert.Equal(t, "05 de Março", FormatDateLong(time.Date(2025, 3, 5, 0, 0, 0, 0, brt)))
	assert.Equal(t, "31 de Dezembro", FormatDateLong(time.Date(2025, 12, 31, 0, 0, 0, 0, brt)))
}
