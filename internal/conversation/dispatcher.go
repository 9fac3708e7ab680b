package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/whatsapp-scheduler/internal/booking"
	"github.com/wolfman30/whatsapp-scheduler/internal/calendar"
	"github.com/wolfman30/whatsapp-scheduler/internal/extraction"
	"github.com/wolfman30/whatsapp-scheduler/internal/intent"
	"github.com/wolfman30/whatsapp-scheduler/internal/notify"
	"github.com/wolfman30/whatsapp-scheduler/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// Scheduler is the booking capability the dispatcher needs.
type Scheduler interface {
	Now() time.Time
	FreeSlots(ctx context.Context, dateText string) (booking.Availability, error)
	Execute(ctx context.Context, req scheduling.BookingRequest) (scheduling.Booking, error)
}

// OperatorNotifier relays a message to the human operator.
type OperatorNotifier interface {
	Notify(ctx context.Context, notice notify.Notice) error
}

// Settings holds the dispatcher's copy and greeting behaviour.
type Settings struct {
	PriceListURL    string
	OwnerName       string
	AssistantName   string
	GreetingEnabled bool
	GreetingDelay   time.Duration
}

// Dispatcher routes each inbound message to its handler and delivers the
// replies. Every handler failure is turned into a customer-facing notice.
type Dispatcher struct {
	settings  Settings
	messenger Messenger
	scheduler Scheduler
	extractor extraction.Extractor
	operator  OperatorNotifier
	greetings GreetingTracker
	replies   *Replies
	metrics   *metrics.MessagingMetrics
	logger    *logging.Logger
	wait      func(ctx context.Context, d time.Duration)
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

func WithOperator(n OperatorNotifier) Option {
	return func(d *Dispatcher) { d.operator = n }
}

func WithGreetingTracker(t GreetingTracker) Option {
	return func(d *Dispatcher) { d.greetings = t }
}

func WithMetrics(m *metrics.MessagingMetrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher wires the dispatcher. messenger, scheduler and extractor are required.
func NewDispatcher(settings Settings, messenger Messenger, scheduler Scheduler, extractor extraction.Extractor, opts ...Option) *Dispatcher {
	if messenger == nil || scheduler == nil || extractor == nil {
		panic("conversation: messenger, scheduler and extractor are required")
	}
	d := &Dispatcher{
		settings:  settings,
		messenger: messenger,
		scheduler: scheduler,
		extractor: extractor,
		replies:   NewReplies(settings.OwnerName, settings.AssistantName),
		logger:    logging.Default(),
		wait:      sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes msg synchronously. It only fails on an empty sender or
// body; downstream failures are reported to the customer instead.
func (d *Dispatcher) Handle(ctx context.Context, msg InboundMessage) error {
	msg.From = strings.TrimSpace(msg.From)
	msg.Body = strings.TrimSpace(msg.Body)
	if msg.From == "" || msg.Body == "" {
		return errors.New("conversation: sender and body are required")
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = d.scheduler.Now()
	}

	d.greet(ctx, msg.From)

	in := intent.Classify(msg.Body)
	d.metrics.ObserveInbound(string(in.Kind))
	d.logger.Info("processing message", "from", msg.From, "intent", in.Kind)

	switch in.Kind {
	case intent.KindPrice:
		d.handlePrice(ctx, msg)
	case intent.KindFreeSlots:
		d.handleFreeSlots(ctx, msg, in.DateText)
	case intent.KindForward:
		d.handleForward(ctx, msg)
	default:
		d.handleBooking(ctx, msg)
	}
	return nil
}

func (d *Dispatcher) greet(ctx context.Context, from string) {
	if !d.settings.GreetingEnabled {
		return
	}
	first := true
	if d.greetings != nil {
		var err error
		first, err = d.greetings.FirstContact(ctx, from)
		if err != nil {
			d.logger.Warn("greeting tracker unavailable", "error", err, "from", from)
			return
		}
	}
	if !first {
		return
	}
	d.reply(ctx, from, "greeting", replyGreeting, replyData{})
	if d.settings.GreetingDelay > 0 {
		d.wait(ctx, d.settings.GreetingDelay)
	}
}

func (d *Dispatcher) handlePrice(ctx context.Context, msg InboundMessage) {
	caption, err := d.replies.render(replyPriceCaption, replyData{})
	if err == nil {
		err = d.send(ctx, "price_list", OutboundMessage{To: msg.From, Body: caption, MediaURL: d.settings.PriceListURL})
	}
	if err != nil {
		d.logger.Error("price list not sent", "error", err, "to", msg.From)
		d.reply(ctx, msg.From, "notice", replyPriceFailed, replyData{})
	}
}

func (d *Dispatcher) handleFreeSlots(ctx context.Context, msg InboundMessage, dateText string) {
	avail, err := d.scheduler.FreeSlots(ctx, dateText)
	if err != nil {
		d.logger.Error("free slots lookup failed", "error", err, "date", dateText)
		if errors.Is(err, scheduling.ErrInvalidDate) {
			d.reply(ctx, msg.From, "notice", replyInvalidDate, replyData{})
			return
		}
		d.reply(ctx, msg.From, "notice", replySlotsFailed, replyData{})
		return
	}

	data := replyData{Date: FormatDateShort(avail.Date)}
	switch free := avail.Free(); {
	case avail.Closed:
		d.reply(ctx, msg.From, "reply", replyClosed, data)
	case len(free) == 0:
		d.reply(ctx, msg.From, "reply", replyNoSlots, data)
	default:
		data.Slots = slotLines(free)
		d.reply(ctx, msg.From, "reply", replySlotList, data)
	}
}

func (d *Dispatcher) handleBooking(ctx context.Context, msg InboundMessage) {
	req, err := d.extractor.Extract(ctx, msg.Body, d.scheduler.Now())
	d.metrics.ObserveExtraction(d.extractor.Name(), err)
	if err != nil {
		d.logger.Warn("booking request not understood", "error", err, "backend", d.extractor.Name())
		d.replyError(ctx, msg.From, err)
		return
	}

	result, err := d.scheduler.Execute(ctx, req)
	if err != nil {
		d.logger.Error("booking action failed", "error", err, "action", req.Action, "start", req.Start)
		d.replyError(ctx, msg.From, err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" && req.Action == scheduling.ActionCancel {
		title = strings.TrimSpace(result.Title)
	}
	if title == "" {
		title = d.replies.defaultTitle()
	}
	data := replyData{
		Date:  FormatDateLong(result.Start),
		Time:  result.Start.Format("15:04"),
		Title: title,
	}
	if req.Action == scheduling.ActionCancel {
		d.reply(ctx, msg.From, "reply", replyBookingCanceled, data)
		return
	}
	d.reply(ctx, msg.From, "reply", replyBookingCreated, data)
}

func (d *Dispatcher) handleForward(ctx context.Context, msg InboundMessage) {
	data := replyData{
		Message:    msg.Body,
		Sender:     msg.From,
		ReceivedAt: msg.ReceivedAt.In(d.scheduler.Now().Location()).Format("02/01/2006 15:04"),
	}
	if d.operator == nil {
		d.logger.Error("operator notifier not configured; message not forwarded", "from", msg.From)
	} else {
		body, err := d.replies.render(replyForwardOperator, data)
		if err == nil {
			var subject string
			subject, err = d.replies.render(replyForwardSubject, data)
			if err == nil {
				err = d.operator.Notify(ctx, notify.Notice{Subject: subject, Body: body})
			}
		}
		d.metrics.ObserveOutbound("operator", err)
		if err != nil {
			d.logger.Error("forward to operator failed", "error", err, "from", msg.From)
		}
	}
	d.reply(ctx, msg.From, "reply", replyForwardAck, replyData{})
}

// replyError maps a handler failure onto the matching customer notice.
func (d *Dispatcher) replyError(ctx context.Context, to string, err error) {
	var (
		extractionErr *extraction.ExtractionError
		providerErr   *calendar.ProviderError
	)
	switch {
	case errors.Is(err, scheduling.ErrInvalidDate):
		d.reply(ctx, to, "notice", replyInvalidDate, replyData{})
	case errors.Is(err, scheduling.ErrBookingNotFound):
		d.reply(ctx, to, "notice", replyNotFound, replyData{})
	case errors.As(err, &extractionErr), errors.As(err, &providerErr):
		d.reply(ctx, to, "notice", replyBookingFailed, replyData{})
	default:
		d.reply(ctx, to, "notice", replyApology, replyData{})
	}
}

// reply renders a template and delivers it. Failures are logged and counted.
func (d *Dispatcher) reply(ctx context.Context, to, kind, name string, data replyData) {
	body, err := d.replies.render(name, data)
	if err != nil {
		d.logger.Error("reply template failed", "error", err, "template", name)
		body = fallbackApology
	}
	_ = d.send(ctx, kind, OutboundMessage{To: to, Body: body})
}

func (d *Dispatcher) send(ctx context.Context, kind string, msg OutboundMessage) error {
	err := d.messenger.Send(ctx, msg)
	d.metrics.ObserveOutbound(kind, err)
	if err != nil {
		d.logger.Error("message delivery failed", "error", err, "kind", kind, "to", msg.To)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
