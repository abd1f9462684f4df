package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Leganyst/salon-bot/internal/calendar"
	"github.com/Leganyst/salon-bot/internal/catalog"
	"github.com/Leganyst/salon-bot/internal/service"
	"github.com/Leganyst/salon-bot/internal/session"
	"github.com/Leganyst/salon-bot/internal/slots"
)

const tracerName = "github.com/Leganyst/salon-bot/internal/bot"

// Controller drives the booking conversation: service, date, slot,
// confirmation. Handlers never return errors; every failure ends as a
// message to the user and a log line.
type Controller struct {
	messenger Messenger
	bookings  *service.BookingService
	services  *catalog.Catalog
	slots     *slots.Catalog
	sessions  session.Store
	log       *slog.Logger
	tracer    trace.Tracer
}

func NewController(
	messenger Messenger,
	bookings *service.BookingService,
	services *catalog.Catalog,
	slotCatalog *slots.Catalog,
	sessions session.Store,
	log *slog.Logger,
) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		messenger: messenger,
		bookings:  bookings,
		services:  services,
		slots:     slotCatalog,
		sessions:  sessions,
		log:       log.With("component", "bot"),
		tracer:    otel.Tracer(tracerName),
	}
}

// Run dispatches updates one at a time until ctx is done or the channel closes.
func (c *Controller) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			c.HandleUpdate(ctx, u)
		}
	}
}

func (c *Controller) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	ctx, span := c.tracer.Start(ctx, "bot.HandleUpdate",
		trace.WithAttributes(attribute.Int("telegram.update_id", u.UpdateID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "panic")
			c.log.Error("panic while handling update",
				"update_id", u.UpdateID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		span.SetAttributes(attribute.String("telegram.kind", "callback"))
		c.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		span.SetAttributes(attribute.String("telegram.kind", "message"))
		c.handleMessage(ctx, u.Message)
	}
}

func (c *Controller) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		c.sendMenu(ctx, chatID)
		return
	}

	switch msg.Command() {
	case "start", "hello":
		c.send(ctx, chatID, welcomeText, nil)
		c.sendMenu(ctx, chatID)
	case "help":
		c.send(ctx, chatID, helpText, nil)
		c.sendMenu(ctx, chatID)
	case "bookings":
		c.sendBookings(ctx, msg)
	default:
		c.sendMenu(ctx, chatID)
	}
}

func (c *Controller) sendMenu(ctx context.Context, chatID int64) {
	menu := ServicesKeyboard(c.services)
	c.send(ctx, chatID, menuText, &menu)
}

func (c *Controller) sendBookings(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	list, err := c.bookings.ListForUser(ctx, msg.From.ID)
	if err != nil {
		c.log.Error("list bookings", "user_id", msg.From.ID, "chat_id", msg.Chat.ID, "err", err)
		c.send(ctx, msg.Chat.ID, listFailedText, nil)
		return
	}
	c.send(ctx, msg.Chat.ID, bookingsText(list), nil)
}

// callbackReply collects the answer for a callback query; it is sent
// exactly once when the handler returns, panics included.
type callbackReply struct {
	text  string
	alert bool
}

func (c *Controller) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	reply := &callbackReply{}
	defer func() {
		if err := c.messenger.AnswerCallback(ctx, q.ID, reply.text, reply.alert); err != nil {
			c.log.Warn("answer callback", "callback_id", q.ID, "err", err)
		}
	}()

	if q.Message == nil || q.Message.Chat == nil || q.From == nil {
		return
	}

	action, err := ParseCallback(q.Data)
	if err != nil {
		c.log.Debug("ignoring callback", "user_id", q.From.ID, "data", q.Data, "err", err)
		return
	}

	switch a := action.(type) {
	case ServiceSelected:
		c.onServiceSelected(ctx, q, reply, a)
	case MonthNav:
		c.onMonthNav(ctx, q, a)
	case DateSelected:
		c.onDateSelected(ctx, q, a)
	case BackToCalendar:
		c.onBackToCalendar(ctx, q)
	case SlotSelected:
		c.onSlotSelected(ctx, q, reply, a)
	case Ignore:
	}
}

func (c *Controller) onServiceSelected(ctx context.Context, q *tgbotapi.CallbackQuery, reply *callbackReply, a ServiceSelected) {
	svc, err := c.services.Lookup(a.ServiceID)
	if err != nil {
		menu := ServicesKeyboard(c.services)
		c.edit(ctx, q, menuText, &menu)
		return
	}

	sel := session.Selection{ServiceID: svc.ID, CreatedAt: time.Now().UTC()}
	if err := c.sessions.Put(ctx, q.From.ID, sel); err != nil {
		c.log.Error("store selection", "user_id", q.From.ID, "chat_id", q.Message.Chat.ID, "err", err)
		reply.text = bookingFailedText
		reply.alert = true
		return
	}

	c.edit(ctx, q, chooseDateText(&svc), c.calendarFor(calendar.MonthOf(c.bookings.Today())))
}

func (c *Controller) onMonthNav(ctx context.Context, q *tgbotapi.CallbackQuery, a MonthNav) {
	today := c.bookings.Today()
	if a.Month.Before(calendar.MonthOf(today)) {
		return
	}
	markup := c.calendarFor(a.Month)
	if err := c.messenger.EditMarkup(ctx, q.Message.Chat.ID, q.Message.MessageID, *markup); err != nil {
		c.log.Error("edit calendar", "user_id", q.From.ID, "chat_id", q.Message.Chat.ID, "err", err)
	}
}

func (c *Controller) onDateSelected(ctx context.Context, q *tgbotapi.CallbackQuery, a DateSelected) {
	if a.Date.Before(c.bookings.Today()) {
		return
	}
	markup := SlotsKeyboard(a.Date, c.slots.List())
	c.edit(ctx, q, chooseSlotText(c.selectedService(ctx, q.From.ID), a.Date), &markup)
}

func (c *Controller) onBackToCalendar(ctx context.Context, q *tgbotapi.CallbackQuery) {
	month := calendar.MonthOf(c.bookings.Today())
	c.edit(ctx, q, chooseDateText(c.selectedService(ctx, q.From.ID)), c.calendarFor(month))
}

func (c *Controller) onSlotSelected(ctx context.Context, q *tgbotapi.CallbackQuery, reply *callbackReply, a SlotSelected) {
	log := c.log.With("user_id", q.From.ID, "chat_id", q.Message.Chat.ID)

	sel, err := c.sessions.Get(ctx, q.From.ID)
	if err != nil {
		if !errors.Is(err, session.ErrMissingSelection) {
			log.Error("load selection", "err", err)
		}
		menu := ServicesKeyboard(c.services)
		c.edit(ctx, q, sessionExpiredText+"\n\n"+menuText, &menu)
		return
	}

	booking, err := c.bookings.Book(ctx, service.BookingRequest{
		UserID:    q.From.ID,
		UserName:  displayName(q.From),
		ServiceID: sel.ServiceID,
		Date:      a.Date,
		TimeSlot:  a.Slot,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrSlotUnavailable):
		reply.text = slotTakenText
		reply.alert = true
		return
	case errors.Is(err, service.ErrDateInPast):
		reply.text = dateInPastText
		reply.alert = true
		return
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidRequest):
		log.Warn("rejected booking", "service_id", sel.ServiceID, "slot", a.Slot, "err", err)
		if derr := c.sessions.Delete(ctx, q.From.ID); derr != nil {
			log.Error("delete selection", "err", derr)
		}
		menu := ServicesKeyboard(c.services)
		c.edit(ctx, q, sessionExpiredText+"\n\n"+menuText, &menu)
		return
	default:
		log.Error("book appointment", "err", err)
		c.send(ctx, q.Message.Chat.ID, bookingFailedText, nil)
		return
	}

	if err := c.sessions.Delete(ctx, q.From.ID); err != nil {
		log.Error("delete selection", "err", err)
	}
	log.Info("appointment booked",
		"appointment_id", booking.Appointment.ID,
		"service_id", booking.Service.ID,
		"date", booking.Appointment.Day().Format("2006-01-02"),
		"slot", booking.Appointment.TimeSlot,
	)
	c.edit(ctx, q, confirmationText(booking), nil)
}

func (c *Controller) selectedService(ctx context.Context, userID int64) *catalog.Service {
	sel, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return nil
	}
	svc, err := c.services.Lookup(sel.ServiceID)
	if err != nil {
		return nil
	}
	return &svc
}

func (c *Controller) calendarFor(ym calendar.YearMonth) *tgbotapi.InlineKeyboardMarkup {
	m := CalendarKeyboard(calendar.Render(ym.Year, int(ym.Month), c.bookings.Today()))
	return &m
}

func (c *Controller) send(ctx context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if _, err := c.messenger.Send(ctx, chatID, text, markup); err != nil {
		c.log.Error("send message", "chat_id", chatID, "err", err)
	}
}

func (c *Controller) edit(ctx context.Context, q *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if err := c.messenger.Edit(ctx, q.Message.Chat.ID, q.Message.MessageID, text, markup); err != nil {
		c.log.Error("edit message", "user_id", q.From.ID, "chat_id", q.Message.Chat.ID, "err", err)
	}
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.UserName
	}
	return name
}
