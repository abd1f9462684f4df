package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/Leganyst/salon-bot/internal/catalog"
	"github.com/Leganyst/salon-bot/internal/service"
	"github.com/Leganyst/salon-bot/internal/slots"
)

const (
	welcomeText = "Welcome to our Salon Booking Bot! 💅\nHow can we help you today?"
	helpText    = "This bot lets you book your salon appointment.\n" +
		"Select which type of service you would like from the menu below.\n" +
		"Then select the available date and time slot.\n\n" +
		"Use /bookings to see your appointments."
	menuText = "Please select a service:"

	slotTakenText      = "Sorry, this time slot has just been booked. Please choose another one."
	dateInPastText     = "This date or time has already passed. Please pick another one."
	sessionExpiredText = "Your selection has expired. Please start again by choosing a service."
	bookingFailedText  = "Sorry, we could not complete your booking right now. Please try again later."
	listFailedText     = "Sorry, we could not load your appointments right now. Please try again later."
	noBookingsText     = "You have no appointments yet. Send /start to book one."
)

func serviceLines(s catalog.Service) string {
	return fmt.Sprintf("You've selected %s\nPrice: %s", s.Title(), catalog.FormatPrice(s.Price))
}

func chooseDateText(s *catalog.Service) string {
	if s == nil {
		return "Please select a date:"
	}
	return serviceLines(*s) + "\n\nPlease select a date:"
}

func chooseSlotText(s *catalog.Service, date time.Time) string {
	var b strings.Builder
	if s != nil {
		b.WriteString(serviceLines(*s))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Date: %s\n\nPlease select a time slot:", slots.FormatDate(date))
	return b.String()
}

func confirmationText(b *service.Booking) string {
	return fmt.Sprintf(
		"✅ Your appointment is confirmed!\n\n"+
			"Booking ID: #%d\n"+
			"Service: %s\n"+
			"Price: %s\n"+
			"Date: %s\n"+
			"Time: %s\n\n"+
			"See you at the salon!",
		b.Appointment.ID,
		b.Service.Title(),
		catalog.FormatPrice(b.Appointment.Price),
		slots.FormatDate(b.Appointment.Day()),
		b.Appointment.TimeSlot,
	)
}

func bookingsText(list []service.Booking) string {
	if len(list) == 0 {
		return noBookingsText
	}
	var b strings.Builder
	b.WriteString("📅 Your appointments:\n")
	for _, item := range list {
		fmt.Fprintf(&b, "\n#%d %s\n%s at %s, %s\n",
			item.Appointment.ID,
			item.Service.Title(),
			slots.FormatShortDate(item.Appointment.Day()),
			item.Appointment.TimeSlot,
			catalog.FormatPrice(item.Appointment.Price),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}
