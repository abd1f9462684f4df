package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Leganyst/salon-bot/internal/calendar"
)

const (
	prefixService = "service_"
	prefixMonth   = "month_"
	prefixDate    = "date_"
	prefixTime    = "time_"

	BackToCalendarData = "back_to_calendar"
	IgnoreData         = "ignore"

	tokenDateLayout = "2006-01-02"
)

var ErrMalformedCallback = errors.New("malformed callback data")

// Action is a decoded inline-button token.
type Action interface {
	action()
}

type ServiceSelected struct {
	ServiceID string
}

type MonthNav struct {
	Month calendar.YearMonth
}

type DateSelected struct {
	Date time.Time
}

type SlotSelected struct {
	Date time.Time
	Slot string
}

type BackToCalendar struct{}

type Ignore struct{}

func (ServiceSelected) action() {}
func (MonthNav) action()        {}
func (DateSelected) action()    {}
func (SlotSelected) action()    {}
func (BackToCalendar) action()  {}
func (Ignore) action()          {}

func ServiceData(id string) string {
	return prefixService + id
}

func MonthData(ym calendar.YearMonth) string {
	return fmt.Sprintf("%s%d_%d", prefixMonth, ym.Year, int(ym.Month))
}

func DateData(d time.Time) string {
	return fmt.Sprintf("%s%d_%d_%d", prefixDate, d.Year(), int(d.Month()), d.Day())
}

func SlotData(d time.Time, slot string) string {
	return prefixTime + d.Format(tokenDateLayout) + "_" + slot
}

// ParseCallback decodes callback data. Dates come back as UTC midnight.
func ParseCallback(data string) (Action, error) {
	switch {
	case data == IgnoreData:
		return Ignore{}, nil
	case data == BackToCalendarData:
		return BackToCalendar{}, nil

	case strings.HasPrefix(data, prefixService):
		id := strings.TrimPrefix(data, prefixService)
		if id == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
		}
		return ServiceSelected{ServiceID: id}, nil

	case strings.HasPrefix(data, prefixMonth):
		nums, err := splitInts(strings.TrimPrefix(data, prefixMonth), 2)
		// 0 and 13 roll over into the neighbouring year.
		if err != nil || nums[1] < 0 || nums[1] > 13 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
		}
		return MonthNav{Month: calendar.NewYearMonth(nums[0], nums[1])}, nil

	case strings.HasPrefix(data, prefixDate):
		nums, err := splitInts(strings.TrimPrefix(data, prefixDate), 3)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
		}
		d, ok := validDate(nums[0], nums[1], nums[2])
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
		}
		return DateSelected{Date: d}, nil

	case strings.HasPrefix(data, prefixTime):
		datePart, slot, ok := strings.Cut(strings.TrimPrefix(data, prefixTime), "_")
		if !ok || slot == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
		}
		d, err := time.Parse(tokenDateLayout, datePart)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
		}
		return SlotSelected{Date: d, Slot: slot}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
}

func splitInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, "_")
	if len(parts) != n {
		return nil, ErrMalformedCallback
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// validDate rejects days time.Date would silently normalise, like 31 February.
func validDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
