package calendar

import (
	"fmt"
	"time"
)

// DaysInWeek is the grid width; weeks start on Monday.
const DaysInWeek = 7

var weekdayLabels = [DaysInWeek]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// YearMonth identifies a rendered month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth normalises month roll-over: month 0 is December of the
// previous year, month 13 is January of the next one.
func NewYearMonth(year, month int) YearMonth {
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) Prev() YearMonth { return NewYearMonth(ym.Year, int(ym.Month)-1) }
func (ym YearMonth) Next() YearMonth { return NewYearMonth(ym.Year, int(ym.Month)+1) }

func (ym YearMonth) Before(other YearMonth) bool {
	return ym.First().Before(other.First())
}

// Days is the number of days in the month.
func (ym YearMonth) Days() int {
	return ym.First().AddDate(0, 1, -1).Day()
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%s %d", ym.Month, ym.Year)
}

// DateOf truncates t to its calendar day, expressed as UTC midnight so that
// dates compare and persist independently of the caller's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Cell is one grid position. Day == 0 marks blank filler; Date is set only
// for selectable cells.
type Cell struct {
	Day        int
	Selectable bool
	Date       time.Time
}

func (c Cell) Blank() bool { return c.Day == 0 }

// Month is a rendered calendar page.
type Month struct {
	Current       YearMonth
	Header        string
	WeekdayLabels [DaysInWeek]string
	Weeks         [][DaysInWeek]Cell
	// Prev is nil when the previous month lies before the month containing today.
	Prev *YearMonth
	Next YearMonth
}

// Render builds the grid for year/month. Days strictly before today are
// disabled; today and later are selectable. Forward navigation is unbounded.
func Render(year, month int, today time.Time) Month {
	ym := NewYearMonth(year, month)
	todayDate := DateOf(today)

	m := Month{
		Current:       ym,
		Header:        ym.String(),
		WeekdayLabels: weekdayLabels,
		Next:          ym.Next(),
	}

	if prev := ym.Prev(); !prev.Before(MonthOf(todayDate)) {
		m.Prev = &prev
	}

	first := ym.First()
	// time.Weekday counts from Sunday; shift so Monday is column 0.
	col := (int(first.Weekday()) + DaysInWeek - 1) % DaysInWeek

	var week [DaysInWeek]Cell
	for day := 1; day <= ym.Days(); day++ {
		date := time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, time.UTC)
		cell := Cell{Day: day}
		if !date.Before(todayDate) {
			cell.Selectable = true
			cell.Date = date
		}
		week[col] = cell
		col++

		if col == DaysInWeek {
			m.Weeks = append(m.Weeks, week)
			week = [DaysInWeek]Cell{}
			col = 0
		}
	}
	if col > 0 {
		m.Weeks = append(m.Weeks, week)
	}

	return m
}
