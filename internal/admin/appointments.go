package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/salon-bot/internal/calendar"
	"github.com/Leganyst/salon-bot/internal/model"
	"github.com/Leganyst/salon-bot/internal/service"
)

const (
	dateLayout      = "2006-01-02"
	yearMonthLayout = "2006-01"
)

type appointmentView struct {
	ID          int64                   `json:"id"`
	UserID      int64                   `json:"user_id"`
	UserName    string                  `json:"user_name"`
	ServiceID   string                  `json:"service_id"`
	ServiceName string                  `json:"service_name"`
	Date        string                  `json:"date"`
	TimeSlot    string                  `json:"time_slot"`
	Price       decimal.Decimal         `json:"price"`
	Status      model.AppointmentStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
}

func (a *API) view(m model.Appointment) appointmentView {
	name := m.ServiceID
	if svc, err := a.services.Lookup(m.ServiceID); err == nil {
		name = svc.Name
	}
	return appointmentView{
		ID:          m.ID,
		UserID:      m.UserID,
		UserName:    m.UserName,
		ServiceID:   m.ServiceID,
		ServiceName: name,
		Date:        m.Day().Format(dateLayout),
		TimeSlot:    m.TimeSlot,
		Price:       m.Price,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
	}
}

func (a *API) views(rows []model.Appointment) []appointmentView {
	out := make([]appointmentView, 0, len(rows))
	for _, m := range rows {
		out = append(out, a.view(m))
	}
	return out
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func (a *API) listAppointments(w http.ResponseWriter, r *http.Request) {
	page, size := normalize(queryInt(r, "page"), queryInt(r, "page_size"))

	rows, total, err := a.bookings.ListAll(r.Context(), size, (page-1)*size)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, PageOf(a.views(rows), page, size, total))
}

func (a *API) appointmentsByDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, mux.Vars(r)["date"])
	if err != nil {
		a.Response(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	rows, err := a.bookings.ListByDate(r.Context(), date)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, Paginate(a.views(rows), queryInt(r, "page"), queryInt(r, "page_size")))
}

type bookedDatesResponse struct {
	Month string   `json:"month"`
	Dates []string `json:"dates"`
}

func (a *API) bookedDates(w http.ResponseWriter, r *http.Request) {
	t, err := time.Parse(yearMonthLayout, mux.Vars(r)["yearMonth"])
	if err != nil {
		a.Response(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return
	}
	ym := calendar.MonthOf(t)

	dates, err := a.bookings.BookedDates(r.Context(), ym)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	resp := bookedDatesResponse{Month: t.Format(yearMonthLayout), Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, d.Format(dateLayout))
	}
	a.Response(w, http.StatusOK, resp)
}

func (a *API) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		a.Response(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	appt, err := a.bookings.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, a.view(*appt))
}

func (a *API) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		a.Response(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	appt, err := a.bookings.Cancel(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, a.view(*appt))
}

func (a *API) completeAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		a.Response(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	appt, err := a.bookings.Complete(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, a.view(*appt))
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		a.Response(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRequest):
		a.Response(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSlotUnavailable):
		a.Response(w, http.StatusConflict, err.Error())
	default:
		a.log.Error("admin request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		a.Response(w, http.StatusInternalServerError, service.ErrPersistenceUnavailable.Error())
	}
}
