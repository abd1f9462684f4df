package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Leganyst/salon-bot/internal/calendar"
	"github.com/Leganyst/salon-bot/internal/catalog"
	"github.com/Leganyst/salon-bot/internal/model"
)

// Bookings is the part of the booking service the admin panel needs.
type Bookings interface {
	ListAll(ctx context.Context, limit, offset int) ([]model.Appointment, int64, error)
	Get(ctx context.Context, id int64) (*model.Appointment, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.Appointment, error)
	BookedDates(ctx context.Context, ym calendar.YearMonth) ([]time.Time, error)
	Cancel(ctx context.Context, id int64) (*model.Appointment, error)
	Complete(ctx context.Context, id int64) (*model.Appointment, error)
}

type Pinger func(ctx context.Context) error

type API struct {
	router   *mux.Router
	bookings Bookings
	services *catalog.Catalog
	ping     Pinger
	log      *slog.Logger

	accessLog      io.Writer
	allowedOrigins []string
}

type Option func(*API)

func WithPinger(p Pinger) Option { return func(a *API) { a.ping = p } }

func WithAccessLog(w io.Writer) Option { return func(a *API) { a.accessLog = w } }

func WithAllowedOrigins(origins ...string) Option {
	return func(a *API) {
		if len(origins) > 0 {
			a.allowedOrigins = origins
		}
	}
}

func WithLogger(l *slog.Logger) Option { return func(a *API) { a.log = l } }

func NewAPI(bookings Bookings, services *catalog.Catalog, opts ...Option) *API {
	r := mux.NewRouter()
	a := &API{
		router:         r.PathPrefix("/api").Subrouter(),
		bookings:       bookings,
		services:       services,
		log:            slog.Default(),
		accessLog:      io.Discard,
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.registerRoutes()
	return a
}

// Router is the bare router, without access log and CORS.
func (a *API) Router() http.Handler { return a.router }

func (a *API) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(a.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(a.accessLog, cors(a.router))
}

type Response struct {
	Status   int `json:"status"`
	Response any `json:"response"`
}

func (a *API) Response(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(Response{
		Status:   status,
		Response: data,
	})
	if err != nil {
		a.log.Error("encode response", "err", err)
	}
}

func (a *API) registerRoutes() {
	a.router.HandleFunc("/health", a.health).Methods(http.MethodGet)
	a.router.HandleFunc("/appointments", a.listAppointments).Methods(http.MethodGet)
	a.router.HandleFunc("/appointments/dates/{yearMonth:[0-9]{4}-[0-9]{2}}", a.bookedDates).Methods(http.MethodGet)
	a.router.HandleFunc("/appointments/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", a.appointmentsByDate).Methods(http.MethodGet)
	a.router.HandleFunc("/appointments/{id:[0-9]+}", a.getAppointment).Methods(http.MethodGet)
	a.router.HandleFunc("/appointments/cancel/{id:[0-9]+}", a.cancelAppointment).Methods(http.MethodPost)
	a.router.HandleFunc("/appointments/complete/{id:[0-9]+}", a.completeAppointment).Methods(http.MethodPost)
}
