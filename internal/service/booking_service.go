package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/Leganyst/salon-bot/internal/calendar"
	"github.com/Leganyst/salon-bot/internal/catalog"
	"github.com/Leganyst/salon-bot/internal/model"
	"github.com/Leganyst/salon-bot/internal/repository"
	"github.com/Leganyst/salon-bot/internal/slots"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrSlotUnavailable        = errors.New("time slot is no longer available")
	ErrDateInPast             = errors.New("date is in the past")
	ErrInvalidRequest         = errors.New("invalid booking request")
	ErrPersistenceUnavailable = errors.New("booking store unavailable")
)

var validate = validator.New()

type BookingRequest struct {
	UserID    int64     `validate:"required"`
	UserName  string    `validate:"max=255"`
	ServiceID string    `validate:"required"`
	Date      time.Time `validate:"required"`
	TimeSlot  string    `validate:"required"`
}

// Booking is an appointment with its catalog entry resolved.
type Booking struct {
	Appointment model.Appointment
	Service     catalog.Service
}

type BookingService struct {
	repo     repository.AppointmentRepository
	services *catalog.Catalog
	slots    *slots.Catalog
	loc      *time.Location

	now func() time.Time
}

func NewBookingService(
	repo repository.AppointmentRepository,
	services *catalog.Catalog,
	slotCatalog *slots.Catalog,
	loc *time.Location,
) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		repo:     repo,
		services: services,
		slots:    slotCatalog,
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for "today".
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Today is the current calendar day in the salon's time zone.
func (s *BookingService) Today() time.Time {
	return calendar.DateOf(s.now().In(s.loc))
}

// Book reserves the slot. The unique index on confirmed (date, slot) pairs
// decides races; IsAvailable only spares the insert in the common case.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*Booking, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	svc, err := s.services.Lookup(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if !s.slots.Contains(req.TimeSlot) {
		return nil, fmt.Errorf("%w: %w: %q", ErrNotFound, slots.ErrUnknownSlot, req.TimeSlot)
	}

	date := calendar.DateOf(req.Date)
	today := s.Today()
	if date.Before(today) {
		return nil, ErrDateInPast
	}
	if date.Equal(today) {
		start, err := s.slots.StartOn(date, req.TimeSlot, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		if !start.After(s.now()) {
			return nil, fmt.Errorf("%w: %s has already started", ErrDateInPast, req.TimeSlot)
		}
	}

	free, err := s.repo.IsAvailable(ctx, date, req.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
	if !free {
		return nil, ErrSlotUnavailable
	}

	a := &model.Appointment{
		UserID:    req.UserID,
		UserName:  req.UserName,
		ServiceID: svc.ID,
		Date:      datatypes.Date(date),
		TimeSlot:  req.TimeSlot,
		Price:     svc.Price,
		Status:    model.AppointmentStatusConfirmed,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}

	return &Booking{Appointment: *a, Service: svc}, nil
}

func (s *BookingService) IsAvailable(ctx context.Context, date time.Time, timeSlot string) (bool, error) {
	if !s.slots.Contains(timeSlot) {
		return false, fmt.Errorf("%w: %w: %q", ErrNotFound, slots.ErrUnknownSlot, timeSlot)
	}
	free, err := s.repo.IsAvailable(ctx, calendar.DateOf(date), timeSlot)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
	return free, nil
}

// ListForUser returns the user's confirmed appointments by date, then by
// position of the slot in the day.
func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
	s.sortByDay(rows)
	return s.resolve(rows), nil
}

// Get returns one appointment regardless of its status.
func (s *BookingService) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidRequest)
	}
	a, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, id)
	default:
		return nil, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
}

func (s *BookingService) ListAll(ctx context.Context, limit, offset int) ([]model.Appointment, int64, error) {
	rows, total, err := s.repo.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
	return rows, total, nil
}

func (s *BookingService) ListByDate(ctx context.Context, date time.Time) ([]model.Appointment, error) {
	rows, err := s.repo.ListByDate(ctx, calendar.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
	s.sortByDay(rows)
	return rows, nil
}

// BookedDates lists the days of ym holding at least one confirmed appointment.
func (s *BookingService) BookedDates(ctx context.Context, ym calendar.YearMonth) ([]time.Time, error) {
	from := ym.First()
	to := from.AddDate(0, 1, -1)
	dates, err := s.repo.BookedDates(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
	return dates, nil
}

func (s *BookingService) Cancel(ctx context.Context, id int64) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusCancelled)
}

func (s *BookingService) Complete(ctx context.Context, id int64) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusCompleted)
}

func (s *BookingService) transition(ctx context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidRequest)
	}
	a, err := s.repo.UpdateStatus(ctx, id, status)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, id)
	case errors.Is(err, repository.ErrSlotTaken):
		return nil, ErrSlotUnavailable
	default:
		return nil, fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
}

func (s *BookingService) sortByDay(rows []model.Appointment) {
	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := rows[i].Day(), rows[j].Day()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return s.slots.Index(rows[i].TimeSlot) < s.slots.Index(rows[j].TimeSlot)
	})
}

func (s *BookingService) resolve(rows []model.Appointment) []Booking {
	out := make([]Booking, 0, len(rows))
	for _, a := range rows {
		svc, err := s.services.Lookup(a.ServiceID)
		if err != nil {
			// retired from the catalog; keep the booked price
			svc = catalog.Service{ID: a.ServiceID, Name: a.ServiceID, Price: a.Price}
		}
		out = append(out, Booking{Appointment: a, Service: svc})
	}
	return out
}
