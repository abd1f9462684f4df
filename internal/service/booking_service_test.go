package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/salon-bot/internal/calendar"
	"github.com/Leganyst/salon-bot/internal/catalog"
	"github.com/Leganyst/salon-bot/internal/model"
	"github.com/Leganyst/salon-bot/internal/repository"
	"github.com/Leganyst/salon-bot/internal/slots"
)

var testNow = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) *BookingService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, model.AutoMigrate(db))

	svc := NewBookingService(
		repository.NewGormAppointmentRepository(db),
		catalog.Default(),
		slots.Default(),
		time.UTC,
	)
	svc.now = func() time.Time { return testNow }
	return svc
}

func request(userID int64, serviceID string, date time.Time, slot string) BookingRequest {
	return BookingRequest{
		UserID:    userID,
		UserName:  "Ravi",
		ServiceID: serviceID,
		Date:      date,
		TimeSlot:  slot,
	}
}

func TestBookingService_BookSnapshotsCatalog(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	date := time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)

	b, err := s.Book(ctx, request(11, "coloring", date, "11:00 AM"))
	require.NoError(t, err)

	assert.NotZero(t, b.Appointment.ID)
	assert.Equal(t, "Coloring", b.Service.Name)
	assert.True(t, b.Appointment.Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, model.AppointmentStatusConfirmed, b.Appointment.Status)
	assert.True(t, b.Appointment.Day().Equal(date))

	free, err := s.IsAvailable(ctx, date, "11:00 AM")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = s.IsAvailable(ctx, date, "12:00 PM")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestBookingService_BookToday(t *testing.T) {
	s := newTestService(t)

	_, err := s.Book(context.Background(), request(1, "haircut", testNow, "6:00 PM"))
	require.NoError(t, err)
}

func TestBookingService_BookTodayRejectsStartedSlots(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2026, time.October, 18, 14, 0, 0, 0, time.UTC) }

	_, err := s.Book(ctx, request(1, "haircut", testNow, "1:00 PM"))
	assert.ErrorIs(t, err, ErrDateInPast)
	_, err = s.Book(ctx, request(1, "haircut", testNow, "2:00 PM"))
	assert.ErrorIs(t, err, ErrDateInPast, "a slot starting now is gone")

	_, err = s.Book(ctx, request(1, "haircut", testNow, "3:00 PM"))
	require.NoError(t, err)
	_, err = s.Book(ctx, request(1, "haircut", testNow.AddDate(0, 0, 1), "10:00 AM"))
	require.NoError(t, err)
}

func TestBookingService_StartedSlotsUseLocation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	s.loc = time.FixedZone("IST", 5*3600+1800)
	// 10:30 in India
	s.now = func() time.Time { return time.Date(2026, time.October, 18, 5, 0, 0, 0, time.UTC) }
	today := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

	_, err := s.Book(ctx, request(1, "haircut", today, "10:00 AM"))
	assert.ErrorIs(t, err, ErrDateInPast)
	_, err = s.Book(ctx, request(1, "haircut", today, "11:00 AM"))
	require.NoError(t, err)
}

func TestBookingService_Get(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	date := time.Date(2026, time.October, 23, 0, 0, 0, 0, time.UTC)

	b, err := s.Book(ctx, request(4, "smoothening", date, "4:00 PM"))
	require.NoError(t, err)
	_, err = s.Cancel(ctx, b.Appointment.ID)
	require.NoError(t, err)

	got, err := s.Get(ctx, b.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)
	assert.Equal(t, "smoothening", got.ServiceID)

	_, err = s.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBookingService_BookRejects(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	future := time.Date(2026, time.October, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  BookingRequest
		want error
	}{
		{"unknown service", request(1, "massage", future, "10:00 AM"), ErrNotFound},
		{"unknown slot", request(1, "haircut", future, "9:00 AM"), ErrNotFound},
		{"past date", request(1, "haircut", time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC), "10:00 AM"), ErrDateInPast},
		{"missing user", request(0, "haircut", future, "10:00 AM"), ErrInvalidRequest},
		{"missing date", request(1, "haircut", time.Time{}, "10:00 AM"), ErrInvalidRequest},
		{"missing slot", request(1, "haircut", future, ""), ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Book(ctx, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := s.Book(ctx, request(1, "massage", future, "10:00 AM"))
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = s.Book(ctx, request(1, "haircut", future, "9:00 AM"))
	assert.ErrorIs(t, err, slots.ErrUnknownSlot)
}

func TestBookingService_SequentialDoubleBooking(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	date := time.Date(2026, time.October, 21, 0, 0, 0, 0, time.UTC)

	_, err := s.Book(ctx, request(1, "haircut", date, "2:00 PM"))
	require.NoError(t, err)

	_, err = s.Book(ctx, request(2, "beard", date, "2:00 PM"))
	require.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBookingService_ConcurrentBookingsOneWins(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	date := time.Date(2026, time.October, 22, 0, 0, 0, 0, time.UTC)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		lost int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := s.Book(ctx, request(user, "haircut", date, "3:00 PM"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrSlotUnavailable):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, lost)
}

func TestBookingService_ListForUserOrdersBySlot(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	d1 := time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

	for _, r := range []BookingRequest{
		request(5, "haircut", d1, "1:00 PM"),
		request(5, "smoothening", d1, "11:00 AM"),
		request(5, "beard", d2, "5:00 PM"),
		request(6, "haircut", d2, "10:00 AM"),
	} {
		_, err := s.Book(ctx, r)
		require.NoError(t, err)
	}

	got, err := s.ListForUser(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "5:00 PM", got[0].Appointment.TimeSlot)
	assert.Equal(t, "11:00 AM", got[1].Appointment.TimeSlot)
	assert.Equal(t, "1:00 PM", got[2].Appointment.TimeSlot)
	assert.Equal(t, "Beard Trim", got[0].Service.Name)

	_, err = s.Cancel(ctx, got[1].Appointment.ID)
	require.NoError(t, err)
	_, err = s.Complete(ctx, got[2].Appointment.ID)
	require.NoError(t, err)

	got, err = s.ListForUser(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5:00 PM", got[0].Appointment.TimeSlot)

	// cancelled slot can be booked again
	_, err = s.Book(ctx, request(7, "haircut", d1, "11:00 AM"))
	require.NoError(t, err)
}

func TestBookingService_TransitionErrors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Cancel(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Complete(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBookingService_AdminQueries(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	d := time.Date(2026, time.November, 4, 0, 0, 0, 0, time.UTC)

	for _, slot := range []string{"4:00 PM", "10:00 AM"} {
		_, err := s.Book(ctx, request(3, "haircut", d, slot))
		require.NoError(t, err)
	}
	_, err := s.Book(ctx, request(3, "haircut", time.Date(2026, time.November, 30, 0, 0, 0, 0, time.UTC), "10:00 AM"))
	require.NoError(t, err)

	onDay, err := s.ListByDate(ctx, d)
	require.NoError(t, err)
	require.Len(t, onDay, 2)
	assert.Equal(t, "10:00 AM", onDay[0].TimeSlot)

	dates, err := s.BookedDates(ctx, calendar.NewYearMonth(2026, 11))
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, 30, dates[1].Day())

	all, total, err := s.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)
}

func TestBookingService_StoreFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "appointments"`).WillReturnError(errors.New("database is locked"))
	mock.ExpectQuery(`SELECT \* FROM "appointments"`).WillReturnError(errors.New("database is locked"))

	s := NewBookingService(repository.NewGormAppointmentRepository(db), catalog.Default(), slots.Default(), time.UTC)
	s.now = func() time.Time { return testNow }

	_, err = s.Book(context.Background(), request(1, "haircut", testNow.AddDate(0, 0, 1), "10:00 AM"))
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)

	_, err = s.ListForUser(context.Background(), 1)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_TodayUsesLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	s := NewBookingService(nil, catalog.Default(), slots.Default(), kolkata)
	// 20:00 UTC is already the next day in India
	s.now = func() time.Time { return time.Date(2026, time.October, 18, 20, 0, 0, 0, time.UTC) }

	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), s.Today())
}
