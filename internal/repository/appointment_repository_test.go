package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/salon-bot/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	// :memory: is per connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newAppointment(userID int64, date time.Time, slot string) *model.Appointment {
	return &model.Appointment{
		UserID:    userID,
		UserName:  "Asha",
		ServiceID: "haircut",
		Date:      datatypes.Date(date),
		TimeSlot:  slot,
		Price:     decimal.NewFromInt(100),
	}
}

func TestAppointmentRepository_CreateMakesSlotUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAppointmentRepository(newTestDB(t))
	d := day(2026, time.October, 20)

	ok, err := repo.IsAvailable(ctx, d, "10:00 AM")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !ok {
		t.Fatalf("expected empty slot to be available")
	}

	a := newAppointment(1, d, "10:00 AM")
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if a.Status != model.AppointmentStatusConfirmed {
		t.Fatalf("expected status confirmed, got %q", a.Status)
	}

	ok, err = repo.IsAvailable(ctx, d, "10:00 AM")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if ok {
		t.Fatalf("expected slot to be taken")
	}

	// other slot and other date stay free
	if ok, _ := repo.IsAvailable(ctx, d, "11:00 AM"); !ok {
		t.Fatalf("expected 11:00 AM to be free")
	}
	if ok, _ := repo.IsAvailable(ctx, day(2026, time.October, 21), "10:00 AM"); !ok {
		t.Fatalf("expected next day to be free")
	}
}

func TestAppointmentRepository_DuplicateSlotRejected(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormAppointmentRepository(db)
	d := day(2026, time.October, 20)

	if err := repo.Create(ctx, newAppointment(1, d, "2:00 PM")); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	err := repo.Create(ctx, newAppointment(2, d, "2:00 PM"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	var n int64
	db.Model(&model.Appointment{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 appointment, got %d", n)
	}

	// the rolled back booking left no event behind
	var events int64
	db.Model(&model.Event{}).Count(&events)
	if events != 1 {
		t.Fatalf("expected 1 event, got %d", events)
	}
}

func TestAppointmentRepository_CancelFreesSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAppointmentRepository(newTestDB(t))
	d := day(2026, time.November, 2)

	a := newAppointment(7, d, "4:00 PM")
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, a.ID, model.AppointmentStatusCancelled)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != model.AppointmentStatusCancelled {
		t.Fatalf("expected cancelled, got %q", updated.Status)
	}

	ok, err := repo.IsAvailable(ctx, d, "4:00 PM")
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !ok {
		t.Fatalf("expected cancelled slot to be free again")
	}

	if err := repo.Create(ctx, newAppointment(8, d, "4:00 PM")); err != nil {
		t.Fatalf("rebook cancelled slot: %v", err)
	}

	// restoring the old one would double-book
	_, err = repo.UpdateStatus(ctx, a.ID, model.AppointmentStatusConfirmed)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestAppointmentRepository_UpdateStatusNotFound(t *testing.T) {
	repo := NewGormAppointmentRepository(newTestDB(t))

	_, err := repo.UpdateStatus(context.Background(), 404, model.AppointmentStatusCompleted)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = repo.GetByID(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentRepository_ListForUserFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAppointmentRepository(newTestDB(t))

	fixtures := []*model.Appointment{
		newAppointment(1, day(2026, time.October, 22), "10:00 AM"),
		newAppointment(2, day(2026, time.October, 20), "10:00 AM"),
		newAppointment(1, day(2026, time.October, 20), "3:00 PM"),
	}
	for _, a := range fixtures {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(got))
	}
	for _, a := range got {
		if a.UserID != 1 {
			t.Fatalf("leaked appointment of user %d", a.UserID)
		}
	}
	if !got[0].Day().Equal(day(2026, time.October, 20)) {
		t.Fatalf("expected earliest date first, got %v", got[0].Day())
	}
	if !got[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected price 100, got %s", got[0].Price)
	}

	if _, err := repo.UpdateStatus(ctx, got[0].ID, model.AppointmentStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err = repo.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 1 || !got[0].Day().Equal(day(2026, time.October, 22)) {
		t.Fatalf("expected completed appointment to leave the listing, got %+v", got)
	}

	none, err := repo.ListForUser(ctx, 99)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no appointments, got %d", len(none))
	}
}

func TestAppointmentRepository_ListAllAndBookedDates(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAppointmentRepository(newTestDB(t))

	for i, d := range []int{3, 3, 9, 28} {
		slot := []string{"10:00 AM", "11:00 AM", "12:00 PM", "1:00 PM"}[i]
		if err := repo.Create(ctx, newAppointment(int64(i+1), day(2026, time.November, d), slot)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	cancelled := newAppointment(9, day(2026, time.November, 15), "10:00 AM")
	if err := repo.Create(ctx, cancelled); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, cancelled.ID, model.AppointmentStatusCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	page, total, err := repo.ListAll(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	if !page[0].Day().Equal(day(2026, time.November, 28)) {
		t.Fatalf("expected newest date first, got %v", page[0].Day())
	}

	byDate, err := repo.ListByDate(ctx, day(2026, time.November, 3))
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("expected 2 appointments on Nov 3, got %d", len(byDate))
	}

	dates, err := repo.BookedDates(ctx, day(2026, time.November, 1), day(2026, time.November, 30))
	if err != nil {
		t.Fatalf("BookedDates: %v", err)
	}
	want := []time.Time{day(2026, time.November, 3), day(2026, time.November, 9), day(2026, time.November, 28)}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Fatalf("date %d: expected %v, got %v", i, want[i], dates[i])
		}
	}
}

func TestAppointmentRepository_IsAvailablePropagatesDBError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`SELECT count\(\*\) FROM "appointments"`).WillReturnError(dbErr)

	repo := NewGormAppointmentRepository(db)
	_, err = repo.IsAvailable(context.Background(), day(2026, time.October, 20), "10:00 AM")
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected db error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
