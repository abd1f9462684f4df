package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-bot/internal/model"
)

var (
	// ErrSlotTaken is returned by Create when another confirmed appointment
	// already holds the (date, time slot) pair.
	ErrSlotTaken = errors.New("time slot already taken")
	ErrNotFound  = errors.New("appointment not found")
)

type AppointmentRepository interface {
	// Свободен ли слот на дату: нет подтверждённой записи.
	IsAvailable(ctx context.Context, date time.Time, timeSlot string) (bool, error)
	// Создать запись и событие appointment.booked в одной транзакции.
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	// Подтверждённые записи пользователя, по дате.
	ListForUser(ctx context.Context, userID int64) ([]model.Appointment, error)
	// Все записи, новые даты сначала, с пагинацией.
	ListAll(ctx context.Context, limit, offset int) ([]model.Appointment, int64, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.Appointment, error)
	// Даты месяца, на которые есть подтверждённые записи.
	BookedDates(ctx context.Context, from, to time.Time) ([]time.Time, error)
	// Сменить статус и записать событие.
	UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error)
}

// Реализация на GORM.
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func dateOnly(t time.Time) datatypes.Date {
	return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

func (r *GormAppointmentRepository) IsAvailable(ctx context.Context, date time.Time, timeSlot string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("date = ? AND time_slot = ? AND status = ?", dateOnly(date), timeSlot, model.AppointmentStatusConfirmed).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *GormAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	a.Date = dateOnly(time.Time(a.Date))
	if a.Status == "" {
		a.Status = model.AppointmentStatusConfirmed
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return createEvent(tx, model.EventTypeAppointmentBooked, a)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlotTaken
	}
	return err
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) ListForUser(ctx context.Context, userID int64) ([]model.Appointment, error) {
	var out []model.Appointment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.AppointmentStatusConfirmed).
		Order("date ASC").
		Order("id ASC").
		Find(&out).
		Error
	return out, err
}

func (r *GormAppointmentRepository) ListAll(ctx context.Context, limit, offset int) ([]model.Appointment, int64, error) {
	var (
		out   []model.Appointment
		total int64
	)

	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Appointment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Model(&model.Appointment{})
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("date DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *GormAppointmentRepository) ListByDate(ctx context.Context, date time.Time) ([]model.Appointment, error) {
	var out []model.Appointment
	err := r.db.WithContext(ctx).
		Where("date = ?", dateOnly(date)).
		Order("id ASC").
		Find(&out).
		Error
	return out, err
}

func (r *GormAppointmentRepository) BookedDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var rows []model.Appointment
	err := r.db.WithContext(ctx).
		Select("date").
		Where("date >= ? AND date <= ? AND status = ?", dateOnly(from), dateOnly(to), model.AppointmentStatusConfirmed).
		Order("date ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, len(rows))
	seen := make(map[time.Time]struct{}, len(rows))
	for _, row := range rows {
		d := row.Day().UTC()
		d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}

func (r *GormAppointmentRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	status model.AppointmentStatus,
) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	var a model.Appointment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&a).Update("status", status).Error; err != nil {
			return err
		}
		a.Status = status
		return createEvent(tx, model.EventTypeForStatus(status), &a)
	})
	if err != nil {
		// re-confirming a cancelled slot that was booked again meanwhile
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return &a, nil
}

func createEvent(tx *gorm.DB, eventType model.EventType, a *model.Appointment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	ev := &model.Event{
		EventType:     eventType,
		AppointmentID: a.ID,
		UserID:        a.UserID,
		Payload:       datatypes.JSON(payload),
	}
	return tx.Create(ev).Error
}
