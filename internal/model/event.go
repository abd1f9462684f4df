package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event type, also used as the Kafka event_type header.
type EventType string

const (
	EventTypeAppointmentBooked    EventType = "appointment.booked"
	EventTypeAppointmentCancelled EventType = "appointment.cancelled"
	EventTypeAppointmentCompleted EventType = "appointment.completed"
)

// EventTypeForStatus maps a status transition to its event.
func EventTypeForStatus(s AppointmentStatus) EventType {
	switch s {
	case AppointmentStatusCancelled:
		return EventTypeAppointmentCancelled
	case AppointmentStatusCompleted:
		return EventTypeAppointmentCompleted
	default:
		return EventTypeAppointmentBooked
	}
}

// events: audit log doubling as the outbox for the Kafka relay.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	AppointmentID int64 `gorm:"not null;index"`
	UserID        int64 `gorm:"not null"`

	// JSON snapshot of the appointment after the change.
	Payload datatypes.JSON

	CreatedAt time.Time `gorm:"not null;index"`

	// nil until the relay has delivered the event.
	PublishedAt *time.Time `gorm:"index"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
