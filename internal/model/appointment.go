package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// appointments
type Appointment struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// Telegram user id of the customer.
	UserID   int64  `gorm:"not null;index" json:"user_id"`
	UserName string `gorm:"type:varchar(255)" json:"user_name"`

	// Catalog id; not a foreign key, services live in code.
	ServiceID string `gorm:"type:varchar(64);not null" json:"service_id"`

	Date     datatypes.Date `gorm:"not null;index" json:"date"`
	TimeSlot string         `gorm:"type:varchar(16);not null" json:"time_slot"`

	// Snapshot of the catalog price at booking time.
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`

	Status AppointmentStatus `gorm:"type:varchar(16);not null;default:'confirmed';index" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Day returns the appointment date as a time.Time at UTC midnight.
func (a Appointment) Day() time.Time {
	return time.Time(a.Date)
}
