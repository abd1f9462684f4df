package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Only one confirmed appointment may hold a (date, time_slot) pair;
// cancelled and completed rows do not block the slot. Supported as a partial
// index by both SQLite and Postgres.
const confirmedSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_confirmed_slot
	ON appointments (date, time_slot) WHERE status = 'confirmed'`

// AutoMigrate migrates every table of the booking store.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Appointment{},
		&Event{},
	); err != nil {
		return err
	}
	if err := db.Exec(confirmedSlotIndex).Error; err != nil {
		return fmt.Errorf("create slot index: %w", err)
	}
	return nil
}
