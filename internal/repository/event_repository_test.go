package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/salon-bot/internal/model"
)

func TestEventRepository_OutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	appointments := NewGormAppointmentRepository(db)
	events := NewGormEventRepository(db)

	a := newAppointment(42, day(2026, time.October, 20), "5:00 PM")
	if err := appointments.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := appointments.UpdateStatus(ctx, a.ID, model.AppointmentStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	pending, err := events.FetchUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("FetchUnpublished: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pending))
	}

	types := map[model.EventType]bool{}
	for _, ev := range pending {
		if ev.ID == uuid.Nil {
			t.Fatalf("expected generated event id")
		}
		if ev.AppointmentID != a.ID || ev.UserID != 42 {
			t.Fatalf("unexpected event refs: %+v", ev)
		}
		types[ev.EventType] = true

		var snap model.Appointment
		if err := json.Unmarshal(ev.Payload, &snap); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if snap.TimeSlot != "5:00 PM" {
			t.Fatalf("expected payload slot 5:00 PM, got %q", snap.TimeSlot)
		}
	}
	if !types[model.EventTypeAppointmentBooked] || !types[model.EventTypeAppointmentCompleted] {
		t.Fatalf("expected booked and completed events, got %v", types)
	}

	limited, err := events.FetchUnpublished(ctx, 1)
	if err != nil {
		t.Fatalf("FetchUnpublished: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	if err := events.MarkPublished(ctx, []uuid.UUID{pending[0].ID}, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	rest, err := events.FetchUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("FetchUnpublished: %v", err)
	}
	if len(rest) != 1 || rest[0].ID == pending[0].ID {
		t.Fatalf("expected only the unmarked event pending, got %+v", rest)
	}

	if err := events.MarkPublished(ctx, nil, time.Now()); err != nil {
		t.Fatalf("MarkPublished(nil): %v", err)
	}
}
