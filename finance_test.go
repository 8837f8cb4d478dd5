package main

import (
	"math"
	"strings"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func projectionType() *EventType {
	return &EventType{
		ID:           1,
		Name:         "Weekend Pop-Up",
		Tier:         2,
		TargetNetMin: 200,
		TargetNetMax: 400,
		DonationPct:  0.1,
		DonationCap:  25,
		MarginPct:    f64(0.3),
		ChecklistDefault: []ChecklistItem{
			{Item: "fudge boxes", Qty: 12},
			{Item: "cash float", Qty: 1},
		},
	}
}

func TestProjectBookingDerivesDefaults(t *testing.T) {
	ev := ProjectBooking(Event{StartAt: time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)}, projectionType())

	if ev.TargetNet == nil || *ev.TargetNet != 300 {
		t.Errorf("target net = %v, want 300", ev.TargetNet)
	}
	if ev.EstimatedGross == nil || *ev.EstimatedGross != 429 {
		t.Errorf("estimated gross = %v, want 429", ev.EstimatedGross)
	}
	if ev.SupplyBudget == nil || *ev.SupplyBudget != 129 {
		t.Errorf("supply budget = %v, want 129", ev.SupplyBudget)
	}

	// gross * margin == supply budget within rounding.
	if diff := math.Abs(*ev.EstimatedGross*0.3 - *ev.SupplyBudget); diff > 0.5 {
		t.Errorf("supply budget off gross*margin by %v", diff)
	}

	if len(ev.Checklist) != 2 {
		t.Fatalf("checklist not copied from type default: %v", ev.Checklist)
	}
	for _, item := range ev.Checklist {
		if item.Checked {
			t.Errorf("default checklist item starts checked: %+v", item)
		}
	}
	if !strings.Contains(ev.Notes, "donation") {
		t.Errorf("notes missing donation summary: %q", ev.Notes)
	}
}

func TestProjectBookingDefaultMargin(t *testing.T) {
	et := projectionType()
	et.MarginPct = nil // falls back to 0.35

	ev := ProjectBooking(Event{TargetNet: f64(100)}, et)
	if ev.EstimatedGross == nil || *ev.EstimatedGross != 154 {
		// 100 / 0.65 = 153.8...
		t.Errorf("estimated gross = %v, want 154", ev.EstimatedGross)
	}
}

func TestProjectBookingNeverOverwrites(t *testing.T) {
	caller := Event{
		TargetNet:      f64(500),
		EstimatedGross: f64(1000),
		SupplyBudget:   f64(111),
		EntryFee:       f64(40),
		Notes:          "hand-written",
		Checklist:      []ChecklistItem{{Item: "custom", Qty: 1, Checked: true}},
	}

	ev := ProjectBooking(caller, projectionType())
	if *ev.TargetNet != 500 || *ev.EstimatedGross != 1000 || *ev.SupplyBudget != 111 {
		t.Errorf("caller-supplied money fields were rewritten: %+v", ev)
	}
	if ev.Notes != "hand-written" {
		t.Errorf("caller notes replaced: %q", ev.Notes)
	}
	if len(ev.Checklist) != 1 || ev.Checklist[0].Item != "custom" {
		t.Errorf("caller checklist replaced: %v", ev.Checklist)
	}
}

func TestProjectBookingIdempotent(t *testing.T) {
	et := projectionType()
	once := ProjectBooking(Event{}, et)
	twice := ProjectBooking(once, et)

	if *once.TargetNet != *twice.TargetNet ||
		*once.EstimatedGross != *twice.EstimatedGross ||
		*once.SupplyBudget != *twice.SupplyBudget ||
		once.Notes != twice.Notes ||
		len(once.Checklist) != len(twice.Checklist) {
		t.Errorf("second projection changed the booking:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestProjectBookingDonationCap(t *testing.T) {
	et := projectionType()
	et.DonationPct = 0.5
	et.DonationCap = 25

	ev := ProjectBooking(Event{}, et)
	// gross=429, 50% would be 214.50 but the cap holds it at 25.
	if !strings.Contains(ev.Notes, "donation $25.00") {
		t.Errorf("donation not capped in notes: %q", ev.Notes)
	}
}

func TestProjectBookingFullMargin(t *testing.T) {
	// A margin of 1 leaves no headroom to derive gross from net; the
	// projection must skip the derivation instead of dividing by zero.
	et := projectionType()
	et.MarginPct = f64(1.0)

	ev := ProjectBooking(Event{}, et)
	if ev.TargetNet == nil || *ev.TargetNet != 300 {
		t.Errorf("target net = %v, want 300", ev.TargetNet)
	}
	if ev.EstimatedGross != nil {
		t.Errorf("estimated gross = %v, want nil when margin leaves no headroom", ev.EstimatedGross)
	}
	if ev.SupplyBudget != nil {
		t.Errorf("supply budget = %v, want nil without a gross to scale", ev.SupplyBudget)
	}
	if ev.Notes != "" {
		t.Errorf("notes written without a gross: %q", ev.Notes)
	}
	if len(ev.Checklist) != 2 {
		t.Errorf("checklist default should still copy: %v", ev.Checklist)
	}

	// With a caller-supplied gross everything downstream still derives.
	ev = ProjectBooking(Event{EstimatedGross: f64(400)}, et)
	if ev.SupplyBudget == nil || *ev.SupplyBudget != 400 {
		t.Errorf("supply budget = %v, want 400 at margin 1", ev.SupplyBudget)
	}
	if ev.Notes == "" {
		t.Errorf("notes missing despite supplied gross")
	}
}

func TestProjectBookingNilType(t *testing.T) {
	in := Event{Title: "untyped", Notes: ""}
	out := ProjectBooking(in, nil)
	if out.TargetNet != nil || out.EstimatedGross != nil || out.Notes != "" {
		t.Errorf("nil type should return booking unchanged: %+v", out)
	}
}
