package main

import (
	"fmt"
	"sort"
	"time"
)

// HardDailyMax is the absolute cap on non-canceled events per calendar day,
// enforced at booking time. Everything else this engine reports is advisory.
const HardDailyMax = 6

const (
	slotHorizonDays    = 30
	weekendHorizonDays = 35
	weekendHorizonWks  = 6
	monthlyHorizonMos  = 3
)

// Tier-2 weekend staffing requirement per weekday.
var weekendNeed = []struct {
	Day  time.Weekday
	Need int
}{
	{time.Thursday, 1},
	{time.Friday, 1},
	{time.Saturday, 2},
	{time.Sunday, 2},
}

func tierByTypeID(types []EventType) map[uint]int {
	m := make(map[uint]int, len(types))
	for _, t := range types {
		m[t.ID] = t.Tier
	}
	return m
}

func activeEvents(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Status != StatusCanceled {
			out = append(out, ev)
		}
	}
	return out
}

func eventTier(ev Event, tiers map[uint]int) int {
	if ev.TypeID == nil {
		return 0
	}
	return tiers[*ev.TypeID]
}

// ComputeWarnings derives the rolling list of quota violations from scratch
// on every call. All horizon math anchors at StartOfDay(now) so repeated
// runs within a day are stable.
func ComputeWarnings(events []Event, types []EventType, now time.Time) []string {
	today := StartOfDay(now)
	tiers := tierByTypeID(types)
	active := activeEvents(events)

	var warnings []string

	// 1. Hard daily maximum. Existing over-capacity data is flagged, never
	// rejected; the write path enforces the cap for new bookings.
	byDay := map[string]int{}
	for _, ev := range active {
		byDay[DayKey(ev.StartAt)]++
	}
	days := make([]string, 0, len(byDay))
	for k := range byDay {
		days = append(days, k)
	}
	sort.Strings(days)
	for _, k := range days {
		if n := byDay[k]; n > HardDailyMax {
			warnings = append(warnings, fmt.Sprintf("%s has %d events, over the daily maximum of %d", k, n, HardDailyMax))
		}
	}

	// 2. Under-booked days in the next 30 days: at least one slot filled
	// but fewer than all three.
	slotsFilled := map[string]map[Slot]bool{}
	for _, ev := range active {
		k := DayKey(ev.StartAt)
		if slotsFilled[k] == nil {
			slotsFilled[k] = map[Slot]bool{}
		}
		slotsFilled[k][SlotOf(ev.StartAt)] = true
	}
	for d := 0; d < slotHorizonDays; d++ {
		k := DayKey(AddDays(today, d))
		if n := len(slotsFilled[k]); n >= 1 && n < SlotsPerDay {
			warnings = append(warnings, fmt.Sprintf("%s has %d open slot(s) remaining", k, SlotsPerDay-n))
		}
	}

	// 3. Tier-2 weekend coverage over the next six weeks (35-day horizon).
	weekKeys := make([]string, 0, weekendHorizonWks)
	seenWeek := map[string]bool{}
	for d := 0; d < weekendHorizonDays && len(weekKeys) < weekendHorizonWks; d++ {
		wk := WeekKey(AddDays(today, d))
		if !seenWeek[wk] {
			seenWeek[wk] = true
			weekKeys = append(weekKeys, wk)
		}
	}

	type weekDow struct {
		Week string
		Dow  time.Weekday
	}
	tier2 := map[weekDow]int{}
	for _, ev := range active {
		if eventTier(ev, tiers) == 2 {
			tier2[weekDow{WeekKey(ev.StartAt), ev.StartAt.Weekday()}]++
		}
	}

	requiredTotal := 0
	for _, wn := range weekendNeed {
		requiredTotal += wn.Need
	}
	for _, wk := range weekKeys {
		total := 0
		for _, wn := range weekendNeed {
			total += tier2[weekDow{wk, wn.Day}]
		}
		if total < requiredTotal {
			warnings = append(warnings, fmt.Sprintf("week of %s: tier-2 weekend coverage is %d of %d", wk, total, requiredTotal))
		}
		for _, wn := range weekendNeed {
			if have := tier2[weekDow{wk, wn.Day}]; have < wn.Need {
				warnings = append(warnings, fmt.Sprintf("week of %s: %s needs %d more tier-2 event(s)", wk, wn.Day, wn.Need-have))
			}
		}
	}

	// 4. Tier-3 monthly quota: exactly one per calendar month over the
	// current month and the next two.
	type monthKey struct {
		Year  int
		Month time.Month
	}
	tier3 := map[monthKey]int{}
	for _, ev := range active {
		if eventTier(ev, tiers) == 3 {
			tier3[monthKey{ev.StartAt.Year(), ev.StartAt.Month()}]++
		}
	}
	for m := 0; m < monthlyHorizonMos; m++ {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, m, 0)
		label := first.Format("January 2006")
		switch n := tier3[monthKey{first.Year(), first.Month()}]; {
		case n == 0:
			warnings = append(warnings, fmt.Sprintf("no tier-3 event scheduled for %s", label))
		case n > 1:
			warnings = append(warnings, fmt.Sprintf("tier-3 over quota for %s (%d/1)", label, n))
		}
	}

	return warnings
}

// dayReservations maps day keys to the highest tier (>=2) already booked on
// that day. High-tier events implicitly hold the day's other windows, so
// the slot finder consults this single map instead of rescanning events.
func dayReservations(events []Event, types []EventType) map[string]int {
	tiers := tierByTypeID(types)
	out := map[string]int{}
	for _, ev := range activeEvents(events) {
		tier := eventTier(ev, tiers)
		if tier < 2 {
			continue
		}
		k := DayKey(ev.StartAt)
		if tier > out[k] {
			out[k] = tier
		}
	}
	return out
}

// CheckDailyCap rejects a booking on startAt's day when the day already
// carries HardDailyMax non-canceled events. Pure; the write path calls it
// inside the insert transaction so the check and the write are one unit.
func CheckDailyCap(events []Event, startAt time.Time) error {
	day := StartOfDay(startAt)
	n := 0
	for _, ev := range events {
		if ev.Status != StatusCanceled && SameDay(ev.StartAt, day) {
			n++
		}
	}
	if n >= HardDailyMax {
		return &CapacityError{Day: DayKey(day), Count: n, Limit: HardDailyMax}
	}
	return nil
}
