package main

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// defaultMarginPct applies when the event type carries no margin.
const defaultMarginPct = 0.35

func roundWhole(d decimal.Decimal) float64 {
	f, _ := d.Round(0).Float64()
	return f
}

// ProjectBooking fills the monetary fields a booking left unset from its
// type's parameters. Caller-supplied values are never overwritten, so the
// transform is idempotent. A nil type returns the booking unchanged; the
// save path requires a type before it gets here.
func ProjectBooking(ev Event, et *EventType) Event {
	if et == nil {
		return ev
	}

	margin := defaultMarginPct
	if et.MarginPct != nil {
		margin = *et.MarginPct
	}

	if ev.TargetNet == nil {
		mid := decimal.NewFromFloat(et.TargetNetMin).
			Add(decimal.NewFromFloat(et.TargetNetMax)).
			Div(decimal.NewFromInt(2))
		v := roundWhole(mid)
		ev.TargetNet = &v
	}

	// Gross can only be derived while the margin leaves headroom; a margin
	// of 1 would divide by zero. The catalog endpoints reject such types,
	// but imported data must not panic the engine.
	if ev.EstimatedGross == nil && margin < 1 {
		gross := decimal.NewFromFloat(*ev.TargetNet).
			Div(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(margin)))
		v := roundWhole(gross)
		ev.EstimatedGross = &v
	}

	if ev.SupplyBudget == nil && ev.EstimatedGross != nil {
		budget := decimal.NewFromFloat(*ev.EstimatedGross).
			Mul(decimal.NewFromFloat(margin))
		v := roundWhole(budget)
		ev.SupplyBudget = &v
	}

	if ev.EstimatedGross != nil {
		// Donation is not persisted on its own; it only shapes the notes.
		gross := decimal.NewFromFloat(*ev.EstimatedGross)
		donation := gross.Mul(decimal.NewFromFloat(et.DonationPct))
		if limit := decimal.NewFromFloat(et.DonationCap); donation.GreaterThan(limit) {
			donation = limit
		}

		if ev.Notes == "" {
			fee := decimal.Zero
			if ev.EntryFee != nil {
				fee = decimal.NewFromFloat(*ev.EntryFee)
			}
			net := gross.Sub(donation).Sub(fee)
			ev.Notes = fmt.Sprintf("Projected net after donation: $%s (donation $%s, entry fee $%s)",
				net.StringFixed(2), donation.StringFixed(2), fee.StringFixed(2))
		}
	}

	if len(ev.Checklist) == 0 && len(et.ChecklistDefault) > 0 {
		list := make([]ChecklistItem, len(et.ChecklistDefault))
		for i, item := range et.ChecklistDefault {
			list[i] = ChecklistItem{Item: item.Item, Qty: item.Qty}
		}
		ev.Checklist = list
	}

	return ev
}
