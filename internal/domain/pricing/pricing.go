package pricing

import (
	"time"

	"villabook/internal/domain/calendar"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/fault"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
)

// NightRate is the resolved price of a single occupied night.
type NightRate struct {
	Date  time.Time
	Price money.Money
}

// Quote is the frozen price breakdown of a stay. Cleaning fee, service fee
// and taxes apply once per stay, not per night.
type Quote struct {
	Nights      []NightRate
	CleaningFee money.Money
	ServiceFee  money.Money
	Taxes       money.Money
	Total       money.Money
}

// Subtotal sums the nightly rates.
func (q Quote) Subtotal() (money.Money, error) {
	if len(q.Nights) == 0 {
		return money.Money{}, fault.Validation("quote has no nights")
	}
	total := money.Zero(q.Nights[0].Price.Currency)
	for _, n := range q.Nights {
		sum, err := total.Add(n.Price)
		if err != nil {
			return money.Money{}, err
		}
		total = sum
	}
	return total, nil
}

func (q Quote) Copy() Quote {
	clone := q
	clone.Nights = append([]NightRate(nil), q.Nights...)
	return clone
}

// Engine resolves a deterministic quote from villa defaults and the villa's
// override table. It is a pure function of its inputs: no clock, no
// randomness, no side effects, and therefore safe for non-binding previews.
type Engine struct{}

// Quote prices the half-open range [checkIn, checkOut) for the given guest
// count. Per-night price is the override for that date when present, else
// the villa base rate. The effective stay-length bounds come from the
// override on the check-in date when present, else the villa defaults.
func (Engine) Quote(v *villa.Villa, cal *calendar.Calendar, r daterange.DateRange, guests int) (Quote, error) {
	if err := r.Validate(); err != nil {
		return Quote{}, fault.Wrap(fault.KindValidation, err, "checkout must be after checkin")
	}
	if guests < 1 || guests > v.MaxGuests {
		return Quote{}, fault.Validation("guest count %d outside [1, %d]", guests, v.MaxGuests)
	}

	minNights, maxNights := v.MinNights, v.MaxNights
	if cal != nil {
		if o, ok := cal.OverrideAt(r.CheckIn); ok {
			if o.MinNights > 0 {
				minNights = o.MinNights
			}
			if o.MaxNights > 0 {
				maxNights = o.MaxNights
			}
		}
	}
	nights := r.Nights()
	if nights < minNights {
		return Quote{}, fault.Validation("stay of %d nights below minimum of %d", nights, minNights)
	}
	if nights > maxNights {
		return Quote{}, fault.Validation("stay of %d nights above maximum of %d", nights, maxNights)
	}

	q := Quote{
		Nights:      make([]NightRate, 0, nights),
		CleaningFee: v.CleaningFee,
		ServiceFee:  v.ServiceFee,
		Taxes:       v.Taxes,
	}
	for _, date := range r.Dates() {
		price := v.NightlyRate
		if cal != nil {
			if o, ok := cal.OverrideAt(date); ok {
				price = o.NightlyPrice
			}
		}
		q.Nights = append(q.Nights, NightRate{Date: date, Price: price})
	}

	subtotal, err := q.Subtotal()
	if err != nil {
		return Quote{}, err
	}
	total := subtotal
	for _, component := range []money.Money{q.CleaningFee, q.ServiceFee, q.Taxes} {
		if component.IsZero() && component.Currency == "" {
			continue
		}
		sum, err := total.Add(component)
		if err != nil {
			return Quote{}, fault.Wrap(fault.KindValidation, err, "fee currency mismatch")
		}
		total = sum
	}
	q.Total = total
	return q, nil
}
