package calendar

import (
	"context"
	"errors"
	"time"

	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/events"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
)

var (
	ErrReasonRequired   = errors.New("calendar: host blocks require a reason")
	ErrOverridePrice    = errors.New("calendar: override nightly price must be positive")
	ErrOverrideNights   = errors.New("calendar: override min nights must be <= max nights")
	ErrOverrideNotFound = errors.New("calendar: no override for date")
)

// Day is one host-managed availability row. Bookings never write Day rows;
// they block through the ledger's blocking set instead, so Reason always
// describes a host-initiated block.
type Day struct {
	Date      time.Time
	Available bool
	Reason    string
}

// Override is a per-date exception to the villa's nightly price and,
// optionally, its stay-length bounds. Zero MinNights/MaxNights mean the
// villa defaults apply.
type Override struct {
	Date         time.Time
	NightlyPrice money.Money
	MinNights    int
	MaxNights    int
}

// Calendar aggregates the day rows and pricing overrides of a single villa.
// A date with no Day row is open: villas are seeded all-open for a rolling
// horizon and host blocks are the exception, so absence defaults to
// available.
type Calendar struct {
	VillaID   villa.VillaID
	Days      map[time.Time]Day
	Overrides map[time.Time]Override
	Version   int64
	events.EventRecorder
}

func NewCalendar(id villa.VillaID) *Calendar {
	return &Calendar{
		VillaID:   id,
		Days:      make(map[time.Time]Day),
		Overrides: make(map[time.Time]Override),
	}
}

func (c *Calendar) DayAt(date time.Time) (Day, bool) {
	d, ok := c.Days[daterange.DayOf(date)]
	return d, ok
}

// IsOpen reports whether a single night can be occupied.
func (c *Calendar) IsOpen(date time.Time) bool {
	d, ok := c.Days[daterange.DayOf(date)]
	if !ok {
		return true
	}
	return d.Available
}

// FirstClosed returns the earliest host-blocked night inside the range.
func (c *Calendar) FirstClosed(r daterange.DateRange) (time.Time, bool) {
	for _, date := range r.Dates() {
		if !c.IsOpen(date) {
			return date, true
		}
	}
	return time.Time{}, false
}

// BlockRange overwrites every night in the range as unavailable. Rows are
// never deleted, only overwritten per date.
func (c *Calendar) BlockRange(r daterange.DateRange, reason string, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if reason == "" {
		return ErrReasonRequired
	}
	for _, date := range r.Dates() {
		c.Days[date] = Day{Date: date, Available: false, Reason: reason}
	}
	c.Record(RangeBlocked{VillaID: c.VillaID, Range: r, Reason: reason, At: now.UTC()})
	return nil
}

// UnblockRange reopens every night in the range.
func (c *Calendar) UnblockRange(r daterange.DateRange, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for _, date := range r.Dates() {
		c.Days[date] = Day{Date: date, Available: true}
	}
	c.Record(RangeUnblocked{VillaID: c.VillaID, Range: r, At: now.UTC()})
	return nil
}

func (c *Calendar) OverrideAt(date time.Time) (Override, bool) {
	o, ok := c.Overrides[daterange.DayOf(date)]
	return o, ok
}

func (c *Calendar) SetOverride(o Override, now time.Time) error {
	if o.NightlyPrice.Amount <= 0 || o.NightlyPrice.Currency == "" {
		return ErrOverridePrice
	}
	if o.MinNights < 0 || o.MaxNights < 0 {
		return ErrOverrideNights
	}
	if o.MinNights > 0 && o.MaxNights > 0 && o.MinNights > o.MaxNights {
		return ErrOverrideNights
	}
	o.Date = daterange.DayOf(o.Date)
	c.Overrides[o.Date] = o
	c.Record(OverrideSet{VillaID: c.VillaID, Date: o.Date, NightlyPrice: o.NightlyPrice, At: now.UTC()})
	return nil
}

func (c *Calendar) RemoveOverride(date time.Time, now time.Time) error {
	date = daterange.DayOf(date)
	if _, ok := c.Overrides[date]; !ok {
		return ErrOverrideNotFound
	}
	delete(c.Overrides, date)
	c.Record(OverrideRemoved{VillaID: c.VillaID, Date: date, At: now.UTC()})
	return nil
}

type Repository interface {
	Calendar(ctx context.Context, id villa.VillaID) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}
