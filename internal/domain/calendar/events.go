package calendar

import (
	"time"

	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
)

type RangeBlocked struct {
	VillaID villa.VillaID
	Range   daterange.DateRange
	Reason  string
	At      time.Time
}

func (e RangeBlocked) EventName() string     { return "calendar.blocked" }
func (e RangeBlocked) AggregateID() string   { return string(e.VillaID) }
func (e RangeBlocked) OccurredAt() time.Time { return e.At }

type RangeUnblocked struct {
	VillaID villa.VillaID
	Range   daterange.DateRange
	At      time.Time
}

func (e RangeUnblocked) EventName() string     { return "calendar.unblocked" }
func (e RangeUnblocked) AggregateID() string   { return string(e.VillaID) }
func (e RangeUnblocked) OccurredAt() time.Time { return e.At }

type OverrideSet struct {
	VillaID      villa.VillaID
	Date         time.Time
	NightlyPrice money.Money
	At           time.Time
}

func (e OverrideSet) EventName() string     { return "calendar.override_set" }
func (e OverrideSet) AggregateID() string   { return string(e.VillaID) }
func (e OverrideSet) OccurredAt() time.Time { return e.At }

type OverrideRemoved struct {
	VillaID villa.VillaID
	Date    time.Time
	At      time.Time
}

func (e OverrideRemoved) EventName() string     { return "calendar.override_removed" }
func (e OverrideRemoved) AggregateID() string   { return string(e.VillaID) }
func (e OverrideRemoved) OccurredAt() time.Time { return e.At }
