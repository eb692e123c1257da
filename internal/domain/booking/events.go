package booking

import (
	"time"

	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
)

type Requested struct {
	BookingID BookingID
	VillaID   villa.VillaID
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Total     money.Money
	At        time.Time
}

func (e Requested) EventName() string     { return "booking.requested" }
func (e Requested) AggregateID() string   { return string(e.BookingID) }
func (e Requested) OccurredAt() time.Time { return e.At }

type Confirmed struct {
	BookingID BookingID
	VillaID   villa.VillaID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e Confirmed) EventName() string     { return "booking.confirmed" }
func (e Confirmed) AggregateID() string   { return string(e.BookingID) }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Rejected struct {
	BookingID BookingID
	VillaID   villa.VillaID
	Reason    string
	At        time.Time
}

func (e Rejected) EventName() string     { return "booking.rejected" }
func (e Rejected) AggregateID() string   { return string(e.BookingID) }
func (e Rejected) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	BookingID BookingID
	VillaID   villa.VillaID
	Range     daterange.DateRange
	Reason    string
	At        time.Time
}

func (e Cancelled) EventName() string     { return "booking.cancelled" }
func (e Cancelled) AggregateID() string   { return string(e.BookingID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }

type Modified struct {
	BookingID     BookingID
	VillaID       villa.VillaID
	PreviousRange daterange.DateRange
	Range         daterange.DateRange
	Guests        int
	Total         money.Money
	At            time.Time
}

func (e Modified) EventName() string     { return "booking.modified" }
func (e Modified) AggregateID() string   { return string(e.BookingID) }
func (e Modified) OccurredAt() time.Time { return e.At }

type Completed struct {
	BookingID BookingID
	VillaID   villa.VillaID
	At        time.Time
}

func (e Completed) EventName() string     { return "booking.completed" }
func (e Completed) AggregateID() string   { return string(e.BookingID) }
func (e Completed) OccurredAt() time.Time { return e.At }
