package ledger

import (
	"time"

	domainbooking "villabook/internal/domain/booking"
	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/shared/daterange"
)

type CauseKind string

const (
	CauseHostBlocked     CauseKind = "host_blocked"
	CauseBookingConflict CauseKind = "booking_conflict"
)

// Cause names one reason a range is not bookable, enough for user-facing
// messaging; it does not enumerate every conflicting date.
type Cause struct {
	Kind      CauseKind
	Date      time.Time
	BookingID domainbooking.BookingID
}

type Decision struct {
	Available bool
	Cause     *Cause
}

// CheckAvailability decides bookability of a half-open range against the
// villa's host calendar and its current blocking bookings. exclude removes
// a booking's own interval from the conflict set, so modifying a booking to
// dates it already occupies never self-conflicts.
//
// A true result is advisory only: it means a booking for this exact range
// could be created right now. The binding decision is the re-check the
// ledger runs inside the villa's critical section.
func CheckAvailability(cal *domaincalendar.Calendar, blocking []*domainbooking.Booking, r daterange.DateRange, exclude domainbooking.BookingID) Decision {
	if cal != nil {
		if date, closed := cal.FirstClosed(r); closed {
			return Decision{Cause: &Cause{Kind: CauseHostBlocked, Date: date}}
		}
	}
	for _, b := range blocking {
		if b.ID == exclude {
			continue
		}
		if !b.Status.Blocks() {
			continue
		}
		if b.Range.Overlaps(r) {
			return Decision{Cause: &Cause{Kind: CauseBookingConflict, BookingID: b.ID}}
		}
	}
	return Decision{Available: true}
}
