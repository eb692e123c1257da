package booking

import (
	"context"
	"errors"
	"time"

	"villabook/internal/domain/pricing"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/events"
	"villabook/internal/domain/shared/fault"
	"villabook/internal/domain/villa"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrInvalidGuests   = errors.New("booking: guests count must be positive")
	ErrGuestRequired   = errors.New("booking: guest id required")
)

type BookingID string

type Status string

const (
	StatusRequested Status = "requested"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusModified  Status = "modified"
)

// transitions is the single closed table every status change routes
// through. requested and pending are one awaiting-host state; new bookings
// are created as requested, but pending rows are accepted everywhere
// requested is.
var transitions = map[Status]map[Status]bool{
	StatusRequested: {StatusConfirmed: true, StatusRejected: true, StatusCancelled: true, StatusModified: true},
	StatusPending:   {StatusConfirmed: true, StatusRejected: true, StatusCancelled: true, StatusModified: true},
	StatusConfirmed: {StatusCancelled: true, StatusCompleted: true, StatusModified: true},
	StatusModified:  {StatusConfirmed: true, StatusCancelled: true, StatusCompleted: true, StatusModified: true},
	StatusRejected:  {},
	StatusCancelled: {},
	StatusCompleted: {},
}

func (s Status) CanTransitionTo(next Status) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	return allowed[next]
}

// Terminal statuses never change again and never block other bookings.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Blocks reports whether a booking in this status occupies its interval.
// modified bookings keep occupying their (new) nights until they reach a
// terminal status.
func (s Status) Blocks() bool {
	switch s {
	case StatusRequested, StatusPending, StatusConfirmed, StatusModified:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := transitions[s]; !ok {
		return "", fault.Validation("unknown booking status %q", raw)
	}
	return s, nil
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// Booking is the reservation aggregate. Price fields are frozen at
// creation/modification time and never recomputed when the host later
// changes base pricing. Bookings are never physically deleted; rejection
// and cancellation are terminal statuses, not removals.
type Booking struct {
	ID           BookingID
	VillaID      villa.VillaID
	GuestID      string
	HostID       string
	Range        daterange.DateRange
	Guests       int
	Price        pricing.Quote
	Status       Status
	Payment      PaymentStatus
	CancelReason string
	CancelledAt  time.Time
	InstantBook  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	// BlockingByVilla returns every booking whose status currently blocks
	// other bookings' intervals on the villa.
	BlockingByVilla(ctx context.Context, id villa.VillaID) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID string) ([]*Booking, error)
	// DueCompletion returns blocking-valid confirmed/modified bookings whose
	// checkout date is on or before the given instant.
	DueCompletion(ctx context.Context, now time.Time) ([]*Booking, error)
}

type CreateParams struct {
	ID      BookingID
	Villa   *villa.Villa
	GuestID string
	Range   daterange.DateRange
	Guests  int
	Price   pricing.Quote
	Now     time.Time
}

// NewBooking creates the aggregate in its initial status: confirmed when
// the villa is instant-book, requested otherwise.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.GuestID == "" {
		return nil, ErrGuestRequired
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:          params.ID,
		VillaID:     params.Villa.ID,
		GuestID:     params.GuestID,
		HostID:      params.Villa.HostID,
		Range:       params.Range,
		Guests:      params.Guests,
		Price:       params.Price.Copy(),
		Status:      StatusRequested,
		Payment:     PaymentPending,
		InstantBook: params.Villa.InstantBook,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(Requested{BookingID: b.ID, VillaID: b.VillaID, GuestID: b.GuestID, Range: b.Range, Guests: b.Guests, Total: b.Price.Total, At: now})
	if b.InstantBook {
		b.Status = StatusConfirmed
		b.Record(Confirmed{BookingID: b.ID, VillaID: b.VillaID, Range: b.Range, Total: b.Price.Total, At: now})
	}
	return b, nil
}

func (b *Booking) transitionTo(next Status, now time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return fault.IllegalState("booking %s cannot go from %s to %s", b.ID, b.Status, next)
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	return nil
}

// Approve is the host accepting an awaiting or modified booking.
func (b *Booking) Approve(now time.Time) error {
	if err := b.transitionTo(StatusConfirmed, now); err != nil {
		return err
	}
	b.Record(Confirmed{BookingID: b.ID, VillaID: b.VillaID, Range: b.Range, Total: b.Price.Total, At: b.UpdatedAt})
	return nil
}

// Reject is the host declining an awaiting booking. Terminal.
func (b *Booking) Reject(reason string, now time.Time) error {
	if b.Status != StatusRequested && b.Status != StatusPending {
		return fault.IllegalState("booking %s cannot be rejected from %s", b.ID, b.Status)
	}
	if err := b.transitionTo(StatusRejected, now); err != nil {
		return err
	}
	b.Record(Rejected{BookingID: b.ID, VillaID: b.VillaID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancel is either party withdrawing. Terminal; the interval is freed for
// future bookings the moment the change commits.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if err := b.transitionTo(StatusCancelled, now); err != nil {
		return err
	}
	b.CancelReason = reason
	b.CancelledAt = b.UpdatedAt
	b.Record(Cancelled{BookingID: b.ID, VillaID: b.VillaID, Range: b.Range, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Complete is system-driven, once the current date reaches checkout.
func (b *Booking) Complete(now time.Time) error {
	if daterange.DayOf(now).Before(b.Range.CheckOut) {
		return fault.IllegalState("booking %s checkout %s has not passed", b.ID, b.Range.CheckOut.Format("2006-01-02"))
	}
	if err := b.transitionTo(StatusCompleted, now); err != nil {
		return err
	}
	b.Record(Completed{BookingID: b.ID, VillaID: b.VillaID, At: b.UpdatedAt})
	return nil
}

// ApplyModification swaps dates, guest count and the frozen quote after the
// ledger has re-validated availability. modified is a marker of history,
// not a dead end: the booking stays non-terminal.
func (b *Booking) ApplyModification(r daterange.DateRange, guests int, quote pricing.Quote, now time.Time) error {
	if guests <= 0 {
		return ErrInvalidGuests
	}
	previous := b.Range
	if err := b.transitionTo(StatusModified, now); err != nil {
		return err
	}
	b.Range = r
	b.Guests = guests
	b.Price = quote.Copy()
	b.Record(Modified{BookingID: b.ID, VillaID: b.VillaID, PreviousRange: previous, Range: r, Guests: guests, Total: quote.Total, At: b.UpdatedAt})
	return nil
}

// ActorIsParty reports whether the given user is the guest or the host of
// this booking.
func (b *Booking) ActorIsParty(userID string) bool {
	return userID != "" && (userID == b.GuestID || userID == b.HostID)
}
