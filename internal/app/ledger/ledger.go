package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"villabook/internal/app/outbox"
	"villabook/internal/app/uow"
	domainbooking "villabook/internal/domain/booking"
	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/pricing"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/fault"
	"villabook/internal/domain/villa"
)

// Actor identifies who is acting on a booking: a user (guest or host) or
// the system itself for clock-driven transitions.
type Actor struct {
	UserID string
	System bool
}

// Ledger is the only path allowed to create or date/guest-modify a
// booking. Binding operations run their availability re-check and their
// write inside a per-villa critical section, so of two concurrent
// conflicting requests exactly one succeeds and the other observes a
// conflict tied to the committed state.
type Ledger struct {
	UoW     uow.Factory
	Pricing pricing.Engine
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder

	// Now is the ledger clock; overridable in tests.
	Now func() time.Time

	locks *villaLocks
}

func New(factory uow.Factory, box outbox.Outbox) *Ledger {
	return &Ledger{
		UoW:    factory,
		Outbox: box,
		Now:    time.Now,
		locks:  newVillaLocks(),
	}
}

// begin starts a unit of work and, when the implementation carries a
// storage session, injects it into the context for downstream repos.
func (l *Ledger) begin(ctx context.Context, opts uow.TxOptions) (context.Context, uow.UnitOfWork, error) {
	unit, err := l.UoW.Begin(ctx, opts)
	if err != nil {
		return ctx, nil, err
	}
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ctx, unit, nil
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now().UTC()
}

// PreviewResult carries the advisory decision plus the quote the guest
// would pay. The quote is computed even when the range is unavailable so
// the UI can still render pricing next to alternate-date suggestions.
type PreviewResult struct {
	Decision Decision
	Quote    pricing.Quote
}

// Preview is read-only and non-binding: it reflects the latest committed
// state with no guarantee the window stays open until Create is called.
func (l *Ledger) Preview(ctx context.Context, villaID villa.VillaID, checkIn, checkOut time.Time, guests int) (PreviewResult, error) {
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return PreviewResult{}, fault.Wrap(fault.KindValidation, err, "invalid date range")
	}

	ctx, unit, err := l.begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return PreviewResult{}, err
	}
	defer unit.Rollback(ctx)

	v, cal, err := l.loadVilla(ctx, unit, villaID)
	if err != nil {
		return PreviewResult{}, err
	}
	quote, err := l.Pricing.Quote(v, cal, dr, guests)
	if err != nil {
		return PreviewResult{}, err
	}
	blocking, err := unit.Bookings().BlockingByVilla(ctx, villaID)
	if err != nil {
		return PreviewResult{}, err
	}
	return PreviewResult{
		Decision: CheckAvailability(cal, blocking, dr, ""),
		Quote:    quote,
	}, nil
}

type CreateParams struct {
	VillaID  villa.VillaID
	GuestID  string
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

// Create prices and validates the request, then re-checks availability
// against committed state inside the villa's critical section before
// inserting. An unavailable range at commit time is a conflict, not a
// server error, so the caller can re-query and offer other dates.
func (l *Ledger) Create(ctx context.Context, p CreateParams) (*domainbooking.Booking, error) {
	dr, err := daterange.New(p.CheckIn, p.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid date range")
	}
	now := l.now()
	if dr.CheckIn.Before(daterange.DayOf(now)) {
		return nil, fault.Validation("check-in date is in the past")
	}

	release := l.locks.acquire(p.VillaID)
	defer release()

	ctx, unit, err := l.begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	v, cal, err := l.loadVilla(ctx, unit, p.VillaID)
	if err != nil {
		return nil, err
	}
	quote, err := l.Pricing.Quote(v, cal, dr, p.Guests)
	if err != nil {
		return nil, err
	}
	blocking, err := unit.Bookings().BlockingByVilla(ctx, p.VillaID)
	if err != nil {
		return nil, err
	}
	if decision := CheckAvailability(cal, blocking, dr, ""); !decision.Available {
		return nil, conflictError(decision)
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:      domainbooking.BookingID(uuid.NewString()),
		Villa:   v,
		GuestID: p.GuestID,
		Range:   dr,
		Guests:  p.Guests,
		Price:   quote,
		Now:     now,
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid booking")
	}
	if err := l.saveAndCommit(ctx, unit, b); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

type ModifyParams struct {
	BookingID domainbooking.BookingID
	Actor     Actor
	CheckIn   time.Time
	CheckOut  time.Time
	Guests    int
}

// Modify re-prices and re-checks availability under the same serialized
// discipline as Create, excluding the booking's own current interval from
// the conflict set. On conflict the booking is left unchanged.
func (l *Ledger) Modify(ctx context.Context, p ModifyParams) (*domainbooking.Booking, error) {
	dr, err := daterange.New(p.CheckIn, p.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid date range")
	}

	villaID, err := l.villaOf(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	release := l.locks.acquire(villaID)
	defer release()

	ctx, unit, err := l.begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	b, err := l.loadBooking(ctx, unit, p.BookingID)
	if err != nil {
		return nil, err
	}
	if !p.Actor.System && !b.ActorIsParty(p.Actor.UserID) {
		return nil, fault.Authorization("user %s is neither guest nor host of booking %s", p.Actor.UserID, b.ID)
	}
	now := l.now()
	if b.Status.Terminal() {
		return nil, fault.IllegalState("booking %s is %s and cannot be modified", b.ID, b.Status)
	}
	if !daterange.DayOf(now).Before(b.Range.CheckOut) {
		return nil, fault.IllegalState("booking %s has already ended", b.ID)
	}

	v, cal, err := l.loadVilla(ctx, unit, b.VillaID)
	if err != nil {
		return nil, err
	}
	quote, err := l.Pricing.Quote(v, cal, dr, p.Guests)
	if err != nil {
		return nil, err
	}
	blocking, err := unit.Bookings().BlockingByVilla(ctx, b.VillaID)
	if err != nil {
		return nil, err
	}
	if decision := CheckAvailability(cal, blocking, dr, b.ID); !decision.Available {
		return nil, conflictError(decision)
	}

	if err := b.ApplyModification(dr, p.Guests, quote, now); err != nil {
		return nil, err
	}
	if err := l.saveAndCommit(ctx, unit, b); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// Cancel is permitted for guest or host while the booking still blocks its
// interval; the nights free immediately for subsequent availability checks.
func (l *Ledger) Cancel(ctx context.Context, id domainbooking.BookingID, actor Actor, reason string) (*domainbooking.Booking, error) {
	villaID, err := l.villaOf(ctx, id)
	if err != nil {
		return nil, err
	}
	release := l.locks.acquire(villaID)
	defer release()

	ctx, unit, err := l.begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	b, err := l.loadBooking(ctx, unit, id)
	if err != nil {
		return nil, err
	}
	if !actor.System && !b.ActorIsParty(actor.UserID) {
		return nil, fault.Authorization("user %s is neither guest nor host of booking %s", actor.UserID, b.ID)
	}
	if err := b.Cancel(reason, l.now()); err != nil {
		return nil, err
	}
	if err := l.saveAndCommit(ctx, unit, b); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// Transition applies host approve/reject and system-driven completion. It
// never touches dates or price; legality is decided by the status
// transition table alone.
func (l *Ledger) Transition(ctx context.Context, id domainbooking.BookingID, actor Actor, next domainbooking.Status, reason string) (*domainbooking.Booking, error) {
	ctx, unit, err := l.begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	b, err := l.loadBooking(ctx, unit, id)
	if err != nil {
		return nil, err
	}
	now := l.now()
	switch next {
	case domainbooking.StatusConfirmed:
		if actor.UserID != b.HostID {
			return nil, fault.Authorization("only the host can approve booking %s", b.ID)
		}
		if err := b.Approve(now); err != nil {
			return nil, err
		}
	case domainbooking.StatusRejected:
		if actor.UserID != b.HostID {
			return nil, fault.Authorization("only the host can reject booking %s", b.ID)
		}
		if err := b.Reject(reason, now); err != nil {
			return nil, err
		}
	case domainbooking.StatusCompleted:
		if !actor.System {
			return nil, fault.Authorization("completion is system-driven")
		}
		if err := b.Complete(now); err != nil {
			return nil, err
		}
	default:
		return nil, fault.IllegalState("status %s cannot be set directly", next)
	}
	if err := l.saveAndCommit(ctx, unit, b); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// Booking returns a single booking to one of its parties.
func (l *Ledger) Booking(ctx context.Context, id domainbooking.BookingID, actor Actor) (*domainbooking.Booking, error) {
	ctx, unit, err := l.begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)

	b, err := l.loadBooking(ctx, unit, id)
	if err != nil {
		return nil, err
	}
	if !actor.System && !b.ActorIsParty(actor.UserID) {
		return nil, fault.Authorization("user %s is neither guest nor host of booking %s", actor.UserID, b.ID)
	}
	return b, nil
}

func (l *Ledger) GuestBookings(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	ctx, unit, err := l.begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)
	return unit.Bookings().ListByGuest(ctx, guestID)
}

func (l *Ledger) HostBookings(ctx context.Context, hostID string) ([]*domainbooking.Booking, error) {
	ctx, unit, err := l.begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)
	return unit.Bookings().ListByHost(ctx, hostID)
}

func (l *Ledger) villaOf(ctx context.Context, id domainbooking.BookingID) (villa.VillaID, error) {
	ctx, unit, err := l.begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return "", err
	}
	defer unit.Rollback(ctx)
	b, err := l.loadBooking(ctx, unit, id)
	if err != nil {
		return "", err
	}
	return b.VillaID, nil
}

func (l *Ledger) loadVilla(ctx context.Context, unit uow.UnitOfWork, id villa.VillaID) (*villa.Villa, *domaincalendar.Calendar, error) {
	v, err := unit.Villas().ByID(ctx, id)
	if err != nil {
		if errors.Is(err, villa.ErrVillaNotFound) {
			return nil, nil, fault.Wrap(fault.KindNotFound, err, "villa %s", id)
		}
		return nil, nil, err
	}
	cal, err := unit.Calendars().Calendar(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return v, cal, nil
}

func (l *Ledger) loadBooking(ctx context.Context, unit uow.UnitOfWork, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	b, err := unit.Bookings().ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, fault.Wrap(fault.KindNotFound, err, "booking %s", id)
		}
		return nil, err
	}
	return b, nil
}

func (l *Ledger) saveAndCommit(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return err
	}
	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, l.Outbox, l.Encoder, pending); err != nil {
		return err
	}
	return unit.Commit(ctx)
}

func conflictError(d Decision) error {
	if d.Cause == nil {
		return fault.Conflict("requested dates are no longer available")
	}
	switch d.Cause.Kind {
	case CauseHostBlocked:
		return fault.Conflict("date %s is blocked by the host", d.Cause.Date.Format("2006-01-02"))
	case CauseBookingConflict:
		return fault.Conflict("requested dates overlap an existing booking")
	}
	return fault.Conflict("requested dates are no longer available")
}
