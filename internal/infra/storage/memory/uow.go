package memory

import (
	"context"
	"errors"

	"villabook/internal/app/uow"
	domainbooking "villabook/internal/domain/booking"
	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/villa"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary. No
// transactional isolation is provided; the ledger's per-villa lock is what
// serializes binding operations in this mode.
type Factory struct {
	VillaRepo    villa.Repository
	CalendarRepo domaincalendar.Repository
	BookingRepo  domainbooking.Repository
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.VillaRepo == nil || f.CalendarRepo == nil || f.BookingRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{villas: f.VillaRepo, calendars: f.CalendarRepo, bookings: f.BookingRepo}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	villas    villa.Repository
	calendars domaincalendar.Repository
	bookings  domainbooking.Repository
}

func (u *Unit) Villas() villa.Repository             { return u.villas }
func (u *Unit) Calendars() domaincalendar.Repository { return u.calendars }
func (u *Unit) Bookings() domainbooking.Repository   { return u.bookings }
func (u *Unit) Commit(ctx context.Context) error     { return nil }
func (u *Unit) Rollback(ctx context.Context) error   { return nil }
