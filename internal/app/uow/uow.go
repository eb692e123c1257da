package uow

import (
	"context"

	domainbooking "villabook/internal/domain/booking"
	domaincalendar "villabook/internal/domain/calendar"
	domainvilla "villabook/internal/domain/villa"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Villas() domainvilla.Repository
	Calendars() domaincalendar.Repository
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
