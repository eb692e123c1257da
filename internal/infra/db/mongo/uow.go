package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villabook/internal/app/uow"
	domainbooking "villabook/internal/domain/booking"
	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/villa"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// The transaction plus the ledger's per-villa lock close the
// read-then-write window that would otherwise allow double bookings.
type Factory struct {
	DB *mongo.Database

	VillaRepo    villa.Repository
	CalendarRepo domaincalendar.Repository
	BookingRepo  domainbooking.Repository
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:   session,
		villas:    f.VillaRepo,
		calendars: f.CalendarRepo,
		bookings:  f.BookingRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	villas    villa.Repository
	calendars domaincalendar.Repository
	bookings  domainbooking.Repository
}

func (u *Unit) Villas() villa.Repository             { return u.villas }
func (u *Unit) Calendars() domaincalendar.Repository { return u.calendars }
func (u *Unit) Bookings() domainbooking.Repository   { return u.bookings }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
