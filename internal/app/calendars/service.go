package calendars

import (
	"context"
	"errors"
	"time"

	"villabook/internal/app/outbox"
	"villabook/internal/app/uow"
	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/fault"
	"villabook/internal/domain/villa"
)

// Service handles host edits to a villa's calendar: availability blocks and
// pricing overrides. These are ordinary writes; in-flight previews are not
// invalidated, the ledger's binding re-check reads the latest state anyway.
type Service struct {
	UoW     uow.Factory
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func New(factory uow.Factory, box outbox.Outbox) *Service {
	return &Service{UoW: factory, Outbox: box, Now: time.Now}
}

func (s *Service) begin(ctx context.Context, opts uow.TxOptions) (context.Context, uow.UnitOfWork, error) {
	unit, err := s.UoW.Begin(ctx, opts)
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

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Calendar returns the villa's day rows and overrides for rendering.
func (s *Service) Calendar(ctx context.Context, villaID villa.VillaID) (*domaincalendar.Calendar, error) {
	ctx, unit, err := s.begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)
	if _, err := s.ownedVilla(ctx, unit, villaID, ""); err != nil {
		return nil, err
	}
	return unit.Calendars().Calendar(ctx, villaID)
}

func (s *Service) BlockRange(ctx context.Context, hostID string, villaID villa.VillaID, from, to time.Time, reason string) error {
	dr, err := daterange.New(from, to)
	if err != nil {
		return fault.Wrap(fault.KindValidation, err, "invalid date range")
	}
	return s.mutate(ctx, hostID, villaID, func(cal *domaincalendar.Calendar) error {
		if err := cal.BlockRange(dr, reason, s.now()); err != nil {
			return fault.Wrap(fault.KindValidation, err, "cannot block range")
		}
		return nil
	})
}

func (s *Service) UnblockRange(ctx context.Context, hostID string, villaID villa.VillaID, from, to time.Time) error {
	dr, err := daterange.New(from, to)
	if err != nil {
		return fault.Wrap(fault.KindValidation, err, "invalid date range")
	}
	return s.mutate(ctx, hostID, villaID, func(cal *domaincalendar.Calendar) error {
		return cal.UnblockRange(dr, s.now())
	})
}

func (s *Service) SetOverride(ctx context.Context, hostID string, villaID villa.VillaID, o domaincalendar.Override) error {
	return s.mutate(ctx, hostID, villaID, func(cal *domaincalendar.Calendar) error {
		if err := cal.SetOverride(o, s.now()); err != nil {
			return fault.Wrap(fault.KindValidation, err, "cannot set override")
		}
		return nil
	})
}

func (s *Service) RemoveOverride(ctx context.Context, hostID string, villaID villa.VillaID, date time.Time) error {
	return s.mutate(ctx, hostID, villaID, func(cal *domaincalendar.Calendar) error {
		if err := cal.RemoveOverride(date, s.now()); err != nil {
			return fault.Wrap(fault.KindNotFound, err, "no override on %s", date.Format("2006-01-02"))
		}
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, hostID string, villaID villa.VillaID, fn func(cal *domaincalendar.Calendar) error) error {
	ctx, unit, err := s.begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	if _, err := s.ownedVilla(ctx, unit, villaID, hostID); err != nil {
		return err
	}
	cal, err := unit.Calendars().Calendar(ctx, villaID)
	if err != nil {
		return err
	}
	if err := fn(cal); err != nil {
		return err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return err
	}
	pending := cal.PendingEvents()
	cal.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, pending); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Service) ownedVilla(ctx context.Context, unit uow.UnitOfWork, villaID villa.VillaID, hostID string) (*villa.Villa, error) {
	v, err := unit.Villas().ByID(ctx, villaID)
	if err != nil {
		if errors.Is(err, villa.ErrVillaNotFound) {
			return nil, fault.Wrap(fault.KindNotFound, err, "villa %s", villaID)
		}
		return nil, err
	}
	if hostID != "" && v.HostID != hostID {
		return nil, fault.Authorization("user %s does not host villa %s", hostID, villaID)
	}
	return v, nil
}
