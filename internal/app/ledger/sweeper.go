package ledger

import (
	"context"
	"log/slog"
	"time"

	"villabook/internal/app/uow"
	domainbooking "villabook/internal/domain/booking"
)

// Sweeper drives the one clock-based transition: confirmed (or modified)
// bookings whose checkout date has passed become completed. requested
// bookings never auto-expire; a host that ignores a request simply leaves
// it awaiting.
type Sweeper struct {
	Ledger   *Ledger
	Interval time.Duration
	Logger   *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil && s.Logger != nil {
				s.Logger.Error("completion sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce completes every due booking individually, so one bad record
// does not stall the rest.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	readCtx, unit, err := s.Ledger.begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return err
	}
	due, err := unit.Bookings().DueCompletion(readCtx, s.Ledger.now())
	_ = unit.Rollback(readCtx)
	if err != nil {
		return err
	}
	for _, b := range due {
		if _, err := s.Ledger.Transition(ctx, b.ID, Actor{System: true}, domainbooking.StatusCompleted, ""); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("could not complete booking", "booking_id", b.ID, "error", err)
			}
			continue
		}
		if s.Logger != nil {
			s.Logger.Info("booking completed", "booking_id", b.ID)
		}
	}
	return nil
}
