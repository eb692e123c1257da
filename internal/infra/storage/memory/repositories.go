package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "villabook/internal/domain/booking"
	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/villa"
)

// VillaRepository is an in-memory read model of the listing service's
// villas, used for local runs and tests.
type VillaRepository struct {
	mu    sync.RWMutex
	items map[villa.VillaID]*villa.Villa
}

func NewVillaRepository() *VillaRepository {
	return &VillaRepository{items: make(map[villa.VillaID]*villa.Villa)}
}

func (r *VillaRepository) ByID(ctx context.Context, id villa.VillaID) (*villa.Villa, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		return nil, villa.ErrVillaNotFound
	}
	return v, nil
}

func (r *VillaRepository) Save(ctx context.Context, v *villa.Villa) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[v.ID] = v
	return nil
}

// CalendarRepository keeps per-villa calendars in memory, lazily creating
// an all-open calendar on first access.
type CalendarRepository struct {
	mu        sync.Mutex
	calendars map[villa.VillaID]*domaincalendar.Calendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{calendars: make(map[villa.VillaID]*domaincalendar.Calendar)}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id villa.VillaID) (*domaincalendar.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cal, ok := r.calendars[id]; ok {
		return cal, nil
	}
	cal := domaincalendar.NewCalendar(id)
	r.calendars[id] = cal
	return cal, nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domaincalendar.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cal.Version++
	r.calendars[cal.VillaID] = cal
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	r.items[b.ID] = b
	return nil
}

func (r *BookingRepository) BlockingByVilla(ctx context.Context, id villa.VillaID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.VillaID == id && b.Status.Blocks() {
			matches = append(matches, b)
		}
	}
	sortByCheckIn(matches)
	return matches, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.HostID == hostID })
}

func (r *BookingRepository) DueCompletion(ctx context.Context, now time.Time) ([]*domainbooking.Booking, error) {
	cutoff := daterange.DayOf(now)
	return r.filter(func(b *domainbooking.Booking) bool {
		if b.Status != domainbooking.StatusConfirmed && b.Status != domainbooking.StatusModified {
			return false
		}
		return !cutoff.Before(b.Range.CheckOut)
	})
}

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func sortByCheckIn(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Range.CheckIn.Before(items[j].Range.CheckIn)
	})
}
