package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "villabook/internal/domain/booking"
	"villabook/internal/domain/shared/fault"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
	"villabook/internal/infra/storage/memory"
)

type fixture struct {
	ledger *Ledger
	outbox *memory.Outbox
	villas *memory.VillaRepository
	cals   *memory.CalendarRepository
}

func newFixture(t *testing.T, instantBook bool) fixture {
	t.Helper()
	villas := memory.NewVillaRepository()
	cals := memory.NewCalendarRepository()
	bookings := memory.NewBookingRepository()
	box := memory.NewOutbox()

	v := &villa.Villa{
		ID:          "villa-1",
		HostID:      "host-1",
		Title:       "Cliffside",
		NightlyRate: money.Must(200_00, "USD"),
		CleaningFee: money.Must(50_00, "USD"),
		ServiceFee:  money.Must(30_00, "USD"),
		Taxes:       money.Must(20_00, "USD"),
		MinNights:   1,
		MaxNights:   30,
		MaxGuests:   6,
		Policy:      villa.PolicyModerate,
		InstantBook: instantBook,
	}
	require.NoError(t, villas.Save(context.Background(), v))

	led := New(memory.Factory{VillaRepo: villas, CalendarRepo: cals, BookingRepo: bookings}, box)
	led.Now = func() time.Time { return day(2024, 5, 1) }
	return fixture{ledger: led, outbox: box, villas: villas, cals: cals}
}

func createParams(checkIn, checkOut time.Time, guest string) CreateParams {
	return CreateParams{
		VillaID:  "villa-1",
		GuestID:  guest,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   2,
	}
}

func TestCreateOnOpenRange(t *testing.T) {
	f := newFixture(t, false)

	b, err := f.ledger.Create(context.Background(), createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusRequested, b.Status)
	// 4x200 + 50 + 30 + 20
	assert.Equal(t, money.Must(900_00, "USD"), b.Price.Total)

	records := f.outbox.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "booking.requested", records[0].Name)
}

func TestCreateInstantBookConfirms(t *testing.T) {
	f := newFixture(t, true)

	b, err := f.ledger.Create(context.Background(), createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)
}

func TestCreateRejectsPastCheckIn(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.ledger.Create(context.Background(), createParams(day(2024, 4, 1), day(2024, 4, 5), "guest-a"))
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestCreateOnHostBlockedDates(t *testing.T) {
	f := newFixture(t, false)
	cal, err := f.cals.Calendar(context.Background(), "villa-1")
	require.NoError(t, err)
	require.NoError(t, cal.BlockRange(mustRange(t, day(2024, 7, 2), day(2024, 7, 3)), "maintenance", time.Now()))

	_, err = f.ledger.Create(context.Background(), createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	assert.True(t, fault.IsKind(err, fault.KindConflict))
}

func TestCreateOverlapConflict(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)

	_, err = f.ledger.Create(ctx, createParams(day(2024, 7, 3), day(2024, 7, 7), "guest-b"))
	assert.True(t, fault.IsKind(err, fault.KindConflict))
}

func TestCancelFreesDates(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)

	_, err = f.ledger.Create(ctx, createParams(day(2024, 7, 3), day(2024, 7, 7), "guest-b"))
	require.True(t, fault.IsKind(err, fault.KindConflict))

	cancelled, err := f.ledger.Cancel(ctx, first.ID, Actor{UserID: "guest-a"}, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, cancelled.Status)

	retry, err := f.ledger.Create(ctx, createParams(day(2024, 7, 3), day(2024, 7, 7), "guest-b"))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, retry.Status)
}

func TestCancelByStranger(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	b, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)

	_, err = f.ledger.Cancel(ctx, b.ID, Actor{UserID: "guest-x"}, "")
	assert.True(t, fault.IsKind(err, fault.KindAuthorization))
}

func TestModifyToOwnDates(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	b, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)

	modified, err := f.ledger.Modify(ctx, ModifyParams{
		BookingID: b.ID,
		Actor:     Actor{UserID: "guest-a"},
		CheckIn:   day(2024, 7, 1),
		CheckOut:  day(2024, 7, 5),
		Guests:    3,
	})
	require.NoError(t, err, "same dates must not self-conflict")
	assert.Equal(t, domainbooking.StatusModified, modified.Status)
	assert.Equal(t, 3, modified.Guests)
}

func TestModifyConflictLeavesBookingUnchanged(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.ledger.Create(ctx, createParams(day(2024, 7, 10), day(2024, 7, 15), "guest-a"))
	require.NoError(t, err)
	target, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-b"))
	require.NoError(t, err)

	_, err = f.ledger.Modify(ctx, ModifyParams{
		BookingID: target.ID,
		Actor:     Actor{UserID: "guest-b"},
		CheckIn:   day(2024, 7, 12),
		CheckOut:  day(2024, 7, 16),
		Guests:    2,
	})
	require.True(t, fault.IsKind(err, fault.KindConflict))

	reloaded, err := f.ledger.Booking(ctx, target.ID, Actor{UserID: "guest-b"})
	require.NoError(t, err)
	assert.True(t, reloaded.Range.Equal(mustRange(t, day(2024, 7, 1), day(2024, 7, 5))))
	assert.Equal(t, domainbooking.StatusConfirmed, reloaded.Status)
}

func TestModifyReprices(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	b, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)
	originalTotal := b.Price.Total

	modified, err := f.ledger.Modify(ctx, ModifyParams{
		BookingID: b.ID,
		Actor:     Actor{UserID: "guest-a"},
		CheckIn:   day(2024, 7, 1),
		CheckOut:  day(2024, 7, 3),
		Guests:    2,
	})
	require.NoError(t, err)
	// 2x200 + 100 fees vs 4x200 + 100 fees
	assert.Equal(t, money.Must(500_00, "USD"), modified.Price.Total)
	assert.NotEqual(t, originalTotal, modified.Price.Total)
}

func TestHostApproveAndReject(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	b, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)

	_, err = f.ledger.Transition(ctx, b.ID, Actor{UserID: "guest-a"}, domainbooking.StatusConfirmed, "")
	assert.True(t, fault.IsKind(err, fault.KindAuthorization), "guests cannot approve")

	approved, err := f.ledger.Transition(ctx, b.ID, Actor{UserID: "host-1"}, domainbooking.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, approved.Status)

	other, err := f.ledger.Create(ctx, createParams(day(2024, 8, 1), day(2024, 8, 5), "guest-b"))
	require.NoError(t, err)
	rejected, err := f.ledger.Transition(ctx, other.ID, Actor{UserID: "host-1"}, domainbooking.StatusRejected, "dates unavailable")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusRejected, rejected.Status)
}

func TestCompletionSweep(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	b, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)

	// advance the clock past checkout
	f.ledger.Now = func() time.Time { return day(2024, 7, 6) }
	sweeper := Sweeper{Ledger: f.ledger}
	require.NoError(t, sweeper.SweepOnce(ctx))

	reloaded, err := f.ledger.Booking(ctx, b.ID, Actor{System: true})
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCompleted, reloaded.Status)
}

func TestPreviewDoesNotHoldDates(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	result, err := f.ledger.Preview(ctx, "villa-1", day(2024, 7, 1), day(2024, 7, 5), 2)
	require.NoError(t, err)
	assert.True(t, result.Decision.Available)
	assert.Equal(t, money.Must(900_00, "USD"), result.Quote.Total)

	// preview did not reserve anything
	_, err = f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-b"))
	require.NoError(t, err)

	result, err = f.ledger.Preview(ctx, "villa-1", day(2024, 7, 1), day(2024, 7, 5), 2)
	require.NoError(t, err)
	assert.False(t, result.Decision.Available)
	require.NotNil(t, result.Decision.Cause)
	assert.Equal(t, CauseBookingConflict, result.Decision.Cause.Kind)
}

func TestConcurrentCreatesExactlyOneWins(t *testing.T) {
	const trials = 50
	for trial := 0; trial < trials; trial++ {
		f := newFixture(t, true)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		ranges := []CreateParams{
			createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"),
			createParams(day(2024, 7, 3), day(2024, 7, 7), "guest-b"),
		}
		for i := range ranges {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.ledger.Create(ctx, ranges[i])
			}(i)
		}
		wg.Wait()

		var successes, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				successes++
			case fault.IsKind(err, fault.KindConflict):
				conflicts++
			default:
				t.Fatalf("trial %d: unexpected error %v", trial, err)
			}
		}
		require.Equalf(t, 1, successes, "trial %d", trial)
		require.Equalf(t, 1, conflicts, "trial %d", trial)
	}
}

func TestGuestAndHostListings(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.ledger.Create(ctx, createParams(day(2024, 7, 1), day(2024, 7, 5), "guest-a"))
	require.NoError(t, err)
	_, err = f.ledger.Create(ctx, createParams(day(2024, 8, 1), day(2024, 8, 5), "guest-b"))
	require.NoError(t, err)

	mine, err := f.ledger.GuestBookings(ctx, "guest-a")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	hosted, err := f.ledger.HostBookings(ctx, "host-1")
	require.NoError(t, err)
	assert.Len(t, hosted, 2)
}

func TestBookingNotFound(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.ledger.Booking(context.Background(), "missing", Actor{System: true})
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}
