package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/domain/pricing"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/fault"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testVilla(instantBook bool) *villa.Villa {
	return &villa.Villa{
		ID:          "villa-1",
		HostID:      "host-1",
		NightlyRate: money.Must(200_00, "USD"),
		MinNights:   1,
		MaxNights:   30,
		MaxGuests:   6,
		Policy:      villa.PolicyFlexible,
		InstantBook: instantBook,
	}
}

func testQuote() pricing.Quote {
	return pricing.Quote{
		Nights: []pricing.NightRate{
			{Date: day(2024, 7, 1), Price: money.Must(200_00, "USD")},
			{Date: day(2024, 7, 2), Price: money.Must(200_00, "USD")},
		},
		Total: money.Must(400_00, "USD"),
	}
}

func newTestBooking(t *testing.T, instantBook bool) *Booking {
	t.Helper()
	r, err := daterange.New(day(2024, 7, 1), day(2024, 7, 3))
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{
		ID:      "b-1",
		Villa:   testVilla(instantBook),
		GuestID: "guest-1",
		Range:   r,
		Guests:  2,
		Price:   testQuote(),
		Now:     day(2024, 6, 1),
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingStartsRequested(t *testing.T) {
	b := newTestBooking(t, false)
	assert.Equal(t, StatusRequested, b.Status)
	assert.Equal(t, PaymentPending, b.Payment)

	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.requested", events[0].EventName())
}

func TestNewBookingInstantBookConfirms(t *testing.T) {
	b := newTestBooking(t, true)
	assert.Equal(t, StatusConfirmed, b.Status)

	events := b.PendingEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "booking.requested", events[0].EventName())
	assert.Equal(t, "booking.confirmed", events[1].EventName())
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusRequested, StatusConfirmed, true},
		{StatusRequested, StatusRejected, true},
		{StatusRequested, StatusCancelled, true},
		{StatusRequested, StatusModified, true},
		{StatusRequested, StatusCompleted, false},
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusModified, true},
		{StatusConfirmed, StatusRejected, false},
		{StatusModified, StatusConfirmed, true},
		{StatusModified, StatusCompleted, true},
		{StatusModified, StatusModified, true},
		{StatusCancelled, StatusConfirmed, false},
		{StatusRejected, StatusCancelled, false},
		{StatusCompleted, StatusModified, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalAndBlocking(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusCancelled, StatusCompleted} {
		assert.Truef(t, s.Terminal(), "%s", s)
		assert.Falsef(t, s.Blocks(), "%s", s)
	}
	for _, s := range []Status{StatusRequested, StatusPending, StatusConfirmed, StatusModified} {
		assert.Falsef(t, s.Terminal(), "%s", s)
		assert.Truef(t, s.Blocks(), "%s", s)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("archived")
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestApproveAndReject(t *testing.T) {
	b := newTestBooking(t, false)
	require.NoError(t, b.Approve(day(2024, 6, 2)))
	assert.Equal(t, StatusConfirmed, b.Status)

	// already confirmed, reject is illegal
	err := b.Reject("too late", day(2024, 6, 3))
	assert.True(t, fault.IsKind(err, fault.KindIllegalState))

	other := newTestBooking(t, false)
	require.NoError(t, other.Reject("dates unavailable", day(2024, 6, 2)))
	assert.Equal(t, StatusRejected, other.Status)
	assert.True(t, other.Status.Terminal())
}

func TestCancelRecordsReason(t *testing.T) {
	b := newTestBooking(t, true)
	require.NoError(t, b.Cancel("change of plans", day(2024, 6, 10)))
	assert.Equal(t, StatusCancelled, b.Status)
	assert.Equal(t, "change of plans", b.CancelReason)
	assert.False(t, b.CancelledAt.IsZero())

	err := b.Cancel("again", day(2024, 6, 11))
	assert.True(t, fault.IsKind(err, fault.KindIllegalState))
}

func TestCompleteRequiresCheckoutPassed(t *testing.T) {
	b := newTestBooking(t, true)

	err := b.Complete(day(2024, 7, 2))
	assert.True(t, fault.IsKind(err, fault.KindIllegalState))

	require.NoError(t, b.Complete(day(2024, 7, 3)))
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestApplyModificationSwapsRangeAndQuote(t *testing.T) {
	b := newTestBooking(t, true)
	newRange, err := daterange.New(day(2024, 7, 10), day(2024, 7, 13))
	require.NoError(t, err)
	newQuote := pricing.Quote{Total: money.Must(600_00, "USD")}

	require.NoError(t, b.ApplyModification(newRange, 4, newQuote, day(2024, 6, 15)))
	assert.Equal(t, StatusModified, b.Status)
	assert.True(t, b.Range.Equal(newRange))
	assert.Equal(t, 4, b.Guests)
	assert.Equal(t, money.Must(600_00, "USD"), b.Price.Total)

	// modified stays non-terminal: the host can still approve it
	require.NoError(t, b.Approve(day(2024, 6, 16)))
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestApplyModificationOnTerminal(t *testing.T) {
	b := newTestBooking(t, true)
	require.NoError(t, b.Cancel("done", day(2024, 6, 10)))

	r, err := daterange.New(day(2024, 7, 10), day(2024, 7, 12))
	require.NoError(t, err)
	err = b.ApplyModification(r, 2, testQuote(), day(2024, 6, 11))
	assert.True(t, fault.IsKind(err, fault.KindIllegalState))
}

func TestActorIsParty(t *testing.T) {
	b := newTestBooking(t, false)
	assert.True(t, b.ActorIsParty("guest-1"))
	assert.True(t, b.ActorIsParty("host-1"))
	assert.False(t, b.ActorIsParty("someone-else"))
	assert.False(t, b.ActorIsParty(""))
}
