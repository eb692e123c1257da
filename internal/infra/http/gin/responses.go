package ginserver

import (
	"sort"
	"time"

	"villabook/internal/app/ledger"
	domainbooking "villabook/internal/domain/booking"
	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/pricing"
	"villabook/internal/domain/shared/money"
)

const dateLayout = "2006-01-02"

type moneyPayload struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyPayload(m money.Money) moneyPayload {
	return moneyPayload{Amount: m.Amount, Currency: m.Currency}
}

type nightPayload struct {
	Date  string       `json:"date"`
	Price moneyPayload `json:"price"`
}

type quotePayload struct {
	Nights      []nightPayload `json:"nights"`
	CleaningFee moneyPayload   `json:"cleaning_fee"`
	ServiceFee  moneyPayload   `json:"service_fee"`
	Taxes       moneyPayload   `json:"taxes"`
	Total       moneyPayload   `json:"total"`
}

func toQuotePayload(q pricing.Quote) quotePayload {
	out := quotePayload{
		Nights:      make([]nightPayload, 0, len(q.Nights)),
		CleaningFee: toMoneyPayload(q.CleaningFee),
		ServiceFee:  toMoneyPayload(q.ServiceFee),
		Taxes:       toMoneyPayload(q.Taxes),
		Total:       toMoneyPayload(q.Total),
	}
	for _, n := range q.Nights {
		out.Nights = append(out.Nights, nightPayload{
			Date:  n.Date.Format(dateLayout),
			Price: toMoneyPayload(n.Price),
		})
	}
	return out
}

type previewPayload struct {
	Available bool          `json:"available"`
	Cause     *causePayload `json:"cause,omitempty"`
	Quote     quotePayload  `json:"quote"`
}

type causePayload struct {
	Kind string `json:"kind"`
	Date string `json:"date,omitempty"`
}

func toPreviewPayload(r ledger.PreviewResult) previewPayload {
	out := previewPayload{
		Available: r.Decision.Available,
		Quote:     toQuotePayload(r.Quote),
	}
	if c := r.Decision.Cause; c != nil {
		cp := &causePayload{Kind: string(c.Kind)}
		if !c.Date.IsZero() {
			cp.Date = c.Date.Format(dateLayout)
		}
		out.Cause = cp
	}
	return out
}

type bookingPayload struct {
	ID           string       `json:"id"`
	VillaID      string       `json:"villa_id"`
	GuestID      string       `json:"guest_id"`
	HostID       string       `json:"host_id"`
	CheckIn      string       `json:"check_in"`
	CheckOut     string       `json:"check_out"`
	Guests       int          `json:"guests"`
	Status       string       `json:"status"`
	Payment      string       `json:"payment_status"`
	Price        quotePayload `json:"price"`
	CancelReason string       `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time   `json:"cancelled_at,omitempty"`
	InstantBook  bool         `json:"instant_book"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func toBookingPayload(b *domainbooking.Booking) bookingPayload {
	out := bookingPayload{
		ID:           string(b.ID),
		VillaID:      string(b.VillaID),
		GuestID:      b.GuestID,
		HostID:       b.HostID,
		CheckIn:      b.Range.CheckIn.Format(dateLayout),
		CheckOut:     b.Range.CheckOut.Format(dateLayout),
		Guests:       b.Guests,
		Status:       string(b.Status),
		Payment:      string(b.Payment),
		Price:        toQuotePayload(b.Price),
		CancelReason: b.CancelReason,
		InstantBook:  b.InstantBook,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if !b.CancelledAt.IsZero() {
		at := b.CancelledAt
		out.CancelledAt = &at
	}
	return out
}

func toBookingList(bookings []*domainbooking.Booking) []bookingPayload {
	out := make([]bookingPayload, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingPayload(b))
	}
	return out
}

type dayPayload struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type overridePayload struct {
	Date         string       `json:"date"`
	NightlyPrice moneyPayload `json:"nightly_price"`
	MinNights    int          `json:"min_nights,omitempty"`
	MaxNights    int          `json:"max_nights,omitempty"`
}

type calendarPayload struct {
	VillaID   string            `json:"villa_id"`
	Days      []dayPayload      `json:"days"`
	Overrides []overridePayload `json:"overrides"`
}

func toCalendarPayload(cal *domaincalendar.Calendar) calendarPayload {
	out := calendarPayload{
		VillaID:   string(cal.VillaID),
		Days:      make([]dayPayload, 0, len(cal.Days)),
		Overrides: make([]overridePayload, 0, len(cal.Overrides)),
	}
	for _, d := range cal.Days {
		out.Days = append(out.Days, dayPayload{
			Date:      d.Date.Format(dateLayout),
			Available: d.Available,
			Reason:    d.Reason,
		})
	}
	for _, o := range cal.Overrides {
		out.Overrides = append(out.Overrides, overridePayload{
			Date:         o.Date.Format(dateLayout),
			NightlyPrice: toMoneyPayload(o.NightlyPrice),
			MinNights:    o.MinNights,
			MaxNights:    o.MaxNights,
		})
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date < out.Days[j].Date })
	sort.Slice(out.Overrides, func(i, j int) bool { return out.Overrides[i].Date < out.Overrides[j].Date })
	return out
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}
