package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "villabook/internal/domain/booking"
	"villabook/internal/domain/pricing"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/villa"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

var blockingStatuses = []string{
	string(domainbooking.StatusRequested),
	string(domainbooking.StatusPending),
	string(domainbooking.StatusConfirmed),
	string(domainbooking.StatusModified),
}

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save uses an optimistic version filter so a stale aggregate never
// overwrites a newer one.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) BlockingByVilla(ctx context.Context, id villa.VillaID) ([]*domainbooking.Booking, error) {
	filter := bson.M{"villa_id": string(id), "status": bson.M{"$in": blockingStatuses}}
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"guest_id": guestID}, opts)
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"host_id": hostID}, opts)
}

func (r *BookingRepository) DueCompletion(ctx context.Context, now time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":          bson.M{"$in": []string{string(domainbooking.StatusConfirmed), string(domainbooking.StatusModified)}},
		"range.check_out": bson.M{"$lte": daterange.DayOf(now).UnixMilli()},
	}
	return r.find(ctx, filter, nil)
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.col.Find(ctx, filter, opts)
	} else {
		cursor, err = r.col.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID           string              `bson:"_id"`
	VillaID      string              `bson:"villa_id"`
	GuestID      string              `bson:"guest_id"`
	HostID       string              `bson:"host_id"`
	Range        rangeDocument       `bson:"range"`
	Guests       int                 `bson:"num_guests"`
	Nights       []nightRateDocument `bson:"nights"`
	CleaningFee  moneyDocument       `bson:"cleaning_fee"`
	ServiceFee   moneyDocument       `bson:"service_fee"`
	Taxes        moneyDocument       `bson:"taxes"`
	Total        moneyDocument       `bson:"total_price"`
	Status       string              `bson:"status"`
	Payment      string              `bson:"payment_status"`
	CancelReason string              `bson:"cancellation_reason,omitempty"`
	CancelledAt  int64               `bson:"cancellation_date,omitempty"`
	InstantBook  bool                `bson:"is_instant_book"`
	CreatedAt    int64               `bson:"created_at"`
	UpdatedAt    int64               `bson:"updated_at"`
	Version      int64               `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type nightRateDocument struct {
	Date  int64         `bson:"date"`
	Price moneyDocument `bson:"price"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:           string(b.ID),
		VillaID:      string(b.VillaID),
		GuestID:      b.GuestID,
		HostID:       b.HostID,
		Range:        rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:       b.Guests,
		CleaningFee:  newMoneyDocument(b.Price.CleaningFee),
		ServiceFee:   newMoneyDocument(b.Price.ServiceFee),
		Taxes:        newMoneyDocument(b.Price.Taxes),
		Total:        newMoneyDocument(b.Price.Total),
		Status:       string(b.Status),
		Payment:      string(b.Payment),
		CancelReason: b.CancelReason,
		InstantBook:  b.InstantBook,
		CreatedAt:    b.CreatedAt.UnixMilli(),
		UpdatedAt:    b.UpdatedAt.UnixMilli(),
		Version:      b.Version,
	}
	if !b.CancelledAt.IsZero() {
		doc.CancelledAt = b.CancelledAt.UnixMilli()
	}
	for _, n := range b.Price.Nights {
		doc.Nights = append(doc.Nights, nightRateDocument{Date: n.Date.UnixMilli(), Price: newMoneyDocument(n.Price)})
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	quote := pricing.Quote{
		CleaningFee: d.CleaningFee.toMoney(),
		ServiceFee:  d.ServiceFee.toMoney(),
		Taxes:       d.Taxes.toMoney(),
		Total:       d.Total.toMoney(),
	}
	for _, n := range d.Nights {
		quote.Nights = append(quote.Nights, pricing.NightRate{Date: timestampToTime(n.Date), Price: n.Price.toMoney()})
	}
	b := &domainbooking.Booking{
		ID:           domainbooking.BookingID(d.ID),
		VillaID:      villa.VillaID(d.VillaID),
		GuestID:      d.GuestID,
		HostID:       d.HostID,
		Range:        daterange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:       d.Guests,
		Price:        quote,
		Status:       domainbooking.Status(d.Status),
		Payment:      domainbooking.PaymentStatus(d.Payment),
		CancelReason: d.CancelReason,
		InstantBook:  d.InstantBook,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
	if d.CancelledAt != 0 {
		b.CancelledAt = timestampToTime(d.CancelledAt)
	}
	return b
}
