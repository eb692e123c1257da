package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/villa"
)

// CalendarRepository persists one document per villa calendar. Day rows
// and overrides are stored as arrays; dates travel as UnixMilli UTC
// midnights.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id villa.VillaID) (*domaincalendar.Calendar, error) {
	var doc calendarDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domaincalendar.NewCalendar(id), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domaincalendar.Calendar) error {
	doc := newCalendarDocument(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version}
	doc.Version = cal.Version + 1
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
	cal.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID        string             `bson:"_id"`
	Days      []dayDocument      `bson:"days"`
	Overrides []overrideDocument `bson:"overrides"`
	Version   int64              `bson:"version"`
}

type dayDocument struct {
	Date      int64  `bson:"date"`
	Available bool   `bson:"is_available"`
	Reason    string `bson:"reason,omitempty"`
}

type overrideDocument struct {
	Date         int64         `bson:"date"`
	NightlyPrice moneyDocument `bson:"nightly_price"`
	MinNights    int           `bson:"min_nights,omitempty"`
	MaxNights    int           `bson:"max_nights,omitempty"`
}

func newCalendarDocument(cal *domaincalendar.Calendar) calendarDocument {
	doc := calendarDocument{ID: string(cal.VillaID), Version: cal.Version}
	for _, d := range cal.Days {
		doc.Days = append(doc.Days, dayDocument{Date: d.Date.UnixMilli(), Available: d.Available, Reason: d.Reason})
	}
	for _, o := range cal.Overrides {
		doc.Overrides = append(doc.Overrides, overrideDocument{
			Date:         o.Date.UnixMilli(),
			NightlyPrice: newMoneyDocument(o.NightlyPrice),
			MinNights:    o.MinNights,
			MaxNights:    o.MaxNights,
		})
	}
	return doc
}

func (d calendarDocument) toAggregate() *domaincalendar.Calendar {
	cal := domaincalendar.NewCalendar(villa.VillaID(d.ID))
	cal.Version = d.Version
	for _, day := range d.Days {
		date := timestampToTime(day.Date)
		cal.Days[date] = domaincalendar.Day{Date: date, Available: day.Available, Reason: day.Reason}
	}
	for _, o := range d.Overrides {
		date := timestampToTime(o.Date)
		cal.Overrides[date] = domaincalendar.Override{
			Date:         date,
			NightlyPrice: o.NightlyPrice.toMoney(),
			MinNights:    o.MinNights,
			MaxNights:    o.MaxNights,
		}
	}
	return cal
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
