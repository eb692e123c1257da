package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
)

// VillaRepository projects the listing service's villa read model.
type VillaRepository struct {
	col *mongo.Collection
}

func NewVillaRepository(db *mongo.Database) *VillaRepository {
	return &VillaRepository{col: db.Collection("read_villas")}
}

func (r *VillaRepository) ByID(ctx context.Context, id villa.VillaID) (*villa.Villa, error) {
	var doc villaDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, villa.ErrVillaNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *VillaRepository) Save(ctx context.Context, v *villa.Villa) error {
	doc := newVillaDocument(v)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type villaDocument struct {
	ID          string        `bson:"_id"`
	HostID      string        `bson:"host_id"`
	Title       string        `bson:"title"`
	NightlyRate moneyDocument `bson:"nightly_rate"`
	CleaningFee moneyDocument `bson:"cleaning_fee"`
	ServiceFee  moneyDocument `bson:"service_fee"`
	Taxes       moneyDocument `bson:"taxes"`
	MinNights   int           `bson:"min_nights"`
	MaxNights   int           `bson:"max_nights"`
	MaxGuests   int           `bson:"max_guests"`
	Policy      string        `bson:"cancellation_policy"`
	InstantBook bool          `bson:"is_instant_book"`
}

func newVillaDocument(v *villa.Villa) villaDocument {
	return villaDocument{
		ID:          string(v.ID),
		HostID:      v.HostID,
		Title:       v.Title,
		NightlyRate: newMoneyDocument(v.NightlyRate),
		CleaningFee: newMoneyDocument(v.CleaningFee),
		ServiceFee:  newMoneyDocument(v.ServiceFee),
		Taxes:       newMoneyDocument(v.Taxes),
		MinNights:   v.MinNights,
		MaxNights:   v.MaxNights,
		MaxGuests:   v.MaxGuests,
		Policy:      string(v.Policy),
		InstantBook: v.InstantBook,
	}
}

func (d villaDocument) toModel() *villa.Villa {
	return &villa.Villa{
		ID:          villa.VillaID(d.ID),
		HostID:      d.HostID,
		Title:       d.Title,
		NightlyRate: d.NightlyRate.toMoney(),
		CleaningFee: d.CleaningFee.toMoney(),
		ServiceFee:  d.ServiceFee.toMoney(),
		Taxes:       d.Taxes.toMoney(),
		MinNights:   d.MinNights,
		MaxNights:   d.MaxNights,
		MaxGuests:   d.MaxGuests,
		Policy:      villa.CancellationPolicy(d.Policy),
		InstantBook: d.InstantBook,
	}
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}
