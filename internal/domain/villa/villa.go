package villa

import (
	"context"
	"errors"

	"villabook/internal/domain/shared/money"
)

var (
	ErrVillaNotFound = errors.New("villa: not found")
	ErrGuestsLimit   = errors.New("villa: max guests must be at least 1")
	ErrNightsRange   = errors.New("villa: min nights must be positive and <= max nights")
	ErrNightlyRate   = errors.New("villa: nightly rate must be positive")
	ErrPolicyUnknown = errors.New("villa: unknown cancellation policy")
)

type VillaID string

type CancellationPolicy string

const (
	PolicyFlexible CancellationPolicy = "flexible"
	PolicyModerate CancellationPolicy = "moderate"
	PolicyStrict   CancellationPolicy = "strict"
)

// Villa is the read model supplied by the listing service. The booking
// engine never mutates it; pricing defaults and booking constraints are
// snapshotted from here.
type Villa struct {
	ID          VillaID
	HostID      string
	Title       string
	NightlyRate money.Money
	CleaningFee money.Money
	ServiceFee  money.Money
	Taxes       money.Money
	MinNights   int
	MaxNights   int
	MaxGuests   int
	Policy      CancellationPolicy
	InstantBook bool
}

func (v *Villa) Validate() error {
	if v.MaxGuests < 1 {
		return ErrGuestsLimit
	}
	if v.MinNights < 1 || v.MaxNights < v.MinNights {
		return ErrNightsRange
	}
	if v.NightlyRate.Amount <= 0 || v.NightlyRate.Currency == "" {
		return ErrNightlyRate
	}
	switch v.Policy {
	case PolicyFlexible, PolicyModerate, PolicyStrict:
	default:
		return ErrPolicyUnknown
	}
	return nil
}

type Repository interface {
	ByID(ctx context.Context, id VillaID) (*Villa, error)
	Save(ctx context.Context, v *Villa) error
}
