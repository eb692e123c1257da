package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	base := Conflict("dates overlap booking %s", "b-1")
	wrapped := fmt.Errorf("create booking: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(wrapped, KindValidation))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("daterange: checkout must be after checkin")
	err := Wrap(KindValidation, cause, "invalid date range")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "VALIDATION")
	assert.Contains(t, err.Error(), "invalid date range")
}

func TestIsMatchesByKind(t *testing.T) {
	err := IllegalState("booking b-1 cannot go from cancelled to confirmed")

	require.True(t, errors.Is(err, IllegalState("")))
	assert.False(t, errors.Is(err, Conflict("")))
}
