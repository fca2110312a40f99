package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int, hour int) time.Time {
	return time.Date(2024, time.March, d, hour, 0, 0, 0, time.UTC)
}

func TestNewValidates(t *testing.T) {
	_, err := New(day(15, 0), day(15, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day(17, 0), day(15, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day(15, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)

	dr, err := New(day(15, 14), day(15, 18))
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, dr.Duration())
}

func TestNewNormalizesToUTC(t *testing.T) {
	hcm := time.FixedZone("ICT", 7*3600)
	dr, err := New(time.Date(2024, 3, 15, 14, 0, 0, 0, hcm), time.Date(2024, 3, 15, 18, 0, 0, 0, hcm))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, dr.CheckIn.Location())
	assert.Equal(t, 7, dr.CheckIn.Hour())
}

func TestOverlaps(t *testing.T) {
	base := DateRange{CheckIn: day(15, 0), CheckOut: day(17, 0)}

	assert.True(t, base.Overlaps(DateRange{CheckIn: day(16, 0), CheckOut: day(18, 0)}))
	assert.False(t, base.Overlaps(DateRange{CheckIn: day(17, 0), CheckOut: day(18, 0)}), "adjacent ranges do not overlap")
	assert.True(t, base.ContainsDate(day(15, 0)))
	assert.False(t, base.ContainsDate(day(17, 0)))
}
