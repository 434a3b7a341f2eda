package teetime

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	c, err := Normalize(RawSlot{TimeLabel: "9:10 AM", SpotsText: "4 spots", PriceText: "$52.50", Handle: "/book/123"})
	require.NoError(t, err)
	assert.Equal(t, "09:10", c.Time24)
	assert.Equal(t, "9:10 AM", c.DisplayTime)
	assert.Equal(t, 4, c.AvailableSpots)
	require.NotNil(t, c.Price)
	assert.InDelta(t, 52.5, *c.Price, 0.001)
	assert.Equal(t, "/book/123", c.BookingHandle)
}

func TestNormalizeMissingOptionalFields(t *testing.T) {
	c, err := Normalize(RawSlot{TimeLabel: "2:00 PM", SpotsText: "Full"})
	require.NoError(t, err)
	assert.Equal(t, 0, c.AvailableSpots)
	assert.Nil(t, c.Price)
	assert.Empty(t, c.BookingHandle)
}

func TestNormalizeUnexpectedStructure(t *testing.T) {
	_, err := Normalize(RawSlot{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProbe))

	_, err = Normalize(RawSlot{TimeLabel: "soon", SpotsText: "2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProbe))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "configuration", Kind(ConfigurationErrorf("x")))
	assert.Equal(t, "probe", Kind(WrapProbe(errors.New("timeout"), "goto")))
	assert.Equal(t, "busy", Kind(ErrBusy))
	assert.Equal(t, "internal", Kind(errors.New("other")))
	assert.Equal(t, "", Kind(nil))
}
