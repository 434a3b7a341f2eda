package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/domain/teetime/teetimetest"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

var probeDate = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

func TestProbeFiltersWindowAndSpots(t *testing.T) {
	surface := &teetimetest.Surface{Slots: []teetime.RawSlot{
		{TimeLabel: "7:50 AM", SpotsText: "4"},
		{TimeLabel: "8:00 AM", SpotsText: "4", PriceText: "$60.00", Handle: "/b/1"},
		{TimeLabel: "9:10 AM", SpotsText: "2"},
		{TimeLabel: "9:20 AM", SpotsText: "4 available"},
		{TimeLabel: "10:00 AM", SpotsText: "4"},
		{TimeLabel: "10:01 AM", SpotsText: "4"},
	}}
	p := Prober{Surface: surface, StepTimeout: time.Second, Log: logging.NewNop()}

	got, err := p.Probe(context.Background(), probeDate, teetime.TimeWindow{Start: 480, End: 600}, 4)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "08:00", got[0].Time24)
	assert.Equal(t, "/b/1", got[0].BookingHandle)
	assert.Equal(t, "09:20", got[1].Time24)
	assert.Equal(t, "10:00", got[2].Time24)

	assert.Equal(t, 1, surface.Opened())
	assert.Equal(t, 1, surface.Closed())
	require.Len(t, surface.ListDates, 1)
	assert.True(t, probeDate.Equal(surface.ListDates[0]))
}

func TestProbeEmptyScheduleIsNotAnError(t *testing.T) {
	surface := &teetimetest.Surface{}
	p := Prober{Surface: surface, Log: logging.NewNop()}

	got, err := p.Probe(context.Background(), probeDate, teetime.TimeWindow{Start: 0, End: 1439}, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProbeUnexpectedStructure(t *testing.T) {
	surface := &teetimetest.Surface{Slots: []teetime.RawSlot{{TimeLabel: "8:00 AM", SpotsText: "4"}, {}}}
	p := Prober{Surface: surface, Log: logging.NewNop()}

	_, err := p.Probe(context.Background(), probeDate, teetime.TimeWindow{Start: 0, End: 1439}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, teetime.ErrProbe))
	assert.Equal(t, 1, surface.Closed())
}

func TestProbeTransportFailures(t *testing.T) {
	cases := map[string]*teetimetest.Surface{
		"open":    {OpenErr: errors.New("browser did not start")},
		"listing": {ListErr: errors.New("net::ERR_NAME_NOT_RESOLVED")},
	}
	for name, surface := range cases {
		t.Run(name, func(t *testing.T) {
			p := Prober{Surface: surface, Log: logging.NewNop()}
			_, err := p.Probe(context.Background(), probeDate, teetime.TimeWindow{Start: 0, End: 1439}, 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, teetime.ErrProbe))
		})
	}
}

func TestProbeStepTimeout(t *testing.T) {
	surface := &teetimetest.Surface{BlockListing: make(chan struct{})}
	p := Prober{Surface: surface, StepTimeout: 20 * time.Millisecond, Log: logging.NewNop()}

	_, err := p.Probe(context.Background(), probeDate, teetime.TimeWindow{Start: 0, End: 1439}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, teetime.ErrProbe))
	assert.Equal(t, 1, surface.Closed())
}
