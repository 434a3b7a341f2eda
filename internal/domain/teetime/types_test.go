package teetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptAdvancesInOrder(t *testing.T) {
	a := NewAttempt("2025-06-09", "09:00", []string{"p1"}, false)
	require.Equal(t, StatusPending, a.Status)

	require.NoError(t, a.Advance(StageAuthenticated))
	require.NoError(t, a.Advance(StageSlotSelected))
	require.NoError(t, a.Advance(StagePlayersFilled))
	require.NoError(t, a.Advance(StageSubmitted))
	require.NoError(t, a.Confirm("ABC123"))

	assert.Equal(t, StatusConfirmed, a.Status)
	assert.Equal(t, "ABC123", a.ConfirmationNumber)
	assert.Equal(t, []Stage{StageStart, StageAuthenticated, StageSlotSelected, StagePlayersFilled, StageSubmitted, StageConfirmed}, a.Stages)
}

func TestAttemptCannotSkipStages(t *testing.T) {
	a := NewAttempt("2025-06-09", "09:00", nil, false)
	assert.Error(t, a.Advance(StageSlotSelected))
	assert.Error(t, a.Confirm("x"))

	require.NoError(t, a.Advance(StageAuthenticated))
	assert.Error(t, a.Advance(StageAuthenticated))
}

func TestAttemptFailFromAnyStage(t *testing.T) {
	a := NewAttempt("2025-06-09", "09:00", nil, false)
	require.NoError(t, a.Advance(StageAuthenticated))
	a.Fail("slot gone")

	assert.Equal(t, StatusFailed, a.Status)
	assert.Equal(t, "slot gone", a.FailureReason)
	assert.Equal(t, StageFailed, a.Stage())
	assert.Error(t, a.Advance(StageSlotSelected))

	a.Fail("again")
	assert.Equal(t, "slot gone", a.FailureReason)
}

func TestAttemptTeeTime(t *testing.T) {
	a := BookingAttempt{Date: "2025-06-09", Time24: "13:40"}
	got, err := a.TeeTime(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 9, 13, 40, 0, 0, time.UTC), got)
}

func TestNewAttemptCopiesPlayers(t *testing.T) {
	ids := []string{"a", "b"}
	a := NewAttempt("2025-06-09", "09:00", ids, true)
	ids[0] = "z"
	assert.Equal(t, []string{"a", "b"}, a.PlayerIDs)
}
