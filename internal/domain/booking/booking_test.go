package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo_FromPending(t *testing.T) {
	b := &Booking{Status: StatusPendingVendorReview}

	assert.True(t, b.CanTransitionTo(StatusApprovedAwaitingPayment))
	assert.True(t, b.CanTransitionTo(StatusRejectedByVendor))
	assert.True(t, b.CanTransitionTo(StatusCancelledByCustomer))

	assert.False(t, b.CanTransitionTo(StatusPaidConfirmed))
	assert.False(t, b.CanTransitionTo(StatusActive))
	assert.False(t, b.CanTransitionTo(StatusReturned))
	assert.False(t, b.CanTransitionTo(StatusCompleted))
	assert.False(t, b.CanTransitionTo(StatusExpiredNoPayment))
}

func TestCanTransitionTo_FullLifecycle(t *testing.T) {
	path := []Status{
		StatusPendingVendorReview,
		StatusApprovedAwaitingPayment,
		StatusPaidConfirmed,
		StatusActive,
		StatusReturned,
		StatusCompleted,
	}

	for i := 0; i < len(path)-1; i++ {
		b := &Booking{Status: path[i]}
		assert.True(t, b.CanTransitionTo(path[i+1]), "%s -> %s should be allowed", path[i], path[i+1])
	}
}

func TestCanTransitionTo_TerminalStates(t *testing.T) {
	terminals := []Status{
		StatusCompleted,
		StatusRejectedByVendor,
		StatusCancelledByCustomer,
		StatusExpiredNoPayment,
	}

	all := []Status{
		StatusPendingVendorReview, StatusApprovedAwaitingPayment,
		StatusPaidConfirmed, StatusActive, StatusReturned, StatusCompleted,
		StatusRejectedByVendor, StatusCancelledByCustomer, StatusExpiredNoPayment,
	}

	for _, terminal := range terminals {
		b := &Booking{Status: terminal}
		assert.True(t, b.IsTerminal())
		for _, target := range all {
			assert.False(t, b.CanTransitionTo(target), "%s should not reach %s", terminal, target)
		}
	}
}

func TestCanTransitionTo_UnknownStatus(t *testing.T) {
	b := &Booking{Status: Status("NO_SUCH_STATUS")}
	assert.False(t, b.CanTransitionTo(StatusActive))
}

func TestInvalidTransitionError_CarriesCurrentStatus(t *testing.T) {
	b := &Booking{Status: StatusPaidConfirmed}
	err := b.transitionError(StatusApprovedAwaitingPayment)

	var tErr *InvalidTransitionError
	assert.ErrorAs(t, err, &tErr)
	assert.Equal(t, StatusPaidConfirmed, tErr.Current)
	assert.Contains(t, err.Error(), string(StatusPaidConfirmed))
}

func TestDurationDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		days  int
	}{
		{
			"two full days",
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
			2,
		},
		{
			"partial day rounds up",
			time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC),
			3,
		},
		{
			"sub-day booking bills one day",
			time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC),
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{StartDate: tt.start, EndDate: tt.end}
			assert.Equal(t, tt.days, b.DurationDays())
		})
	}
}
