package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"10:00", 600, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"10:60", 0, true},
		{"-1:00", 0, true},
		{"ten", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "23:59", FormatClock(1439))
	assert.Equal(t, "24:00", FormatClock(1440))
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusScheduled, StatusConfirmed},
		{StatusScheduled, StatusCancelled},
		{StatusConfirmed, StatusCompleted},
		{StatusConfirmed, StatusCompletedWithoutPayment},
		{StatusConfirmed, StatusCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to Status }{
		{StatusScheduled, StatusCompleted},
		{StatusScheduled, StatusCompletedWithoutPayment},
		{StatusConfirmed, StatusScheduled},
		{StatusCancelled, StatusScheduled},
		{StatusCancelled, StatusConfirmed},
		{StatusCompleted, StatusCancelled},
		{StatusCompletedWithoutPayment, StatusCompleted},
		{StatusScheduled, StatusScheduled},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusScheduled.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCompletedWithoutPayment.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestOverlaps(t *testing.T) {
	// Half-open ranges: touching endpoints do not overlap.
	assert.False(t, Overlaps(600, 630, 630, 660))
	assert.False(t, Overlaps(630, 660, 600, 630))
	assert.True(t, Overlaps(600, 630, 629, 660))
	assert.True(t, Overlaps(600, 660, 615, 630))
	assert.True(t, Overlaps(615, 630, 600, 660))
	assert.True(t, Overlaps(600, 630, 600, 630))
}

func TestAppointmentValidate(t *testing.T) {
	base := func() *Appointment {
		return &Appointment{
			ID:              uuid.New(),
			VendorID:        uuid.New(),
			ClientID:        uuid.New(),
			Date:            "2024-03-15",
			StartMinute:     600,
			EndMinute:       660,
			DurationMinutes: 60,
			ServiceItems:    []ServiceItem{{ServiceID: uuid.New(), Price: 50000}},
			Amount:          50000,
			Discount:        5000,
			Tax:             9000,
			TotalAmount:     54000,
			Status:          StatusScheduled,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("bad date", func(t *testing.T) {
		a := base()
		a.Date = "15-03-2024"
		assert.ErrorIs(t, a.validate(), ErrInvalidDate)
	})

	t.Run("inverted range", func(t *testing.T) {
		a := base()
		a.StartMinute, a.EndMinute = 660, 600
		assert.ErrorIs(t, a.validate(), ErrInvalidTimeRange)
	})

	t.Run("duration mismatch", func(t *testing.T) {
		a := base()
		a.DurationMinutes = 30
		assert.ErrorIs(t, a.validate(), ErrInvalidTimeRange)
	})

	t.Run("no service items", func(t *testing.T) {
		a := base()
		a.ServiceItems = nil
		assert.ErrorIs(t, a.validate(), ErrNoServiceItems)
	})

	t.Run("negative discount", func(t *testing.T) {
		a := base()
		a.Discount = -1
		assert.ErrorIs(t, a.validate(), ErrInvalidAmount)
	})

	t.Run("total mismatch", func(t *testing.T) {
		a := base()
		a.TotalAmount = 99999
		assert.ErrorIs(t, a.validate(), ErrInvalidAmount)
	})
}
