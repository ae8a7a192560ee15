package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseBirthDate(t *testing.T) {
	birth, err := ParseBirthDate("01/02/2000")
	require.NoError(t, err)
	require.Equal(t, 2000, birth.Year())
	require.Equal(t, time.February, birth.Month())
	require.Equal(t, 1, birth.Day())

	_, err = ParseBirthDate("2000-02-01")
	require.Error(t, err)
}

func TestAge(t *testing.T) {
	testCases := []struct {
		now      time.Time
		birth    time.Time
		expected int
	}{
		// birthday already passed this year
		{time.Date(2026, 8, 29, 0, 0, 0, 0, Location), time.Date(2000, 2, 1, 0, 0, 0, 0, Location), 26},
		// birthday is today
		{time.Date(2026, 2, 1, 0, 0, 0, 0, Location), time.Date(2000, 2, 1, 0, 0, 0, 0, Location), 26},
		// birthday still ahead this year
		{time.Date(2026, 1, 31, 0, 0, 0, 0, Location), time.Date(2000, 2, 1, 0, 0, 0, 0, Location), 25},
		// born this year
		{time.Date(2026, 8, 29, 0, 0, 0, 0, Location), time.Date(2026, 1, 1, 0, 0, 0, 0, Location), 0},
		// birth date in the future clamps to zero
		{time.Date(2026, 8, 29, 0, 0, 0, 0, Location), time.Date(2027, 1, 1, 0, 0, 0, 0, Location), 0},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Age(test.now, test.birth))
	}
}
