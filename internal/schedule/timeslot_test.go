package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: "09:00"},
		{in: "22:00", want: "22:00"},
		{in: "2:00 PM", want: "14:00"},
		{in: "02:00 PM", want: "14:00"},
		{in: "9:00 AM", want: "09:00"},
		{in: "09:30", wantErr: true}, // off-catalogue half hour
		{in: "07:00", wantErr: true}, // before opening
		{in: "23:00", wantErr: true}, // after closing
		{in: "bogus", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := NormalizeTime(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidSlot, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseWeekday(t *testing.T) {
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		got, err := ParseWeekday(day)
		require.NoError(t, err)
		assert.Equal(t, Weekday(day), got)
	}

	_, err := ParseWeekday("Funday")
	assert.ErrorIs(t, err, ErrInvalidDay)

	_, err = ParseWeekday("monday") // case sensitive, matches template storage
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestWeekdayOf(t *testing.T) {
	// 2025-06-02 is a Monday
	date, err := ParseDate("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, Monday, WeekdayOf(date))
	assert.Equal(t, Sunday, WeekdayOf(date.AddDate(0, 0, 6)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2025-06-02", FormatDate(d))

	_, err = ParseDate("06/02/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate("2025-13-40")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestExpandRange(t *testing.T) {
	slots, err := ExpandRange("09:00", "12:00")
	require.NoError(t, err)
	assert.Equal(t, []TimeOfDay{"09:00", "10:00", "11:00"}, slots)

	// End is exclusive, so a one-hour range is a single slot.
	slots, err = ExpandRange("08:00", "09:00")
	require.NoError(t, err)
	assert.Equal(t, []TimeOfDay{"08:00"}, slots)

	_, err = ExpandRange("12:00", "12:00")
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = ExpandRange("09:30", "12:00")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestCatalogueIsHourlyTicks(t *testing.T) {
	cat := Catalogue()
	require.Len(t, cat, 15)
	assert.Equal(t, TimeOfDay("08:00"), cat[0])
	assert.Equal(t, TimeOfDay("22:00"), cat[len(cat)-1])
	for _, slot := range cat {
		assert.True(t, InCatalogue(slot))
	}
}
