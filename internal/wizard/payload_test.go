package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseManualTime(t *testing.T) {
	h, m, err := ParseManualTime("15:45")
	require.NoError(t, err)
	require.Equal(t, 15, h)
	require.Equal(t, 45, m)

	h, m, err = ParseManualTime("00:00")
	require.NoError(t, err)
	require.Zero(t, h)
	require.Zero(t, m)

	for _, in := range []string{"25:61", "9:5", "abcd", "24:00", "12:60", "", "12:3", "1245", " 15:45", "15:45\n", " 15:45\n"} {
		_, _, err := ParseManualTime(in)
		require.ErrorIs(t, err, ErrMalformedTime, in)
	}
}

func TestParseSlot(t *testing.T) {
	cases := map[string][2]int{
		"time_06:00": {6, 0},
		"time_6:00":  {6, 0},
		"time_20:00": {20, 0},
		"time_23:59": {23, 59},
	}
	for in, want := range cases {
		h, m, err := parseSlot(in)
		require.NoError(t, err, in)
		require.Equal(t, want, [2]int{h, m}, in)
	}
	for _, in := range []string{"time_", "time_24:00", "time_6:0", "time_123:00", "date_06:00", "time_aa:bb"} {
		_, _, err := parseSlot(in)
		require.Error(t, err, in)
	}
}

func TestParseCancel(t *testing.T) {
	id, err := parseCancel("cancel_42")
	require.NoError(t, err)
	require.EqualValues(t, 42, id)

	for _, in := range []string{"cancel_", "cancel_0", "cancel_-1", "cancel_abc", "drop_1"} {
		_, err := parseCancel(in)
		require.Error(t, err, in)
	}
}

func TestKeyboards(t *testing.T) {
	kb := timeKeyboard()
	require.Len(t, kb, 3)
	require.Equal(t, Button{Label: "6:00", Data: "time_06:00"}, kb[0][0])
	require.Equal(t, Button{Label: "20:00", Data: "time_20:00"}, kb[1][2])
	require.Equal(t, []Button{{Label: labelManual, Data: DataTimeManual}}, kb[2])

	dates := dateKeyboard()
	require.Len(t, dates, 1)
	require.Len(t, dates[0], 3)
	for _, b := range dates[0] {
		_, ok := dateOffsets[b.Data]
		require.True(t, ok, b.Data)
	}
}

func TestMidnightUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC is already the next day at UTC+3.
	now := time.Date(2026, 1, 31, 22, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, loc), midnight(now, 0, loc))
	require.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, loc), midnight(now, 2, loc))
	require.Equal(t, time.Date(2026, 2, 1, 15, 45, 0, 0, loc), at(midnight(now, 0, loc), 15, 45))
}
