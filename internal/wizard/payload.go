package wizard

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Button payloads.
const (
	DataDateToday    = "date_today"
	DataDateTomorrow = "date_tomorrow"
	DataDateDayAfter = "date_day_after"
	DataTimeManual   = "time_manual"

	PrefixDate   = "date_"
	PrefixTime   = "time_"
	PrefixCancel = "cancel_"
)

var (
	// ErrUnauthorized is reported when a user outside the allow-list starts or lists.
	ErrUnauthorized = errors.New("wizard: user is not authorized")
	// ErrMalformedTime is reported for manual time entries that are not HH:MM.
	ErrMalformedTime = errors.New("wizard: malformed time, want HH:MM")

	errBadPayload = errors.New("wizard: unrecognised payload")
)

var manualTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// slotTimes are the fixed time-of-day choices.
var slotTimes = [][]string{
	{"06:00", "12:00", "14:00"},
	{"16:00", "18:00", "20:00"},
}

var dateOffsets = map[string]int{
	DataDateToday:    0,
	DataDateTomorrow: 1,
	DataDateDayAfter: 2,
}

// ParseManualTime validates a free-text HH:MM entry with HH in 00-23 and MM in 00-59.
func ParseManualTime(s string) (hour, minute int, err error) {
	m := manualTimeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// parseSlot decodes the HH:MM part of a time_ payload; single-digit hours are accepted.
func parseSlot(data string) (hour, minute int, err error) {
	rest, ok := strings.CutPrefix(data, PrefixTime)
	if !ok {
		return 0, 0, errBadPayload
	}
	hh, mm, ok := strings.Cut(rest, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, 0, errBadPayload
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errBadPayload
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errBadPayload
	}
	return hour, minute, nil
}

// parseCancel decodes the post id of a cancel_<id> payload.
func parseCancel(data string) (int64, error) {
	rest, ok := strings.CutPrefix(data, PrefixCancel)
	if !ok || rest == "" {
		return 0, errBadPayload
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadPayload
	}
	return id, nil
}

// slotLabel renders "06:00" as "6:00".
func slotLabel(slot string) string {
	if len(slot) == 5 && slot[0] == '0' {
		return slot[1:]
	}
	return slot
}

func dateKeyboard() Keyboard {
	return Keyboard{{
		{Label: labelToday, Data: DataDateToday},
		{Label: labelTomorrow, Data: DataDateTomorrow},
		{Label: labelDayAfter, Data: DataDateDayAfter},
	}}
}

func timeKeyboard() Keyboard {
	kb := make(Keyboard, 0, len(slotTimes)+1)
	for _, row := range slotTimes {
		buttons := make([]Button, len(row))
		for i, slot := range row {
			buttons[i] = Button{Label: slotLabel(slot), Data: PrefixTime + slot}
		}
		kb = append(kb, buttons)
	}
	return append(kb, []Button{{Label: labelManual, Data: DataTimeManual}})
}

// midnight returns the start of the day offset days after now, in loc.
func midnight(now time.Time, offset int, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+offset, 0, 0, 0, 0, loc)
}

// at combines a day with a wall-clock time in the day's location.
func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}
