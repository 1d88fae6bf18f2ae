package schedule

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrInvalidDay  = errors.New("invalid day of week")
	ErrInvalidSlot = errors.New("time slot is not in the bookable catalogue")
	ErrInvalidDate = errors.New("invalid calendar date")
)

// TimeOfDay is a bookable slot start time in canonical 24-hour HH:MM form.
type TimeOfDay string

// The catalogue covers hourly ticks from 08:00 through 22:00. Every template
// entry and every stored appointment time is drawn from this set.
var slotCatalogue = []TimeOfDay{
	"08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00",
	"15:00", "16:00", "17:00", "18:00", "19:00", "20:00", "21:00", "22:00",
}

var catalogueSet = func() map[TimeOfDay]struct{} {
	m := make(map[TimeOfDay]struct{}, len(slotCatalogue))
	for _, t := range slotCatalogue {
		m[t] = struct{}{}
	}
	return m
}()

// Catalogue returns the full ordered slot catalogue.
func Catalogue() []TimeOfDay {
	out := make([]TimeOfDay, len(slotCatalogue))
	copy(out, slotCatalogue)
	return out
}

// InCatalogue reports whether t is a valid bookable slot.
func InCatalogue(t TimeOfDay) bool {
	_, ok := catalogueSet[t]
	return ok
}

// NormalizeTime converts accepted input forms ("14:00", "2:00 PM", "02:00 PM")
// to the canonical 24-hour slot value and validates it against the catalogue.
func NormalizeTime(raw string) (TimeOfDay, error) {
	layouts := []string{"15:04", "3:04 PM", "03:04 PM", "3:04PM"}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t := TimeOfDay(parsed.Format("15:04"))
			if !InCatalogue(t) {
				return "", ErrInvalidSlot
			}
			return t, nil
		}
	}
	return "", ErrInvalidSlot
}

// Weekday is a template day name, Monday through Sunday.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

var validWeekdays = map[Weekday]struct{}{
	Monday: {}, Tuesday: {}, Wednesday: {}, Thursday: {},
	Friday: {}, Saturday: {}, Sunday: {},
}

// ParseWeekday validates a day name against the 7-day enum.
func ParseWeekday(raw string) (Weekday, error) {
	d := Weekday(raw)
	if _, ok := validWeekdays[d]; !ok {
		return "", ErrInvalidDay
	}
	return d, nil
}

// WeekdayOf maps a calendar date to its template day name.
func WeekdayOf(date time.Time) Weekday {
	return Weekday(date.Weekday().String())
}

// ParseDate parses a YYYY-MM-DD calendar date. The result is midnight UTC;
// dates are compared by day only.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// FormatDate renders a date back to YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}

// ExpandRange converts a legacy [start,end) availability range to the
// catalogue ticks it covers. Both endpoints must land on catalogue-aligned
// hours; end is exclusive.
func ExpandRange(start, end string) ([]TimeOfDay, error) {
	from, err := NormalizeTime(start)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse("15:04", end)
	if err != nil {
		return nil, ErrInvalidSlot
	}
	endTick := TimeOfDay(to.Format("15:04"))

	var out []TimeOfDay
	for _, t := range slotCatalogue {
		if t >= from && t < endTick {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, ErrInvalidSlot
	}
	return out, nil
}

// sortSlots orders slot values ascending. HH:MM strings compare correctly
// lexicographically.
func sortSlots(slots []TimeOfDay) {
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
}
