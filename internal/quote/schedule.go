package quote

import (
	"time"
)

// At-home interventions run on Saturdays only, one hour per slot.
const (
	slotStartHour = 10
	slotEndHour   = 17
)

// DefaultBlockedDates are the Belgian public holidays the shop does not
// drive out on.
var DefaultBlockedDates = []string{
	"2025-01-01",
	"2025-04-21",
	"2025-05-01",
	"2025-05-29",
	"2025-06-09",
	"2025-07-21",
	"2025-08-15",
	"2025-11-01",
	"2025-11-11",
	"2025-12-25",
}

// SlotHours lists the bookable start hours of a day.
func SlotHours() []int {
	hours := make([]int, 0, slotEndHour-slotStartHour)
	for h := slotStartHour; h < slotEndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func blockedSet(dates []string) map[string]bool {
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

// DayPickable reports whether a calendar day can host an appointment:
// a Saturday, not already past and not blocked.
func DayPickable(day, now time.Time, blocked []string) bool {
	if day.Weekday() != time.Saturday {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return false
	}
	return !blockedSet(blocked)[dateKey(day)]
}

// SlotValid checks a candidate appointment time: pickable day, start on
// the hour inside the bookable window, and strictly in the future.
func SlotValid(slot, now time.Time, blocked []string) bool {
	if !DayPickable(slot, now, blocked) {
		return false
	}
	if slot.Minute() != 0 || slot.Second() != 0 {
		return false
	}
	if slot.Hour() < slotStartHour || slot.Hour() >= slotEndHour {
		return false
	}
	return slot.After(now)
}

// ValidateSlotISO parses an RFC 3339 timestamp and applies SlotValid in
// the timestamp's own offset.
func ValidateSlotISO(iso string, now time.Time, blocked []string) (time.Time, bool) {
	slot, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}, false
	}
	return slot, SlotValid(slot, now, blocked)
}

// NextAvailableSlot finds the default pre-selection: the first slot of
// the next pickable Saturday. Today counts when its first slot is still
// ahead. The false return only happens when every Saturday for a year
// out is blocked.
func NextAvailableSlot(now time.Time, blocked []string) (time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < 366; i++ {
		if DayPickable(day, now, blocked) {
			for _, h := range SlotHours() {
				slot := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, day.Location())
				if slot.After(now) {
					return slot, true
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}
