package quote

import (
	"testing"
	"time"
)

// 2025-08-20 is a Wednesday; the next Saturday is 2025-08-23.
var scheduleNow = time.Date(2025, 8, 20, 9, 30, 0, 0, time.UTC)

func TestSlotHoursWindow(t *testing.T) {
	hours := SlotHours()
	if len(hours) != 7 {
		t.Fatalf("expected 7 bookable hours, got %d", len(hours))
	}
	if hours[0] != 10 || hours[len(hours)-1] != 16 {
		t.Fatalf("hours = %v, want 10..16", hours)
	}
}

func TestDayPickableSaturdaysOnly(t *testing.T) {
	friday := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, 8, 23, 0, 0, 0, 0, time.UTC)
	pastSaturday := time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC)

	if DayPickable(friday, scheduleNow, nil) {
		t.Fatal("a Friday must not be pickable")
	}
	if !DayPickable(saturday, scheduleNow, nil) {
		t.Fatal("the coming Saturday should be pickable")
	}
	if DayPickable(pastSaturday, scheduleNow, nil) {
		t.Fatal("a past Saturday must not be pickable")
	}
}

func TestDayPickableSkipsHolidays(t *testing.T) {
	// All Saints' Day 2025 falls on a Saturday.
	holiday := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	if DayPickable(holiday, scheduleNow, DefaultBlockedDates) {
		t.Fatal("a blocked Saturday must not be pickable")
	}
}

func TestSlotValidRules(t *testing.T) {
	cases := []struct {
		name string
		slot time.Time
		want bool
	}{
		{"first hour", time.Date(2025, 8, 23, 10, 0, 0, 0, time.UTC), true},
		{"last hour", time.Date(2025, 8, 23, 16, 0, 0, 0, time.UTC), true},
		{"before opening", time.Date(2025, 8, 23, 9, 0, 0, 0, time.UTC), false},
		{"after last start", time.Date(2025, 8, 23, 17, 0, 0, 0, time.UTC), false},
		{"half hour", time.Date(2025, 8, 23, 10, 30, 0, 0, time.UTC), false},
		{"weekday", time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SlotValid(tc.slot, scheduleNow, nil); got != tc.want {
				t.Fatalf("SlotValid(%v) = %v, want %v", tc.slot, got, tc.want)
			}
		})
	}
}

func TestSlotValidRejectsElapsedSlotSameDay(t *testing.T) {
	midSaturday := time.Date(2025, 8, 23, 12, 30, 0, 0, time.UTC)
	gone := time.Date(2025, 8, 23, 11, 0, 0, 0, time.UTC)
	ahead := time.Date(2025, 8, 23, 13, 0, 0, 0, time.UTC)

	if SlotValid(gone, midSaturday, nil) {
		t.Fatal("an elapsed slot on the current day must be invalid")
	}
	if !SlotValid(ahead, midSaturday, nil) {
		t.Fatal("a later slot on the current day should stay valid")
	}
}

func TestNextAvailableSlotDefaultsToFirstHour(t *testing.T) {
	slot, ok := NextAvailableSlot(scheduleNow, DefaultBlockedDates)
	if !ok {
		t.Fatal("expected a slot")
	}
	want := time.Date(2025, 8, 23, 10, 0, 0, 0, time.UTC)
	if !slot.Equal(want) {
		t.Fatalf("slot = %v, want %v", slot, want)
	}
}

func TestNextAvailableSlotSkipsBlockedSaturday(t *testing.T) {
	slot, ok := NextAvailableSlot(scheduleNow, []string{"2025-08-23"})
	if !ok {
		t.Fatal("expected a slot")
	}
	want := time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)
	if !slot.Equal(want) {
		t.Fatalf("slot = %v, want %v", slot, want)
	}
}

func TestNextAvailableSlotMidSaturday(t *testing.T) {
	midSaturday := time.Date(2025, 8, 23, 12, 30, 0, 0, time.UTC)
	slot, ok := NextAvailableSlot(midSaturday, nil)
	if !ok {
		t.Fatal("expected a slot")
	}
	want := time.Date(2025, 8, 23, 13, 0, 0, 0, time.UTC)
	if !slot.Equal(want) {
		t.Fatalf("slot = %v, want %v", slot, want)
	}
}

func TestValidateSlotISO(t *testing.T) {
	if _, ok := ValidateSlotISO("2025-08-23T10:00:00Z", scheduleNow, nil); !ok {
		t.Fatal("well-formed future slot should validate")
	}
	if _, ok := ValidateSlotISO("not-a-date", scheduleNow, nil); ok {
		t.Fatal("garbage must not validate")
	}
	if _, ok := ValidateSlotISO("2025-08-23T10:00:00+02:00", scheduleNow, []string{"2025-08-23"}); ok {
		t.Fatal("blocked date must not validate")
	}
}
