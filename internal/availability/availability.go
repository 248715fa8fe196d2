// Package availability holds pure read projections over a store
// snapshot. Nothing here mutates or caches; every request works off a
// fresh snapshot and accepts the staleness that implies.
package availability

import (
	"sort"

	"soulcare/internal/models"
)

// Dates returns the sorted distinct dates that still have at least one
// open slot.
func Dates(slots []models.Slot) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, s := range slots {
		if !s.IsOpen() || seen[s.Date] {
			continue
		}
		seen[s.Date] = true
		dates = append(dates, s.Date)
	}
	sort.Strings(dates)
	return dates
}

// TimeSlots returns the distinct open time-slot labels for a date, in
// sheet order.
func TimeSlots(slots []models.Slot, date string) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, s := range slots {
		if s.Date != date || !s.IsOpen() || seen[s.TimeSlot] {
			continue
		}
		seen[s.TimeSlot] = true
		labels = append(labels, s.TimeSlot)
	}
	return labels
}

// IsOpen reports whether the exact (date, timeSlot) pair is currently
// bookable.
func IsOpen(slots []models.Slot, date, timeSlot string) bool {
	for _, s := range slots {
		if s.Date == date && s.TimeSlot == timeSlot {
			return s.IsOpen()
		}
	}
	return false
}

// SlotsByDate maps every date with open slots to its open labels.
// Dates whose slots are all booked never appear.
func SlotsByDate(slots []models.Slot) map[string][]string {
	out := make(map[string][]string)
	for _, date := range Dates(slots) {
		if labels := TimeSlots(slots, date); len(labels) > 0 {
			out[date] = labels
		}
	}
	return out
}
