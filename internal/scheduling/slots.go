package scheduling

import (
	"sort"
	"strconv"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
)

// GenerateSlots expands an availability window into the ordered sequence
// of candidate appointment start instants.
//
// The walk is day by day from the later of the window start and now's
// day, through the window end (inclusive at day granularity). On each
// day the weekday's selected sessions are stepped in AppointmentDuration
// increments from session start to session end. Only instants strictly
// after now are emitted. The result is strictly ascending with no
// duplicates.
//
// Invalid windows (end before start) and fully elapsed windows produce
// an empty sequence; that is not an error, the window simply yields no
// supply.
func GenerateSlots(cal Calendar, av domain.Availability, now time.Time) []time.Time {
	if av.EndDate.Before(av.StartDate) {
		return nil
	}
	lastDay := startOfDay(av.EndDate)
	if now.After(endOfDay(av.EndDate)) {
		return nil
	}

	// Start from today or the window start, whichever is later.
	cursor := startOfDay(av.StartDate)
	if today := startOfDay(now); today.After(cursor) {
		cursor = today
	}

	var slots []time.Time
	for day := cursor; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		weekday := strconv.Itoa(int(day.Weekday()))
		for _, sessionID := range av.SelectedDays[weekday] {
			session, ok := cal.Session(sessionID)
			if !ok {
				continue
			}
			sessionEnd := session.End.At(day)
			for slot := session.Start.At(day); slot.Before(sessionEnd); slot = slot.Add(AppointmentDuration) {
				if slot.After(now) {
					slots = append(slots, slot)
				}
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return dedupe(slots)
}

// dedupe drops repeated instants from a sorted sequence. Overlapping
// session selections in a malformed availability document must not
// produce the same slot twice.
func dedupe(sorted []time.Time) []time.Time {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, t := range sorted[1:] {
		if !t.Equal(out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
