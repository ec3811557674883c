package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
)

// AppointmentDuration is the fixed slot granularity in minutes. Every
// generated slot starts a whole multiple of this after its session start.
const AppointmentDuration = 15 * time.Minute

// Session identifiers shared by all coaches. Availabilities reference
// these in their per-weekday selections.
const (
	Session1 = "session1"
	Session2 = "session2"
)

// ClockTime is a time-of-day boundary within a session.
type ClockTime struct {
	Hour   int
	Minute int
}

// At anchors the clock time on a concrete calendar day.
func (c ClockTime) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Session is a named daily time-of-day range, e.g. the evening session
// spanning 17:00-20:00.
type Session struct {
	ID    string
	Start ClockTime
	End   ClockTime
}

// Calendar resolves session IDs to their clock boundaries. It is built
// once per assignment run from the persisted working-hours setting, so a
// mid-run settings change never affects an already generated sequence.
type Calendar struct {
	sessions map[string]Session
	order    []string
}

// DefaultCalendar returns the calendar for the default working hours
// (17:00-20:00 and 20:00-22:00).
func DefaultCalendar() Calendar {
	cal, _ := NewCalendar(domain.DefaultWorkingHours())
	return cal
}

// NewCalendar builds a calendar from a working-hours setting. Blank
// fields fall back to the defaults so a partially written settings
// document still yields a usable calendar.
func NewCalendar(wh domain.WorkingHours) (Calendar, error) {
	def := domain.DefaultWorkingHours()

	s1Start, err := parseClock(firstNonEmpty(wh.Session1Start, def.Session1Start))
	if err != nil {
		return Calendar{}, fmt.Errorf("session1 start: %w", err)
	}
	s1End, err := parseClock(firstNonEmpty(wh.Session1End, def.Session1End))
	if err != nil {
		return Calendar{}, fmt.Errorf("session1 end: %w", err)
	}
	s2Start, err := parseClock(firstNonEmpty(wh.Session2Start, def.Session2Start))
	if err != nil {
		return Calendar{}, fmt.Errorf("session2 start: %w", err)
	}
	s2End, err := parseClock(firstNonEmpty(wh.Session2End, def.Session2End))
	if err != nil {
		return Calendar{}, fmt.Errorf("session2 end: %w", err)
	}

	return Calendar{
		sessions: map[string]Session{
			Session1: {ID: Session1, Start: s1Start, End: s1End},
			Session2: {ID: Session2, Start: s2Start, End: s2End},
		},
		order: []string{Session1, Session2},
	}, nil
}

// Session looks up a session by its ID. Unknown IDs (e.g. stale data in
// an old availability document) report ok=false and are skipped by the
// slot generator.
func (c Calendar) Session(id string) (Session, bool) {
	s, ok := c.sessions[id]
	return s, ok
}

// Sessions returns all sessions in declaration order.
func (c Calendar) Sessions() []Session {
	out := make([]Session, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.sessions[id])
	}
	return out
}

// parseClock parses an "HH:MM" string as written by the dashboard.
func parseClock(v string) (ClockTime, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", v)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", v)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", v)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
