package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilityStatus type for the availability approval workflow
type AvailabilityStatus string

const (
	AvailabilityPending  AvailabilityStatus = "pending"
	AvailabilityApproved AvailabilityStatus = "approved"
	AvailabilityRejected AvailabilityStatus = "rejected"
)

// Availability is a coach-declared window: a date range plus a weekly
// recurring session selection. Only approved availabilities feed the
// slot generator.
//
// SelectedDays maps a weekday (0=Sunday .. 6=Saturday, stored as a string
// key the way the document store keeps it) to the session IDs the coach
// offers on that weekday.
type Availability struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CoachID      primitive.ObjectID  `bson:"coachId" json:"coachId"`
	StartDate    time.Time           `bson:"startDate" json:"startDate"`
	EndDate      time.Time           `bson:"endDate" json:"endDate"`
	SelectedDays map[string][]string `bson:"selectedDays" json:"selectedDays"`
	Status       AvailabilityStatus  `bson:"status" json:"status"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Overlaps reports whether two date ranges intersect (inclusive bounds).
func (a *Availability) Overlaps(start, end time.Time) bool {
	return !a.StartDate.After(end) && !start.After(a.EndDate)
}
