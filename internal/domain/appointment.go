package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentStatus type for the appointment lifecycle
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed" // Coach held the session
	AppointmentMissed    AppointmentStatus = "missed"    // Customer did not show up
)

// Appointment books a customer with a coach at an exact slot instant.
// For a fixed coach no two appointments may share the same date; the
// appointments collection carries a unique (coachId, date) index that
// backs the optimistic check-then-write discipline of the scheduler.
type Appointment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID primitive.ObjectID `bson:"customerId" json:"customerId"`
	CoachID    primitive.ObjectID `bson:"coachId" json:"coachId"`
	Date       time.Time          `bson:"date" json:"date"` // Slot start instant, duration-quantized
	Status     AppointmentStatus  `bson:"status" json:"status"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
