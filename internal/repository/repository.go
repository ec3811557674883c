package repository

import (
	"context"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
	// ErrConflict signals a uniqueness violation: a concurrent writer
	// already booked the same (coachId, date) pair. The scheduler treats
	// it as "slot taken, try the next candidate", never as a batch error.
	ErrConflict     = RepositoryError("conflict")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// GetByRole lists all users with the given role; the assignment
	// engine uses it to enumerate customers.
	GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// AvailabilityRepository defines the interface for interacting with
// coach availability windows.
type AvailabilityRepository interface {
	Create(ctx context.Context, availability *domain.Availability) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Availability, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Availability, error)
	GetByStatus(ctx context.Context, status domain.AvailabilityStatus) ([]domain.Availability, error)
	// GetApprovedFrom lists approved availabilities whose window has not
	// fully elapsed (endDate >= from), ordered by startDate then
	// creation time so assignment outcomes are reproducible.
	GetApprovedFrom(ctx context.Context, from time.Time) ([]domain.Availability, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AvailabilityStatus) error
	// GetOverlapping lists a coach's pending/approved windows that
	// date-overlap [start, end]; creation rejects when any exist.
	GetOverlapping(ctx context.Context, coachID primitive.ObjectID, start, end time.Time) ([]domain.Availability, error)
}

// AppointmentRepository defines the interface for interacting with
// appointment bookings. It is the single shared mutable resource of the
// scheduler; Create is the conditional write that closes races.
type AppointmentRepository interface {
	// Create inserts a new appointment. It fails with ErrConflict when
	// an appointment for the same (coachId, date) already exists.
	Create(ctx context.Context, appointment *domain.Appointment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error)
	GetFromDate(ctx context.Context, from time.Time) ([]domain.Appointment, error)
	GetByCoachFromDate(ctx context.Context, coachID primitive.ObjectID, from time.Time) ([]domain.Appointment, error)
	GetByCustomerID(ctx context.Context, customerID primitive.ObjectID) ([]domain.Appointment, error)
	// HasUpcoming reports whether the customer holds any appointment at
	// or after the given instant (the derived "needs scheduling" state).
	HasUpcoming(ctx context.Context, customerID primitive.ObjectID, from time.Time) (bool, error)
	// ExistsAt is the authoritative re-check performed immediately
	// before committing a booking.
	ExistsAt(ctx context.Context, coachID primitive.ObjectID, date time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id, coachID primitive.ObjectID, status domain.AppointmentStatus, notes string) error
}

// SettingsRepository defines the interface for the persisted scheduler
// settings (settings collection, one document per setting).
type SettingsRepository interface {
	GetAutoScheduling(ctx context.Context) (domain.AutoSchedulingSetting, error)
	SetAutoScheduling(ctx context.Context, enabled bool) error
	GetWorkingHours(ctx context.Context) (domain.WorkingHours, error)
	SetWorkingHours(ctx context.Context, hours domain.WorkingHours) error
}
