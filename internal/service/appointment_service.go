package service

import (
	"context"
	"errors"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTransition   = errors.New("appointment can only be marked completed or missed")
)

// --- Service Interface ---
type AppointmentService interface {
	// GetUpcoming lists every appointment from now on (admin view).
	GetUpcoming(ctx context.Context) ([]domain.Appointment, error)
	GetCoachAppointments(ctx context.Context, coachID primitive.ObjectID) ([]domain.Appointment, error)
	GetCustomerAppointments(ctx context.Context, customerID primitive.ObjectID) ([]domain.Appointment, error)
	// RecordOutcome lets a coach close out a session as completed or
	// missed, with optional notes.
	RecordOutcome(ctx context.Context, coachID, appointmentID primitive.ObjectID, status domain.AppointmentStatus, notes string) (*domain.Appointment, error)
}

// --- Service Implementation ---

// appointmentService implements the AppointmentService interface.
type appointmentService struct {
	appointmentRepo repository.AppointmentRepository
	now             func() time.Time
}

// NewAppointmentService creates a new instance of appointmentService.
func NewAppointmentService(appointmentRepo repository.AppointmentRepository) AppointmentService {
	return &appointmentService{
		appointmentRepo: appointmentRepo,
		now:             time.Now,
	}
}

func (s *appointmentService) GetUpcoming(ctx context.Context) ([]domain.Appointment, error) {
	return s.appointmentRepo.GetFromDate(ctx, s.now())
}

func (s *appointmentService) GetCoachAppointments(ctx context.Context, coachID primitive.ObjectID) ([]domain.Appointment, error) {
	return s.appointmentRepo.GetByCoachFromDate(ctx, coachID, s.now())
}

func (s *appointmentService) GetCustomerAppointments(ctx context.Context, customerID primitive.ObjectID) ([]domain.Appointment, error) {
	return s.appointmentRepo.GetByCustomerID(ctx, customerID)
}

// RecordOutcome updates the appointment status. The repository enforces
// that the appointment belongs to the acting coach.
func (s *appointmentService) RecordOutcome(ctx context.Context, coachID, appointmentID primitive.ObjectID, status domain.AppointmentStatus, notes string) (*domain.Appointment, error) {
	if status != domain.AppointmentCompleted && status != domain.AppointmentMissed {
		return nil, ErrInvalidTransition
	}

	if err := s.appointmentRepo.UpdateStatus(ctx, appointmentID, coachID, status, notes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return s.appointmentRepo.GetByID(ctx, appointmentID)
}
