package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/repository"
	"github.com/azizhamoud35/namatclinic3/internal/scheduling"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	// ErrSlotTaken means the authoritative re-check failed: a concurrent
	// writer booked the slot between candidate listing and commit.
	ErrSlotTaken = errors.New("slot no longer available")
	// ErrStoreUnavailable wraps a batch-level read failure. The whole run
	// aborted and is safe to retry later.
	ErrStoreUnavailable    = errors.New("booking store unavailable")
	ErrCustomerNotFound    = errors.New("customer user not found")
	ErrCoachNotFound       = errors.New("coach user not found")
	ErrNotCustomerRole     = errors.New("user found but is not a customer")
	ErrNotCoachRole        = errors.New("user found but is not a coach")
	ErrInvalidWorkingHours = errors.New("invalid working hours setting")
)

// SchedulingResult summarises one assignment run. A run that books
// nothing is still a successful run.
type SchedulingResult struct {
	AppointmentsCreated  int `json:"appointmentsCreated"`
	CustomersUnscheduled int `json:"customersUnscheduled"`
}

// SchedulingRunner is the narrow seam other services use to kick a
// synchronous assignment pass (after availability approval, after a
// working-hours change, from the auto-scheduling timer).
type SchedulingRunner interface {
	TriggerScheduling(ctx context.Context) (SchedulingResult, error)
}

// --- Service Interface ---
type SchedulingService interface {
	SchedulingRunner

	// CandidateSlots lists a coach's free bookable instants for
	// manual-scheduling UIs: generated slots minus the coach's existing
	// future appointments.
	CandidateSlots(ctx context.Context, coachID primitive.ObjectID) ([]time.Time, error)

	// ScheduleManual books a specific customer/coach/slot triple chosen
	// by an operator. Fails with ErrSlotTaken when the re-check fails.
	ScheduleManual(ctx context.Context, customerID, coachID primitive.ObjectID, slot time.Time) (*domain.Appointment, error)

	GetWorkingHours(ctx context.Context) (domain.WorkingHours, error)
	// UpdateWorkingHours persists new session boundaries and runs a
	// scheduling pass, since wider hours can create new supply.
	UpdateWorkingHours(ctx context.Context, hours domain.WorkingHours) error
}

// --- Service Implementation ---

// schedulingService implements the SchedulingService interface.
type schedulingService struct {
	userRepo         repository.UserRepository
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	settingsRepo     repository.SettingsRepository
	logger           *zap.Logger
	now              func() time.Time // injectable clock for tests
}

// NewSchedulingService creates a new instance of schedulingService.
func NewSchedulingService(
	userRepo repository.UserRepository,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	settingsRepo repository.SettingsRepository,
	logger *zap.Logger,
) SchedulingService {
	return &schedulingService{
		userRepo:         userRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		settingsRepo:     settingsRepo,
		logger:           logger,
		now:              time.Now,
	}
}

// === Assignment Engine ===

// TriggerScheduling runs one batch assignment pass: every customer
// without a future appointment is matched against the earliest free slot
// across all approved availabilities, first-fit. Customers left without
// a slot stay unscheduled; that is a normal outcome, not an error.
//
// Concurrency discipline: the run works from an in-memory snapshot of
// booked slots taken up front, then re-checks authoritatively right
// before each commit. A conflict at commit time means another run won
// that slot; the engine moves on to the next candidate.
func (s *schedulingService) TriggerScheduling(ctx context.Context) (SchedulingResult, error) {
	runID := uuid.NewString()
	now := s.now()
	log := s.logger.With(zap.String("run", runID))

	// Working hours are read once per run; a mid-run settings change
	// never affects an already generated slot sequence.
	cal, err := s.loadCalendar(ctx)
	if err != nil {
		return SchedulingResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	customers, err := s.userRepo.GetByRole(ctx, domain.RoleCustomer)
	if err != nil {
		return SchedulingResult{}, fmt.Errorf("%w: listing customers: %v", ErrStoreUnavailable, err)
	}

	// endDate is stored at day granularity (midnight), so the supply
	// query compares against the start of today to keep windows whose
	// last day is still running.
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	availabilities, err := s.availabilityRepo.GetApprovedFrom(ctx, dayStart)
	if err != nil {
		return SchedulingResult{}, fmt.Errorf("%w: listing availabilities: %v", ErrStoreUnavailable, err)
	}
	if len(availabilities) == 0 {
		log.Info("no approved availabilities, nothing to schedule")
		return SchedulingResult{}, nil
	}

	booked, err := s.snapshotBookedSlots(ctx, now)
	if err != nil {
		return SchedulingResult{}, fmt.Errorf("%w: snapshotting appointments: %v", ErrStoreUnavailable, err)
	}

	var result SchedulingResult
	for i := range customers {
		customer := &customers[i]

		hasUpcoming, err := s.appointmentRepo.HasUpcoming(ctx, customer.ID, now)
		if err != nil {
			// Per-customer read failure: absorb and keep going, the
			// customer will be picked up by the next run.
			log.Warn("skipping customer, demand check failed",
				zap.String("customer", customer.ID.Hex()), zap.Error(err))
			continue
		}
		if hasUpcoming {
			continue
		}

		if s.scheduleCustomer(ctx, log, cal, customer, availabilities, booked, now) {
			result.AppointmentsCreated++
		} else {
			result.CustomersUnscheduled++
		}
	}

	log.Info("assignment run finished",
		zap.Int("created", result.AppointmentsCreated),
		zap.Int("unscheduled", result.CustomersUnscheduled))
	return result, nil
}

// scheduleCustomer walks supply in order and commits the first free
// slot. Returns false when every availability is exhausted.
func (s *schedulingService) scheduleCustomer(
	ctx context.Context,
	log *zap.Logger,
	cal scheduling.Calendar,
	customer *domain.User,
	availabilities []domain.Availability,
	booked bookedSlots,
	now time.Time,
) bool {
	for i := range availabilities {
		availability := &availabilities[i]
		slots := scheduling.GenerateSlots(cal, *availability, now)

		for _, slot := range slots {
			// Cheap check against the run-local snapshot first.
			if booked.has(availability.CoachID, slot) {
				continue
			}

			// Authoritative re-check immediately before commit.
			exists, err := s.appointmentRepo.ExistsAt(ctx, availability.CoachID, slot)
			if err != nil {
				log.Warn("slot re-check failed, trying next candidate",
					zap.Time("slot", slot), zap.Error(err))
				continue
			}
			if exists {
				booked.add(availability.CoachID, slot)
				continue
			}

			appointment := &domain.Appointment{
				CustomerID: customer.ID,
				CoachID:    availability.CoachID,
				Date:       slot,
				Status:     domain.AppointmentScheduled,
			}
			if _, err := s.appointmentRepo.Create(ctx, appointment); err != nil {
				booked.add(availability.CoachID, slot)
				if errors.Is(err, repository.ErrConflict) {
					// A concurrent run won this slot between the
					// re-check and the write.
					log.Debug("slot conflict on commit, trying next candidate",
						zap.Time("slot", slot), zap.String("coach", availability.CoachID.Hex()))
					continue
				}
				log.Warn("appointment write failed, trying next candidate",
					zap.Time("slot", slot), zap.Error(err))
				continue
			}

			booked.add(availability.CoachID, slot)
			log.Info("appointment created",
				zap.String("customer", customer.ID.Hex()),
				zap.String("coach", availability.CoachID.Hex()),
				zap.Time("slot", slot))
			return true
		}
	}
	return false
}

// === Manual Scheduling ===

// CandidateSlots generates and filters bookable instants for one coach.
func (s *schedulingService) CandidateSlots(ctx context.Context, coachID primitive.ObjectID) ([]time.Time, error) {
	now := s.now()

	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if !coach.IsCoach() {
		return nil, ErrNotCoachRole
	}

	cal, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}

	availabilities, err := s.availabilityRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}

	bookedAppointments, err := s.appointmentRepo.GetByCoachFromDate(ctx, coachID, now)
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]bool, len(bookedAppointments))
	for _, appointment := range bookedAppointments {
		taken[appointment.Date.UnixNano()] = true
	}

	var slots []time.Time
	for i := range availabilities {
		availability := &availabilities[i]
		if availability.Status != domain.AvailabilityApproved {
			continue
		}
		for _, slot := range scheduling.GenerateSlots(cal, *availability, now) {
			if !taken[slot.UnixNano()] {
				slots = append(slots, slot)
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots, nil
}

// ScheduleManual books one explicit slot. The authoritative re-check is
// mandatory here: on conflict the operator must re-fetch candidates.
func (s *schedulingService) ScheduleManual(ctx context.Context, customerID, coachID primitive.ObjectID, slot time.Time) (*domain.Appointment, error) {
	customer, err := s.userRepo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if !customer.IsCustomer() {
		return nil, ErrNotCustomerRole
	}

	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if !coach.IsCoach() {
		return nil, ErrNotCoachRole
	}

	exists, err := s.appointmentRepo.ExistsAt(ctx, coachID, slot)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSlotTaken
	}

	appointment := &domain.Appointment{
		CustomerID: customerID,
		CoachID:    coachID,
		Date:       slot,
		Status:     domain.AppointmentScheduled,
	}
	id, err := s.appointmentRepo.Create(ctx, appointment)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	appointment.ID = id

	s.logger.Info("manual appointment created",
		zap.String("customer", customerID.Hex()),
		zap.String("coach", coachID.Hex()),
		zap.Time("slot", slot))
	return appointment, nil
}

// === Working Hours ===

func (s *schedulingService) GetWorkingHours(ctx context.Context) (domain.WorkingHours, error) {
	return s.settingsRepo.GetWorkingHours(ctx)
}

// UpdateWorkingHours validates and persists new session boundaries, then
// runs a synchronous scheduling pass. A failure of that pass is logged
// only; the settings change itself succeeded.
func (s *schedulingService) UpdateWorkingHours(ctx context.Context, hours domain.WorkingHours) error {
	if _, err := scheduling.NewCalendar(hours); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
	}
	if err := s.settingsRepo.SetWorkingHours(ctx, hours); err != nil {
		return err
	}

	if _, err := s.TriggerScheduling(ctx); err != nil {
		s.logger.Warn("scheduling pass after working-hours change failed", zap.Error(err))
	}
	return nil
}

// loadCalendar builds the session calendar from the persisted working
// hours. A corrupt setting falls back to the default calendar so a bad
// settings write cannot stall scheduling entirely.
func (s *schedulingService) loadCalendar(ctx context.Context) (scheduling.Calendar, error) {
	hours, err := s.settingsRepo.GetWorkingHours(ctx)
	if err != nil {
		return scheduling.Calendar{}, err
	}
	cal, err := scheduling.NewCalendar(hours)
	if err != nil {
		s.logger.Warn("invalid working hours setting, using defaults", zap.Error(err))
		return scheduling.DefaultCalendar(), nil
	}
	return cal, nil
}

// bookedSlots is the run-local snapshot: instant -> set of coaches
// already booked at that instant.
type bookedSlots map[int64]map[primitive.ObjectID]bool

func (b bookedSlots) has(coachID primitive.ObjectID, slot time.Time) bool {
	return b[slot.UnixNano()][coachID]
}

func (b bookedSlots) add(coachID primitive.ObjectID, slot time.Time) {
	key := slot.UnixNano()
	if b[key] == nil {
		b[key] = make(map[primitive.ObjectID]bool)
	}
	b[key][coachID] = true
}

func (s *schedulingService) snapshotBookedSlots(ctx context.Context, now time.Time) (bookedSlots, error) {
	appointments, err := s.appointmentRepo.GetFromDate(ctx, now)
	if err != nil {
		return nil, err
	}
	booked := make(bookedSlots, len(appointments))
	for _, appointment := range appointments {
		booked.add(appointment.CoachID, appointment.Date)
	}
	return booked, nil
}
