package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errFakeStore = errors.New("fake store failure")

// --- fake user repository ---

type fakeUserRepo struct {
	mu       sync.Mutex
	users    []domain.User
	failList bool
}

func (r *fakeUserRepo) add(role domain.Role) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := domain.User{
		ID:        primitive.NewObjectID(),
		FirstName: "Test",
		LastName:  string(role),
		Email:     primitive.NewObjectID().Hex() + "@example.com",
		Role:      role,
		Status:    domain.UserActive,
		CreatedAt: time.Now().UTC(),
	}
	r.users = append(r.users, user)
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	r.users = append(r.users, *user)
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == email {
			user := r.users[i]
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			user := r.users[i]
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errFakeStore
	}
	var out []domain.User
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

// --- fake availability repository ---

type fakeAvailabilityRepo struct {
	mu             sync.Mutex
	availabilities []domain.Availability
	failList       bool
}

func (r *fakeAvailabilityRepo) add(av domain.Availability) domain.Availability {
	r.mu.Lock()
	defer r.mu.Unlock()
	if av.ID == primitive.NilObjectID {
		av.ID = primitive.NewObjectID()
	}
	if av.CreatedAt.IsZero() {
		av.CreatedAt = time.Now().UTC()
	}
	r.availabilities = append(r.availabilities, av)
	return av
}

func (r *fakeAvailabilityRepo) Create(ctx context.Context, av *domain.Availability) (primitive.ObjectID, error) {
	created := r.add(*av)
	return created.ID, nil
}

func (r *fakeAvailabilityRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.availabilities {
		if r.availabilities[i].ID == id {
			av := r.availabilities[i]
			return &av, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAvailabilityRepo) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Availability
	for _, av := range r.availabilities {
		if av.CoachID == coachID {
			out = append(out, av)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) GetByStatus(ctx context.Context, status domain.AvailabilityStatus) ([]domain.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Availability
	for _, av := range r.availabilities {
		if av.Status == status {
			out = append(out, av)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) GetApprovedFrom(ctx context.Context, from time.Time) ([]domain.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errFakeStore
	}
	var out []domain.Availability
	for _, av := range r.availabilities {
		if av.Status == domain.AvailabilityApproved && !av.EndDate.Before(from) {
			out = append(out, av)
		}
	}
	// Stable, documented ordering: earliest startDate first.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartDate.Before(out[j-1].StartDate); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) GetOverlapping(ctx context.Context, coachID primitive.ObjectID, start, end time.Time) ([]domain.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Availability
	for i := range r.availabilities {
		av := r.availabilities[i]
		if av.CoachID != coachID {
			continue
		}
		if av.Status != domain.AvailabilityPending && av.Status != domain.AvailabilityApproved {
			continue
		}
		if av.Overlaps(start, end) {
			out = append(out, av)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AvailabilityStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.availabilities {
		if r.availabilities[i].ID == id {
			r.availabilities[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- fake appointment repository ---

// fakeAppointmentRepo mimics the store's unique (coachId, date) index
// under a mutex, so concurrent runs hit the same conflict semantics as
// the real collection.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments []domain.Appointment
	failCreates  bool
	failReads    bool
}

func (r *fakeAppointmentRepo) add(customerID, coachID primitive.ObjectID, date time.Time) domain.Appointment {
	appointment := domain.Appointment{
		CustomerID: customerID,
		CoachID:    coachID,
		Date:       date,
		Status:     domain.AppointmentScheduled,
	}
	_, err := r.Create(context.Background(), &appointment)
	if err != nil {
		panic("fakeAppointmentRepo.add: " + err.Error())
	}
	return appointment
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, appointment *domain.Appointment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreates {
		return primitive.NilObjectID, errFakeStore
	}
	for _, existing := range r.appointments {
		if existing.CoachID == appointment.CoachID && existing.Date.Equal(appointment.Date) {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	appointment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	r.appointments = append(r.appointments, *appointment)
	return appointment.ID, nil
}

func (r *fakeAppointmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.appointments {
		if r.appointments[i].ID == id {
			appointment := r.appointments[i]
			return &appointment, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAppointmentRepo) GetFromDate(ctx context.Context, from time.Time) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return nil, errFakeStore
	}
	var out []domain.Appointment
	for _, appointment := range r.appointments {
		if !appointment.Date.Before(from) {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) GetByCoachFromDate(ctx context.Context, coachID primitive.ObjectID, from time.Time) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Appointment
	for _, appointment := range r.appointments {
		if appointment.CoachID == coachID && !appointment.Date.Before(from) {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) GetByCustomerID(ctx context.Context, customerID primitive.ObjectID) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Appointment
	for _, appointment := range r.appointments {
		if appointment.CustomerID == customerID {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) HasUpcoming(ctx context.Context, customerID primitive.ObjectID, from time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return false, errFakeStore
	}
	for _, appointment := range r.appointments {
		if appointment.CustomerID == customerID && !appointment.Date.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) ExistsAt(ctx context.Context, coachID primitive.ObjectID, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, appointment := range r.appointments {
		if appointment.CoachID == coachID && appointment.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id, coachID primitive.ObjectID, status domain.AppointmentStatus, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.appointments {
		if r.appointments[i].ID == id && r.appointments[i].CoachID == coachID {
			r.appointments[i].Status = status
			if notes != "" {
				r.appointments[i].Notes = notes
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

// count returns the number of stored appointments.
func (r *fakeAppointmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appointments)
}

// duplicatePairs counts (coachId, date) pairs booked more than once.
func (r *fakeAppointmentRepo) duplicatePairs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]int)
	for _, appointment := range r.appointments {
		seen[appointment.CoachID.Hex()+"|"+appointment.Date.UTC().String()]++
	}
	dups := 0
	for _, n := range seen {
		if n > 1 {
			dups++
		}
	}
	return dups
}

// --- fake settings repository ---

type fakeSettingsRepo struct {
	mu           sync.Mutex
	auto         domain.AutoSchedulingSetting
	workingHours *domain.WorkingHours
	failReads    bool
}

func (r *fakeSettingsRepo) GetAutoScheduling(ctx context.Context) (domain.AutoSchedulingSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return domain.AutoSchedulingSetting{}, errFakeStore
	}
	return r.auto, nil
}

func (r *fakeSettingsRepo) SetAutoScheduling(ctx context.Context, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auto = domain.AutoSchedulingSetting{Enabled: enabled, UpdatedAt: time.Now().UTC()}
	return nil
}

func (r *fakeSettingsRepo) GetWorkingHours(ctx context.Context) (domain.WorkingHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return domain.WorkingHours{}, errFakeStore
	}
	if r.workingHours == nil {
		return domain.DefaultWorkingHours(), nil
	}
	return *r.workingHours, nil
}

func (r *fakeSettingsRepo) SetWorkingHours(ctx context.Context, hours domain.WorkingHours) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workingHours = &hours
	return nil
}

// --- fake scheduling runner ---

type fakeRunner struct {
	mu     sync.Mutex
	runs   int
	result SchedulingResult
	err    error
}

func (r *fakeRunner) TriggerScheduling(ctx context.Context) (SchedulingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	return r.result, r.err
}

func (r *fakeRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}
