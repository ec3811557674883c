package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/scheduling"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newAvailabilityFixture() (*fakeAvailabilityRepo, *fakeRunner, AvailabilityService) {
	avs := &fakeAvailabilityRepo{}
	runner := &fakeRunner{}
	svc := NewAvailabilityService(avs, runner, zap.NewNop())
	return avs, runner, svc
}

func TestCreateAvailability(t *testing.T) {
	_, _, svc := newAvailabilityFixture()
	coachID := primitive.NewObjectID()
	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC)
	days := map[string][]string{"1": {scheduling.Session1}, "3": {scheduling.Session1, scheduling.Session2}}

	availability, err := svc.CreateAvailability(context.Background(), coachID, start, end, days)
	if err != nil {
		t.Fatalf("CreateAvailability: %v", err)
	}
	if availability.ID == primitive.NilObjectID {
		t.Error("created availability has no ID")
	}
	if availability.Status != domain.AvailabilityPending {
		t.Errorf("status = %q, want pending", availability.Status)
	}
}

func TestCreateAvailability_Validation(t *testing.T) {
	_, _, svc := newAvailabilityFixture()
	coachID := primitive.NewObjectID()
	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC)
	days := map[string][]string{"1": {scheduling.Session1}}

	if _, err := svc.CreateAvailability(context.Background(), coachID, end, start, days); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("inverted range err = %v, want ErrInvalidDateRange", err)
	}
	bad := map[string][]string{"7": {scheduling.Session1}}
	if _, err := svc.CreateAvailability(context.Background(), coachID, start, end, bad); !errors.Is(err, ErrInvalidDaySelection) {
		t.Errorf("weekday 7 err = %v, want ErrInvalidDaySelection", err)
	}
	bad = map[string][]string{"1": {"session9"}}
	if _, err := svc.CreateAvailability(context.Background(), coachID, start, end, bad); !errors.Is(err, ErrInvalidDaySelection) {
		t.Errorf("unknown session err = %v, want ErrInvalidDaySelection", err)
	}
}

func TestCreateAvailability_RejectsOverlap(t *testing.T) {
	_, _, svc := newAvailabilityFixture()
	coachID := primitive.NewObjectID()
	days := map[string][]string{"1": {scheduling.Session1}}

	first := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if _, err := svc.CreateAvailability(context.Background(), coachID, first(2024, 2, 1), first(2024, 2, 14), days); err != nil {
		t.Fatalf("first window: %v", err)
	}

	// Overlaps the existing pending window by one day.
	if _, err := svc.CreateAvailability(context.Background(), coachID, first(2024, 2, 14), first(2024, 2, 28), days); !errors.Is(err, ErrOverlappingWindow) {
		t.Fatalf("err = %v, want ErrOverlappingWindow", err)
	}

	// A different coach may cover the same dates.
	if _, err := svc.CreateAvailability(context.Background(), primitive.NewObjectID(), first(2024, 2, 1), first(2024, 2, 14), days); err != nil {
		t.Fatalf("other coach same dates: %v", err)
	}

	// Disjoint follow-up window for the same coach is fine.
	if _, err := svc.CreateAvailability(context.Background(), coachID, first(2024, 2, 15), first(2024, 2, 28), days); err != nil {
		t.Fatalf("disjoint window: %v", err)
	}
}

func TestApprove_RunsSchedulingPass(t *testing.T) {
	avs, runner, svc := newAvailabilityFixture()
	av := avs.add(domain.Availability{
		CoachID:      primitive.NewObjectID(),
		StartDate:    time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC),
		SelectedDays: map[string][]string{"1": {scheduling.Session1}},
		Status:       domain.AvailabilityPending,
	})

	approved, err := svc.Approve(context.Background(), av.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != domain.AvailabilityApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}
	if runner.runCount() != 1 {
		t.Errorf("scheduling passes = %d, want 1", runner.runCount())
	}

	// Only pending windows may transition.
	if _, err := svc.Approve(context.Background(), av.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second approve err = %v, want ErrNotPending", err)
	}
}

func TestApprove_SurvivesFailedSchedulingPass(t *testing.T) {
	avs, runner, svc := newAvailabilityFixture()
	runner.err = ErrStoreUnavailable
	av := avs.add(domain.Availability{
		CoachID:      primitive.NewObjectID(),
		StartDate:    time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC),
		SelectedDays: map[string][]string{"1": {scheduling.Session1}},
		Status:       domain.AvailabilityPending,
	})

	approved, err := svc.Approve(context.Background(), av.ID)
	if err != nil {
		t.Fatalf("Approve must not surface the pass failure, got %v", err)
	}
	if approved.Status != domain.AvailabilityApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}
}

func TestReject(t *testing.T) {
	avs, runner, svc := newAvailabilityFixture()
	av := avs.add(domain.Availability{
		CoachID:      primitive.NewObjectID(),
		StartDate:    time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC),
		SelectedDays: map[string][]string{"1": {scheduling.Session1}},
		Status:       domain.AvailabilityPending,
	})

	rejected, err := svc.Reject(context.Background(), av.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != domain.AvailabilityRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
	if runner.runCount() != 0 {
		t.Errorf("rejection ran %d scheduling passes, want 0", runner.runCount())
	}

	if _, err := svc.Reject(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrAvailabilityNotFound) {
		t.Fatalf("unknown id err = %v, want ErrAvailabilityNotFound", err)
	}
}
