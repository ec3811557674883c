package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const appointmentCollectionName = "appointments"

// mongoAppointmentRepository implements repository.AppointmentRepository
type mongoAppointmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAppointmentRepository creates a new Appointment repository backed by MongoDB.
func NewMongoAppointmentRepository(db *mongo.Database) repository.AppointmentRepository {
	return &mongoAppointmentRepository{
		collection: db.Collection(appointmentCollectionName),
	}
}

// Create inserts a new appointment. The unique (coachId, date) index is
// what actually closes the race between concurrent scheduling runs: a
// second writer for the same slot gets a duplicate-key error, surfaced
// here as repository.ErrConflict.
func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *domain.Appointment) (primitive.ObjectID, error) {
	if appointment.CustomerID == primitive.NilObjectID ||
		appointment.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("appointment requires customerId and coachId")
	}
	if appointment.Date.IsZero() {
		return primitive.NilObjectID, errors.New("appointment requires a date")
	}

	appointment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	if appointment.Status == "" {
		appointment.Status = domain.AppointmentScheduled
	}

	result, err := r.collection.InsertOne(ctx, appointment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted appointment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an appointment by its ID.
func (r *mongoAppointmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

// GetFromDate retrieves all appointments at or after the given instant.
// The assignment engine snapshots booked slots from this at the start of
// a run.
func (r *mongoAppointmentRepository) GetFromDate(ctx context.Context, from time.Time) ([]domain.Appointment, error) {
	filter := bson.M{"date": bson.M{"$gte": from}}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// GetByCoachFromDate retrieves a coach's appointments at or after the
// given instant, earliest first.
func (r *mongoAppointmentRepository) GetByCoachFromDate(ctx context.Context, coachID primitive.ObjectID, from time.Time) ([]domain.Appointment, error) {
	filter := bson.M{
		"coachId": coachID,
		"date":    bson.M{"$gte": from},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// GetByCustomerID retrieves all appointments for a customer, newest first.
func (r *mongoAppointmentRepository) GetByCustomerID(ctx context.Context, customerID primitive.ObjectID) ([]domain.Appointment, error) {
	filter := bson.M{"customerId": customerID}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return r.find(ctx, filter, findOptions)
}

// HasUpcoming reports whether the customer holds any appointment at or
// after the given instant.
func (r *mongoAppointmentRepository) HasUpcoming(ctx context.Context, customerID primitive.ObjectID, from time.Time) (bool, error) {
	filter := bson.M{
		"customerId": customerID,
		"date":       bson.M{"$gte": from},
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsAt reports whether the coach already has an appointment at that
// exact instant. This is the authoritative re-check run immediately
// before committing a booking.
func (r *mongoAppointmentRepository) ExistsAt(ctx context.Context, coachID primitive.ObjectID, date time.Time) (bool, error) {
	filter := bson.M{
		"coachId": coachID,
		"date":    date,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus records a coach's outcome for a session (completed or
// missed) along with optional notes. The coachId filter keeps a coach
// from touching another coach's appointments.
func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id, coachID primitive.ObjectID, status domain.AppointmentStatus, notes string) error {
	filter := bson.M{"_id": id, "coachId": coachID}
	updateFields := bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}
	if notes != "" {
		updateFields["notes"] = notes
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": updateFields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoAppointmentRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Appointment, error) {
	var appointments []domain.Appointment

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return appointments, nil
}

// EnsureAppointmentIndexes creates necessary indexes for the appointments collection.
func EnsureAppointmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One booking per coach per slot. This index is load-bearing:
			// the scheduler's conditional-write discipline depends on it.
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Derived demand state: does the customer have an upcoming booking
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
		{
			// Snapshot query at the start of an assignment run
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
