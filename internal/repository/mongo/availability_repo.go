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

const availabilityCollectionName = "availabilities"

// mongoAvailabilityRepository implements repository.AvailabilityRepository
type mongoAvailabilityRepository struct {
	collection *mongo.Collection
}

// NewMongoAvailabilityRepository creates a new Availability repository backed by MongoDB.
func NewMongoAvailabilityRepository(db *mongo.Database) repository.AvailabilityRepository {
	return &mongoAvailabilityRepository{
		collection: db.Collection(availabilityCollectionName),
	}
}

// Create inserts a new availability window. New windows always start in
// the pending state; the approval workflow flips the status later.
func (r *mongoAvailabilityRepository) Create(ctx context.Context, availability *domain.Availability) (primitive.ObjectID, error) {
	if availability.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("availability requires coachId")
	}

	availability.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	availability.CreatedAt = now
	availability.UpdatedAt = now
	if availability.Status == "" {
		availability.Status = domain.AvailabilityPending
	}

	result, err := r.collection.InsertOne(ctx, availability)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted availability ID")
	}
	return insertedID, nil
}

// GetByID retrieves an availability by its ID.
func (r *mongoAvailabilityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Availability, error) {
	var availability domain.Availability
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&availability)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &availability, nil
}

// GetByCoachID retrieves all availability windows declared by a coach.
func (r *mongoAvailabilityRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Availability, error) {
	filter := bson.M{"coachId": coachID}
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// GetByStatus retrieves all windows in a given workflow state (admin listing).
func (r *mongoAvailabilityRepository) GetByStatus(ctx context.Context, status domain.AvailabilityStatus) ([]domain.Availability, error) {
	filter := bson.M{"status": status}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// GetApprovedFrom retrieves approved windows still offering supply
// (endDate >= from). Ordering by startDate then creation time makes the
// engine's availability iteration order explicit and reproducible.
func (r *mongoAvailabilityRepository) GetApprovedFrom(ctx context.Context, from time.Time) ([]domain.Availability, error) {
	filter := bson.M{
		"status":  domain.AvailabilityApproved,
		"endDate": bson.M{"$gte": from},
	}
	findOptions := options.Find().SetSort(bson.D{
		{Key: "startDate", Value: 1},
		{Key: "createdAt", Value: 1},
	})
	return r.find(ctx, filter, findOptions)
}

// GetOverlapping retrieves the coach's pending/approved windows whose
// date range intersects [start, end].
func (r *mongoAvailabilityRepository) GetOverlapping(ctx context.Context, coachID primitive.ObjectID, start, end time.Time) ([]domain.Availability, error) {
	filter := bson.M{
		"coachId":   coachID,
		"status":    bson.M{"$in": bson.A{domain.AvailabilityPending, domain.AvailabilityApproved}},
		"startDate": bson.M{"$lte": end},
		"endDate":   bson.M{"$gte": start},
	}
	return r.find(ctx, filter, options.Find())
}

// UpdateStatus flips the workflow state of a window.
func (r *mongoAvailabilityRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AvailabilityStatus) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoAvailabilityRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Availability, error) {
	var availabilities []domain.Availability

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &availabilities); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return availabilities, nil
}

// EnsureAvailabilityIndexes creates necessary indexes for the availabilities collection.
func EnsureAvailabilityIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Supply query: approved windows that have not elapsed
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index(),
		},
		{
			// Overlap check and per-coach listing
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "startDate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
