package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const settingsCollectionName = "settings"

// Well-known settings document IDs.
const (
	autoSchedulingDocID = "autoScheduling"
	workingHoursDocID   = "workingHours"
)

// mongoSettingsRepository implements repository.SettingsRepository.
// Settings live in a single collection keyed by a string _id, mirroring
// the one-document-per-setting layout of the original store.
type mongoSettingsRepository struct {
	collection *mongo.Collection
}

// NewMongoSettingsRepository creates a new Settings repository backed by MongoDB.
func NewMongoSettingsRepository(db *mongo.Database) repository.SettingsRepository {
	return &mongoSettingsRepository{
		collection: db.Collection(settingsCollectionName),
	}
}

// GetAutoScheduling reads the auto-scheduling flag. A missing document
// means the feature was never enabled, not an error.
func (r *mongoSettingsRepository) GetAutoScheduling(ctx context.Context) (domain.AutoSchedulingSetting, error) {
	var setting domain.AutoSchedulingSetting
	err := r.collection.FindOne(ctx, bson.M{"_id": autoSchedulingDocID}).Decode(&setting)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.AutoSchedulingSetting{Enabled: false}, nil
		}
		return domain.AutoSchedulingSetting{}, err
	}
	return setting, nil
}

// SetAutoScheduling persists the auto-scheduling flag (upsert).
func (r *mongoSettingsRepository) SetAutoScheduling(ctx context.Context, enabled bool) error {
	filter := bson.M{"_id": autoSchedulingDocID}
	update := bson.M{"$set": bson.M{
		"enabled":   enabled,
		"updatedAt": time.Now().UTC(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetWorkingHours reads the session boundaries, falling back to the
// defaults when the admin never changed them.
func (r *mongoSettingsRepository) GetWorkingHours(ctx context.Context) (domain.WorkingHours, error) {
	var hours domain.WorkingHours
	err := r.collection.FindOne(ctx, bson.M{"_id": workingHoursDocID}).Decode(&hours)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.DefaultWorkingHours(), nil
		}
		return domain.WorkingHours{}, err
	}
	return hours, nil
}

// SetWorkingHours persists the session boundaries (upsert).
func (r *mongoSettingsRepository) SetWorkingHours(ctx context.Context, hours domain.WorkingHours) error {
	filter := bson.M{"_id": workingHoursDocID}
	update := bson.M{"$set": bson.M{
		"session1Start": hours.Session1Start,
		"session1End":   hours.Session1End,
		"session2Start": hours.Session2Start,
		"session2End":   hours.Session2End,
		"updatedAt":     time.Now().UTC(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
