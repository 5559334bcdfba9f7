package repository

import (
	"context"
	"fmt"
	"time"

	"salonbliss/pkg/config"
	"salonbliss/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reminders"
)

type mongoReminderRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type ReminderRepository interface {
	Insert(ctx context.Context, reminder *model.Reminder) error
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error)
	RequeueStale(ctx context.Context, olderThan time.Time) (int64, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
}

func NewMongoReminderRepository(cfg *config.Config) ReminderRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoReminderRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoReminderRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoReminderRepository) Insert(ctx context.Context, reminder *model.Reminder) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	reminder.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, reminder)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reminder.ID = oid.Hex()
	}
	return nil
}

// ClaimDue atomically moves up to limit due pending reminders to "sending"
// and returns them. Each reminder is claimed by exactly one worker pass.
func (r *mongoReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	claimed := make([]*model.Reminder, 0, limit)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for len(claimed) < limit {
		filter := bson.M{
			"status": model.ReminderPending,
			"due_at": bson.M{"$lte": now},
		}
		update := bson.M{"$set": bson.M{
			"status":     model.ReminderSending,
			"claimed_at": now,
		}}

		var reminder model.Reminder
		err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&reminder)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				break
			}
			return claimed, fmt.Errorf("failed to claim reminder: %w", err)
		}
		claimed = append(claimed, &reminder)
	}

	return claimed, nil
}

// RequeueStale returns reminders stuck in "sending" to "pending". A claim goes
// stale when the worker dies between claiming and marking sent or failed.
func (r *mongoReminderRepository) RequeueStale(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"status":     model.ReminderSending,
		"claimed_at": bson.M{"$lt": olderThan},
	}
	update := bson.M{
		"$set":   bson.M{"status": model.ReminderPending},
		"$unset": bson.M{"claimed_at": ""},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale reminders: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoReminderRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	return r.setStatus(ctx, id, bson.M{"status": model.ReminderSent, "sent_at": sentAt})
}

func (r *mongoReminderRepository) MarkFailed(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, bson.M{"status": model.ReminderFailed})
}

func (r *mongoReminderRepository) setStatus(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid reminder ID: %s", id)
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update reminder status: %w", err)
	}
	return nil
}
