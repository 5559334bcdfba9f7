package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "salonbliss/internal/bookings/errors"
	"salonbliss/pkg/config"
	mongotx "salonbliss/pkg/db/mongo"
	"salonbliss/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

// ConfirmUpdate carries the terminal-state fields a reconciliation path wants
// to write on a booking.
type ConfirmUpdate struct {
	Status          string
	PaymentStatus   string
	PaymentMethod   string
	StripePaymentID string
}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	CountBySlot(ctx context.Context, serviceID string, date string, timeSlot string) (int64, error)
	CountsByServiceAndDate(ctx context.Context, serviceID string, date string) (map[string]int64, error)
	SetPaymentIntent(ctx context.Context, id string, intentID string) error
	ConfirmOnce(ctx context.Context, id string, upd ConfirmUpdate) (bool, *model.Booking, error)
	MarkPaymentFailed(ctx context.Context, id string, stripePaymentID string) (*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel, as wrapping a SessionContext breaks
// transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time_slot", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// CountBySlot counts bookings occupying one slot. Every booking holds its
// seat regardless of status.
func (r *mongoBookingRepository) CountBySlot(ctx context.Context, serviceID string, date string, timeSlot string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"service_id": serviceID,
		"date":       date,
		"time_slot":  timeSlot,
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// CountsByServiceAndDate returns per-slot occupancy for one service day.
func (r *mongoBookingRepository) CountsByServiceAndDate(ctx context.Context, serviceID string, date string) (map[string]int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"service_id": serviceID,
			"date":       date,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$time_slot",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate slot counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Slot  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode slot counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Slot] = row.Count
	}
	return counts, nil
}

func (r *mongoBookingRepository) SetPaymentIntent(ctx context.Context, id string, intentID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"payment_intent_id": intentID,
		"payment_method":    model.MethodStripe,
		"payment_status":    model.PaymentPending,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

// ConfirmOnce applies a terminal confirmation exactly once. The first caller
// flips confirmation_sent and gets first=true; later callers re-assert the
// same terminal fields idempotently and get first=false. Both receive the
// booking as stored after their write.
func (r *mongoBookingRepository) ConfirmOnce(ctx context.Context, id string, upd ConfirmUpdate) (bool, *model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":         upd.Status,
		"payment_status": upd.PaymentStatus,
		"payment_method": upd.PaymentMethod,
	}
	if upd.StripePaymentID != "" {
		set["stripe_payment_id"] = upd.StripePaymentID
	}

	claim := bson.M{"_id": objectID, "confirmation_sent": bson.M{"$ne": true}}
	claimSet := bson.M{"confirmation_sent": true}
	for k, v := range set {
		claimSet[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, claim, bson.M{"$set": claimSet})
	if err != nil {
		return false, nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	first := result.MatchedCount == 1
	if !first {
		if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}); err != nil {
			return false, nil, fmt.Errorf("failed to confirm booking: %w", err)
		}
	}

	booking, err := r.FindByID(ctx, id)
	if err != nil {
		return false, nil, err
	}
	return first, booking, nil
}

func (r *mongoBookingRepository) MarkPaymentFailed(ctx context.Context, id string, stripePaymentID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":         model.StatusPaymentFailed,
		"payment_status": model.PaymentFailed,
	}
	if stripePaymentID != "" {
		set["stripe_payment_id"] = stripePaymentID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to mark booking failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, bookingserrors.ErrNotFound
	}

	return r.FindByID(ctx, id)
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
