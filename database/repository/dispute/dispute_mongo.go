package disputeRepo

import (
	"context"
	"fmt"
	"time"

	"coverly/database"
	"coverly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDisputeRepo implements DisputeRepository using MongoDB.
type MongoDisputeRepo struct {
	coll   *mongo.Collection
	events *mongo.Collection
}

// NewMongoDisputeRepo creates a new instance of DisputeRepository using MongoDB.
func NewMongoDisputeRepo() DisputeRepository {
	db := database.MongoClient.Database("coverly")
	coll := db.Collection("disputes")
	events := db.Collection("dispute_events")
	ensureDisputeIndexes(coll, events)
	return &MongoDisputeRepo{coll: coll, events: events}
}

// ensureDisputeIndexes backs the single-active-dispute invariant with a
// partial unique index: at most one open/under_review dispute per order.
func ensureDisputeIndexes(coll, events *mongo.Collection) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
			"status": bson.M{"$in": []models.DisputeStatus{models.DisputeOpen, models.DisputeUnderReview}},
		}),
	})
	_, _ = events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "disputeId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
}

func (r *MongoDisputeRepo) CreateIfNoActive(dispute *models.Dispute) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, dispute); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrActiveDisputeExists
		}
		return fmt.Errorf("failed to create dispute for order %s: %w", dispute.OrderID, err)
	}
	return nil
}

func (r *MongoDisputeRepo) GetByID(id string) (*models.Dispute, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var dispute models.Dispute
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&dispute); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch dispute with id %s: %w", id, err)
	}
	return &dispute, nil
}

func (r *MongoDisputeRepo) HasActiveForOrder(orderID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"orderId": orderID,
		"status":  bson.M{"$in": []models.DisputeStatus{models.DisputeOpen, models.DisputeUnderReview}},
	})
	if err != nil {
		return false, fmt.Errorf("failed to count active disputes for order %s: %w", orderID, err)
	}
	return count > 0, nil
}

func (r *MongoDisputeRepo) TransitionStatus(id string, from []models.DisputeStatus, to models.DisputeStatus, mut DisputeMutation) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	set := bson.M{"status": to, "updatedAt": time.Now().UTC()}
	if mut.AdminNotes != nil {
		set["adminNotes"] = *mut.AdminNotes
	}
	if mut.RefundAmountCents != nil {
		set["refundAmountCents"] = *mut.RefundAmountCents
	}
	if mut.ResolvedAt != nil {
		set["resolvedAt"] = *mut.ResolvedAt
	}

	res := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err := res.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, fmt.Errorf("failed to transition dispute %s to %s: %w", id, to, err)
	}
	return true, nil
}

func (r *MongoDisputeRepo) List(filter DisputeFilter) ([]models.Dispute, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.OrderID != "" {
		query["orderId"] = filter.OrderID
	}
	if len(filter.OrderIDs) > 0 {
		query["orderId"] = bson.M{"$in": filter.OrderIDs}
	}
	if filter.OpenedBy != "" {
		query["openedBy"] = filter.OpenedBy
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	defer cursor.Close(ctx)
	var disputes []models.Dispute
	for cursor.Next(ctx) {
		var d models.Dispute
		if err := cursor.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode dispute: %w", err)
		}
		disputes = append(disputes, d)
	}
	return disputes, nil
}

func (r *MongoDisputeRepo) AppendEvent(event *models.DisputeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.events.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to append dispute event: %w", err)
	}
	return nil
}

func (r *MongoDisputeRepo) ListEvents(disputeID string) ([]models.DisputeEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cursor, err := r.events.Find(ctx, bson.M{"disputeId": disputeID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list events for dispute %s: %w", disputeID, err)
	}
	defer cursor.Close(ctx)
	var out []models.DisputeEvent
	for cursor.Next(ctx) {
		var e models.DisputeEvent
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode dispute event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
