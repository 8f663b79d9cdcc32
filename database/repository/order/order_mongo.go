package orderRepo

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

// MongoOrderRepo implements OrderRepository using MongoDB.
type MongoOrderRepo struct {
	coll *mongo.Collection
}

// NewMongoOrderRepo creates a new instance of OrderRepository using MongoDB.
func NewMongoOrderRepo() OrderRepository {
	coll := database.MongoClient.Database("coverly").Collection("orders")
	ensureOrderIndexes(coll)
	return &MongoOrderRepo{coll: coll}
}

func ensureOrderIndexes(coll *mongo.Collection) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "writerId", Value: 1}}},
		{Keys: bson.D{{Key: "providerId", Value: 1}}},
		{Keys: bson.D{{Key: "paymentIntentId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "slaDeadline", Value: 1}}},
	})
}

func (r *MongoOrderRepo) Create(order *models.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *MongoOrderRepo) GetByID(id string) (*models.Order, error) {
	return r.findOne(bson.M{"id": id})
}

func (r *MongoOrderRepo) GetByPaymentIntent(intentID string) (*models.Order, error) {
	return r.findOne(bson.M{"paymentIntentId": intentID})
}

func (r *MongoOrderRepo) findOne(filter bson.M) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var order models.Order
	if err := r.coll.FindOne(ctx, filter).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &order, nil
}

// TransitionStatus is a single conditional update: the filter carries the
// allowed predecessor statuses, so a concurrent transition that got there
// first leaves nothing for this one to match.
func (r *MongoOrderRepo) TransitionStatus(id string, from []models.OrderStatus, to models.OrderStatus, mut models.OrderMutation) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	set := bson.M{"status": to, "updatedAt": time.Now().UTC()}
	if mut.SLADeadline != nil {
		set["slaDeadline"] = *mut.SLADeadline
	}
	if mut.DeliveredAt != nil {
		set["deliveredAt"] = *mut.DeliveredAt
	}
	if mut.TransferID != nil {
		set["transferId"] = *mut.TransferID
	}

	res := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err := res.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			// Either the order does not exist or the precondition failed;
			// callers that care re-fetch to tell the two apart.
			return false, nil
		}
		return false, fmt.Errorf("failed to transition order %s to %s: %w", id, to, err)
	}
	return true, nil
}

func (r *MongoOrderRepo) List(filter OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.WriterID != "" {
		query["writerId"] = filter.WriterID
	}
	if filter.ProviderID != "" {
		query["providerId"] = filter.ProviderID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	updated := bson.M{}
	if !filter.UpdatedFrom.IsZero() {
		updated["$gte"] = filter.UpdatedFrom
	}
	if !filter.UpdatedTo.IsZero() {
		updated["$lt"] = filter.UpdatedTo
	}
	if len(updated) > 0 {
		query["updatedAt"] = updated
	}
	return r.findMany(query)
}

func (r *MongoOrderRepo) ListDeliveredBefore(cutoff time.Time) ([]models.Order, error) {
	return r.findMany(bson.M{
		"status":      models.OrderDelivered,
		"deliveredAt": bson.M{"$lt": cutoff},
	})
}

func (r *MongoOrderRepo) ListSLABreached(now time.Time) ([]models.Order, error) {
	return r.findMany(bson.M{
		"status":      bson.M{"$in": []models.OrderStatus{models.OrderClaimed, models.OrderInProgress}},
		"slaDeadline": bson.M{"$lt": now},
	})
}

func (r *MongoOrderRepo) findMany(query bson.M) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)
	var orders []models.Order
	for cursor.Next(ctx) {
		var o models.Order
		if err := cursor.Decode(&o); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
