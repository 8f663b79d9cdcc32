package deliveryRepo

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

// MongoDeliveryRepo implements DeliveryRepository using MongoDB.
type MongoDeliveryRepo struct {
	coll *mongo.Collection
}

// NewMongoDeliveryRepo creates a new instance of DeliveryRepository using MongoDB.
func NewMongoDeliveryRepo() DeliveryRepository {
	coll := database.MongoClient.Database("coverly").Collection("deliveries")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &MongoDeliveryRepo{coll: coll}
}

func (r *MongoDeliveryRepo) Create(delivery *models.Delivery) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, delivery); err != nil {
		return fmt.Errorf("failed to create delivery for order %s: %w", delivery.OrderID, err)
	}
	return nil
}

func (r *MongoDeliveryRepo) GetByOrder(orderID string) (*models.Delivery, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var delivery models.Delivery
	if err := r.coll.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&delivery); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch delivery for order %s: %w", orderID, err)
	}
	return &delivery, nil
}
