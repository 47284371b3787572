package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

const (
	messagesCollection = "inbound_messages"
	reportsCollection  = "delivery_reports"
)

// Repository defines the interface for message and delivery storage.
type Repository interface {
	SaveMessageLog(ctx context.Context, entry models.MessageLog) error
	SaveDeliveryReport(ctx context.Context, report models.DeliveryReport) error
	DeliveryStats(ctx context.Context, since time.Time) (models.DeliveryStats, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := newRepository(client, dbName, logger)
	repo.logger.Info("connected to mongodb", zap.String("database", dbName))
	return repo, nil
}

func newRepository(client *mongo.Client, dbName string, logger *zap.Logger) *MongoDBRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoDBRepository{client: client, dbName: dbName, logger: logger}
}

// SaveMessageLog stores one inbound message with the reply it received.
func (r *MongoDBRepository) SaveMessageLog(ctx context.Context, entry models.MessageLog) error {
	if _, err := r.collection(messagesCollection).InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert message log: %w", err)
	}
	return nil
}

// SaveDeliveryReport stores a delivery report callback.
func (r *MongoDBRepository) SaveDeliveryReport(ctx context.Context, report models.DeliveryReport) error {
	if _, err := r.collection(reportsCollection).InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert delivery report: %w", err)
	}
	return nil
}

// DeliveryStats counts delivery reports per status and inbound messages since the given time.
func (r *MongoDBRepository) DeliveryStats(ctx context.Context, since time.Time) (models.DeliveryStats, error) {
	stats := models.DeliveryStats{Since: since, ByStatus: map[string]int{}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "received_at", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection(reportsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return stats, fmt.Errorf("aggregate delivery reports: %w", err)
	}

	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, fmt.Errorf("decode delivery stats: %w", err)
	}

	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}

	inboundFilter := bson.D{{Key: "received_at", Value: bson.D{{Key: "$gte", Value: since}}}}
	inbound, err := r.collection(messagesCollection).CountDocuments(ctx, inboundFilter)
	if err != nil {
		return stats, fmt.Errorf("count inbound messages: %w", err)
	}
	stats.Inbound = int(inbound)

	invalidFilter := append(inboundFilter, bson.E{Key: "command", Value: models.KindInvalid})
	invalid, err := r.collection(messagesCollection).CountDocuments(ctx, invalidFilter)
	if err != nil {
		return stats, fmt.Errorf("count invalid messages: %w", err)
	}
	stats.Invalid = int(invalid)

	r.logger.Debug("delivery stats computed",
		zap.Time("since", since),
		zap.Int("reports", stats.Total),
		zap.Int("inbound", stats.Inbound),
		zap.Int("invalid", stats.Invalid))
	return stats, nil
}

// Ping verifies the connection is alive.
func (r *MongoDBRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}
