package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/nanophoto/nanophoto/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const analysesCollection = "analyses"

// MongoStore persists analyses in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection, and ensures
// the unique index on analysis ids.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetServerSelectionTimeout(5 * time.Second).
		SetSocketTimeout(45 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	collection := client.Database(dbName).Collection(analysesCollection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "analysisId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis id index: %w", err)
	}

	return &MongoStore{client: client, collection: collection}, nil
}

// Close disconnects from the database.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Create(ctx context.Context, analysis *models.Analysis) error {
	_, err := s.collection.InsertOne(ctx, analysis)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, analysisID string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := s.collection.FindOne(ctx, bson.M{"analysisId": analysisID}).Decode(&analysis)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analysis: %w", err)
	}
	return &analysis, nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string) ([]models.AnalysisSummary, error) {
	opts := options.Find().
		SetProjection(bson.M{
			"analysisId":           1,
			"image":                1,
			"createdAt":            1,
			"judgement.imageTitle": 1,
			"judgement.verdict":    1,
		}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := make([]models.AnalysisSummary, 0)
	for cursor.Next(ctx) {
		var analysis models.Analysis
		if err := cursor.Decode(&analysis); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
		summaries = append(summaries, analysis.Summary())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return summaries, nil
}
