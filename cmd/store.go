package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/nanophoto/nanophoto/internal/storage"
)

const defaultDatabase = "nanophoto"

// newAnalysisStore connects to MongoDB when MONGODB_URI is set and falls
// back to an in-memory store otherwise. The returned cleanup releases the
// connection and is safe to call for either store.
func newAnalysisStore(ctx context.Context) (storage.AnalysisStore, func(), error) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		slog.Info("MONGODB_URI not set, using in-memory analysis store")
		return storage.NewMemoryStore(), func() {}, nil
	}

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = defaultDatabase
	}

	store, err := storage.NewMongoStore(ctx, uri, dbName)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Connected to MongoDB", "database", dbName)
	cleanup := func() {
		if err := store.Close(context.Background()); err != nil {
			slog.Error("Failed to disconnect from MongoDB", "err", err)
		}
	}
	return store, cleanup, nil
}
