package mongodb

import (
	"context"
	"regexp"

	apperrors "url-migrator/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentStore implements the repository.DocumentStore interface using MongoDB
type DocumentStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewDocumentStore connects to MongoDB, verifies the connection with a ping,
// and returns a ready store. No partial state is retained on failure.
func NewDocumentStore(ctx context.Context, uri, dbName string) (*DocumentStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.NewConnectionError("failed to connect to MongoDB").
			WithCause(err).WithComponent("mongodb")
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperrors.NewConnectionError("failed to ping MongoDB").
			WithCause(err).WithComponent("mongodb")
	}

	return &DocumentStore{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// candidateFilter builds the query matching documents where any of the given
// fields contains oldPrefix. The prefix is quoted so every regex
// metacharacter, path separators included, matches literally. Matching is
// case-insensitive.
func candidateFilter(fields []string, oldPrefix string) bson.M {
	pattern := regexp.QuoteMeta(oldPrefix)

	or := make([]bson.M, 0, len(fields))
	for _, field := range fields {
		or = append(or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
	}

	return bson.M{"$or": or}
}

// FindCandidates returns the documents in collection where any of the given
// fields contains oldPrefix as a case-insensitive substring.
func (s *DocumentStore) FindCandidates(ctx context.Context, collection string, fields []string, oldPrefix string) ([]bson.M, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, candidateFilter(fields, oldPrefix))
	if err != nil {
		return nil, apperrors.NewQueryError("failed to query candidate documents").
			WithCause(err).WithComponent("mongodb")
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperrors.NewQueryError("failed to decode candidate document").
				WithCause(err).WithComponent("mongodb")
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewQueryError("candidate cursor failed").
			WithCause(err).WithComponent("mongodb")
	}

	return docs, nil
}

// UpdateDocument sets the given fields on the document with the given
// identifier. It reports whether the stored document was actually modified,
// which is false when a concurrent writer already applied the same content.
func (s *DocumentStore) UpdateDocument(ctx context.Context, collection string, id interface{}, set bson.M) (bool, error) {
	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return false, apperrors.NewUpdateError("failed to update document").
			WithCause(err).WithComponent("mongodb")
	}

	return result.ModifiedCount > 0, nil
}

// Ping verifies the store is reachable.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return apperrors.NewConnectionError("failed to ping MongoDB").
			WithCause(err).WithComponent("mongodb")
	}
	return nil
}

// Close disconnects the underlying client.
func (s *DocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
