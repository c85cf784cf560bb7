// internal/app/store/docstore/mongo.go
package docstore

import (
	"context"
	"errors"
	"maps"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the Gateway backed by a MongoDB database.
//
// Documents are keyed by string _id. Documents created by other tools with an
// ObjectID _id are still found by their hex string.
type Mongo struct {
	db *mongo.Database
}

// NewMongo creates a Gateway over db.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// idFilter matches a document whose _id is either the string id or the
// ObjectID it spells.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// GetAll returns every document in the collection.
func (s *Mongo) GetAll(ctx context.Context, collection string) ([]Doc, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, err
	}
	docs := make([]Doc, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, splitID(raw))
	}
	return docs, nil
}

// Get loads one document. Returns ErrNotFound when it does not exist.
func (s *Mongo) Get(ctx context.Context, collection, id string) (Doc, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, idFilter(id)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, err
	}
	return splitID(raw), nil
}

// Set replaces the document, creating it under the string id when missing.
func (s *Mongo) Set(ctx context.Context, collection, id string, data bson.M) error {
	doc := maps.Clone(data)
	if doc == nil {
		doc = bson.M{}
	}
	delete(doc, "_id")

	c := s.db.Collection(collection)
	res, err := c.ReplaceOne(ctx, idFilter(id), doc)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	_, err = c.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

// Update merges data into an existing document. Returns ErrNotFound when the
// document does not exist.
func (s *Mongo) Update(ctx context.Context, collection, id string, data bson.M) error {
	set := maps.Clone(data)
	delete(set, "_id")
	if len(set) == 0 {
		return nil
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, idFilter(id), bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document and reports whether it existed.
func (s *Mongo) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.db.Collection(collection).DeleteOne(ctx, idFilter(id))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
