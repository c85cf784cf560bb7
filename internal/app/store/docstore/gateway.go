// internal/app/store/docstore/gateway.go
package docstore

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by Get and Update when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Doc is one stored document: its key plus its fields. Fields never contains _id.
type Doc struct {
	ID     string
	Fields bson.M
}

// Gateway is key/document access to a schema-less store.
//
// Writes are not transactional across collections. Set replaces the whole
// document (creating it when missing); Update merges the given fields into an
// existing document.
type Gateway interface {
	GetAll(ctx context.Context, collection string) ([]Doc, error)
	Get(ctx context.Context, collection, id string) (Doc, error)
	Set(ctx context.Context, collection, id string, data bson.M) error
	Update(ctx context.Context, collection, id string, data bson.M) error
	Delete(ctx context.Context, collection, id string) (bool, error)
}

// Encode converts a bson-tagged value into a document field map.
func Encode(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	delete(m, "_id")
	return m, nil
}

// Decode fills a bson-tagged value from a document field map.
func Decode(fields bson.M, v any) error {
	raw, err := bson.Marshal(fields)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := bson.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// idString renders a stored _id as the string key callers use.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// splitID removes _id from a raw document and returns it as a Doc.
func splitID(raw bson.M) Doc {
	fields := maps.Clone(raw)
	id := idString(fields["_id"])
	delete(fields, "_id")
	if fields == nil {
		fields = bson.M{}
	}
	return Doc{ID: id, Fields: fields}
}
