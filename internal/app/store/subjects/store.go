// internal/app/store/subjects/store.go
package subjects

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/evidence"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// Profile collections.
const (
	CollUsers       = "Users"
	CollLegacyUsers = "users"
	CollRiders      = "Riders"
)

// ErrNotFound is returned when no profile collection holds the id.
var ErrNotFound = errors.New("subject not found")

// lookupOrder is the order Find searches collections in.
var lookupOrder = []string{CollUsers, CollLegacyUsers, CollRiders}

// Collections returns the profile collections owned by a role, primary first.
func Collections(role models.Role) []string {
	if role == models.RoleRider {
		return []string{CollRiders}
	}
	return []string{CollUsers, CollLegacyUsers}
}

// RoleOf returns the role that owns a profile collection.
func RoleOf(collection string) models.Role {
	if collection == CollRiders {
		return models.RoleRider
	}
	return models.RoleCustomer
}

// Store reads and updates customer and rider profiles.
type Store struct {
	gw docstore.Gateway
}

// New creates a Store over gw.
func New(gw docstore.Gateway) *Store {
	return &Store{gw: gw}
}

// ListCollection returns every profile in one collection, normalized.
func (s *Store) ListCollection(ctx context.Context, collection string) ([]models.Subject, error) {
	docs, err := s.gw.GetAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	role := RoleOf(collection)
	out := make([]models.Subject, 0, len(docs))
	for _, d := range docs {
		out = append(out, evidence.NormalizeSubject(d.ID, d.Fields, role, collection))
	}
	return out, nil
}

// Find looks id up in Users, then users, then Riders.
func (s *Store) Find(ctx context.Context, id string) (models.Subject, error) {
	if id == "" {
		return models.Subject{}, ErrNotFound
	}
	for _, coll := range lookupOrder {
		d, err := s.gw.Get(ctx, coll, id)
		if docstore.IsNotFound(err) {
			continue
		}
		if err != nil {
			return models.Subject{}, fmt.Errorf("find subject %s in %s: %w", id, coll, err)
		}
		return evidence.NormalizeSubject(d.ID, d.Fields, RoleOf(coll), coll), nil
	}
	return models.Subject{}, ErrNotFound
}

// UpdateVerification writes the denormalized verification fields onto the
// subject's own profile document. Empty optional fields are left untouched.
func (s *Store) UpdateVerification(ctx context.Context, sub models.Subject, v models.SubjectVerification) error {
	patch := bson.M{
		"id_verified":        v.Verified,
		"verificationStatus": v.Status,
	}
	if v.VerificationID != "" {
		patch["verification_id"] = v.VerificationID
	}
	if v.StoragePath != "" {
		patch[evidence.StoragePathField(sub.Role)] = v.StoragePath
	}
	if v.IDType != "" {
		patch["id_type"] = v.IDType
	}

	coll := sub.Collection
	if coll == "" {
		coll = Collections(sub.Role)[0]
	}
	if err := s.gw.Update(ctx, coll, sub.ID, patch); err != nil {
		if docstore.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update subject %s in %s: %w", sub.ID, coll, err)
	}
	return nil
}
