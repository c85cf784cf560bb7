// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/archive"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/audit"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/verifications"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

Profile collections (Users, users, Riders) belong to the mobile apps and are
left alone; only the collections this console writes are indexed.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string

	if err := ensureVerifications(ctx, db, log); err != nil {
		problems = append(problems, verifications.Collection+": "+err.Error())
	}
	if err := ensureArchive(ctx, db, log); err != nil {
		problems = append(problems, archive.Collection+": "+err.Error())
	}
	if err := audit.New(db).EnsureIndexes(ctx); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool {
	return b != nil && *b
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func existingBySig(ctx context.Context, coll *mongo.Collection, log *zap.Logger) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			log.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// ensureIndexSet makes each desired index exist with its name and uniqueness.
// An index with the same keys but a different name or uniqueness is dropped
// and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	var errs []string
	existing := existingBySig(ctx, coll, log)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)),
		}

		if ex, ok := existing[sig]; ok {
			if isUnique(unique) == isUnique(ex.Unique) && (name == "" || ex.Name == name) {
				log.Debug("reusing existing index", fields...)
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
			log.Info("dropped index to realign name or options", append(fields, zap.String("from", ex.Name))...)
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && isUnique(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			log.Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		log.Info("index ensured", append(fields, zap.String("took", time.Since(start).String()))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureVerifications(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	c := db.Collection(verifications.Collection)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Records of one subject
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_verifications_user"),
		},
		// Queue order: pending first, newest submissions first
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "submitted_at", Value: -1},
			},
			Options: options.Index().SetName("idx_verifications_status_submitted"),
		},
	}, log)
}

func ensureArchive(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	c := db.Collection(archive.Collection)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Archive entries of one workflow record
		{
			Keys:    bson.D{{Key: "original_verification_id", Value: 1}},
			Options: options.Index().SetName("idx_verification_ids_original"),
		},
		// Review history of one subject, newest first
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "reviewed_at", Value: -1},
			},
			Options: options.Index().SetName("idx_verification_ids_user_reviewed"),
		},
	}, log)
}
