package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/archive"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

func TestID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "verified_v1_1700000000123", archive.ID(models.ActionApprove, "v1", at))
	assert.Equal(t, "rejected_v1_1700000000123", archive.ID(models.ActionReject, "v1", at))
	assert.Equal(t, "unverified_v1_1700000000123", archive.ID(models.ActionUnverify, "v1", at))
	assert.NotEqual(t, archive.ID(models.ActionReject, "v1", at), archive.ID(models.ActionReject, "v1", at.Add(time.Millisecond)),
		"actions a millisecond apart get distinct ids")
}

func TestAppend_NeverOverwrites(t *testing.T) {
	ctx := context.Background()
	gw := docstore.NewMemory()
	store := archive.New(gw)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	e := models.ArchiveEntry{
		ID:                     "verified_v1_1",
		OriginalVerificationID: "v1",
		UserID:                 "u1",
		Status:                 models.StatusApproved,
		ApprovedBy:             "admin1",
		ReviewedAt:             at,
		CreatedAt:              at,
	}
	e.Snapshot(models.Evidence{IDFront: "f.jpg", VehicleRegFront: "orcr.jpg", IDType: "Valid ID"})

	created, err := store.Append(ctx, e)
	require.NoError(t, err)
	assert.True(t, created)

	e.ApprovedBy = "someone-else"
	created, err = store.Append(ctx, e)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := store.Get(ctx, "verified_v1_1")
	require.NoError(t, err)
	assert.Equal(t, "admin1", got.ApprovedBy)
	assert.Equal(t, "f.jpg", got.FrontImage)
	assert.Equal(t, "orcr.jpg", got.VehicleRegFront)
	assert.Equal(t, "Valid ID", got.IDType)
	assert.True(t, got.ReviewedAt.Equal(at))
	assert.Len(t, gw.Writes(), 1)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	gw := docstore.NewMemory()
	require.NoError(t, gw.Set(ctx, archive.Collection, "a", bson.M{"user_id": "u1", "status": "approved", "reviewed_at": time.Unix(100, 0)}))
	require.NoError(t, gw.Set(ctx, archive.Collection, "b", bson.M{"user_id": "u1", "status": "rejected", "reviewed_at": time.Unix(200, 0)}))
	require.NoError(t, gw.Set(ctx, archive.Collection, "c", bson.M{"user_id": "u2", "status": "approved"}))

	entries, err := archive.New(gw).List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	byID := map[string]models.ArchiveEntry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	assert.Equal(t, models.StatusRejected, byID["b"].Status)
	assert.Equal(t, "u2", byID["c"].UserID)

	ok, err := archive.New(gw).Exists(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = archive.New(gw).Exists(ctx, "zzz")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_CreatedAtPrefersCreationTime(t *testing.T) {
	ctx := context.Background()
	gw := docstore.NewMemory()
	submitted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, gw.Set(ctx, archive.Collection, "legacy", bson.M{
		"user_id":      "u1",
		"status":       "approved",
		"submitted_at": submitted,
		"created_at":   created,
	}))
	require.NoError(t, gw.Set(ctx, archive.Collection, "older", bson.M{
		"user_id":      "u1",
		"status":       "rejected",
		"submitted_at": submitted,
	}))

	store := archive.New(gw)
	got, err := store.Get(ctx, "legacy")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created), "got %v", got.CreatedAt)

	got, err = store.Get(ctx, "older")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(submitted), "submission time is the fallback")
}
