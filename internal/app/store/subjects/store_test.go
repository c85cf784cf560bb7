package subjects_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/subjects"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

func seed(t *testing.T) (*docstore.Memory, *subjects.Store) {
	t.Helper()
	ctx := context.Background()
	gw := docstore.NewMemory()
	require.NoError(t, gw.Set(ctx, subjects.CollUsers, "u1", bson.M{"name": "Ana"}))
	require.NoError(t, gw.Set(ctx, subjects.CollLegacyUsers, "u1", bson.M{"name": "Ana (old)"}))
	require.NoError(t, gw.Set(ctx, subjects.CollLegacyUsers, "u2", bson.M{"username": "bo"}))
	require.NoError(t, gw.Set(ctx, subjects.CollRiders, "r1", bson.M{"fullName": "Ren"}))
	return gw, subjects.New(gw)
}

func TestListCollection_UsesCollectionRole(t *testing.T) {
	_, store := seed(t)
	ctx := context.Background()

	legacy, err := store.ListCollection(ctx, subjects.CollLegacyUsers)
	require.NoError(t, err)
	require.Len(t, legacy, 2)
	names := []string{legacy[0].Name, legacy[1].Name}
	assert.ElementsMatch(t, []string{"Ana (old)", "bo"}, names)
	for _, sub := range legacy {
		assert.Equal(t, models.RoleCustomer, sub.Role)
		assert.Equal(t, subjects.CollLegacyUsers, sub.Collection)
	}

	riders, err := store.ListCollection(ctx, subjects.CollRiders)
	require.NoError(t, err)
	require.Len(t, riders, 1)
	assert.Equal(t, models.RoleRider, riders[0].Role)
	assert.Equal(t, "Ren", riders[0].Name)
}

func TestFind_LookupOrder(t *testing.T) {
	_, store := seed(t)
	ctx := context.Background()

	s, err := store.Find(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, subjects.CollUsers, s.Collection)

	s, err = store.Find(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, s.Role)

	_, err = store.Find(ctx, "ghost")
	assert.ErrorIs(t, err, subjects.ErrNotFound)
	_, err = store.Find(ctx, "")
	assert.ErrorIs(t, err, subjects.ErrNotFound)
}

func TestUpdateVerification(t *testing.T) {
	gw, store := seed(t)
	ctx := context.Background()

	rider, err := store.Find(ctx, "r1")
	require.NoError(t, err)
	require.NoError(t, store.UpdateVerification(ctx, rider, models.SubjectVerification{
		Verified:       true,
		Status:         models.SubjectVerified,
		VerificationID: "verified_r1_1",
		StoragePath:    "valid_ids/r1/id/",
		IDType:         "ID",
	}))

	doc, err := gw.Get(ctx, subjects.CollRiders, "r1")
	require.NoError(t, err)
	assert.Equal(t, true, doc.Fields["id_verified"])
	assert.Equal(t, "Verified", doc.Fields["verificationStatus"])
	assert.Equal(t, "verified_r1_1", doc.Fields["verification_id"])
	assert.Equal(t, "valid_ids/r1/id/", doc.Fields["validIdStoragePath"])
	assert.Equal(t, "Ren", doc.Fields["fullName"])

	require.NoError(t, store.UpdateVerification(ctx, rider, models.SubjectVerification{Status: models.SubjectUnverified}))
	doc, err = gw.Get(ctx, subjects.CollRiders, "r1")
	require.NoError(t, err)
	assert.Equal(t, false, doc.Fields["id_verified"])
	assert.Equal(t, "verified_r1_1", doc.Fields["verification_id"], "empty optional fields are untouched")

	err = store.UpdateVerification(ctx, models.Subject{ID: "ghost", Role: models.RoleCustomer}, models.SubjectVerification{})
	assert.ErrorIs(t, err, subjects.ErrNotFound)
}
