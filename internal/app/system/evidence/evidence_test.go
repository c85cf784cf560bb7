package evidence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/evidence"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

var clock = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestLookup_PriorityAndBlanks(t *testing.T) {
	rec := bson.M{
		"validIdFrontUrl": "  ",
		"front_image":     "https://img/front.jpg",
		"frontUrl":        "https://img/other.jpg",
	}
	assert.Equal(t, "https://img/front.jpg", evidence.Lookup(rec, evidence.FieldIDFront, models.RoleCustomer))
	assert.Equal(t, "", evidence.Lookup(rec, evidence.FieldIDBack, models.RoleCustomer))
	assert.Len(t, rec, 3, "lookup must not mutate the record")
}

func TestLookup_RoleSpecificAliases(t *testing.T) {
	rec := bson.M{"verification_license_front": "lic.jpg", "verification_orcr1": "orcr.jpg"}

	assert.Equal(t, "lic.jpg", evidence.Lookup(rec, evidence.FieldIDFront, models.RoleRider))
	assert.Equal(t, "orcr.jpg", evidence.Lookup(rec, evidence.FieldVehicleRegFront, models.RoleRider))

	assert.Empty(t, evidence.Lookup(rec, evidence.FieldIDFront, models.RoleCustomer))
	assert.Empty(t, evidence.Lookup(rec, evidence.FieldVehicleRegFront, models.RoleCustomer))
}

func TestNormalize_IDType(t *testing.T) {
	t.Run("implied by alias", func(t *testing.T) {
		ev := evidence.Normalize(bson.M{"seniorIdFrontUrl": "f.jpg"}, models.RoleCustomer)
		assert.Equal(t, "Senior ID", ev.IDType)
		assert.Equal(t, "f.jpg", ev.IDFront)
	})
	t.Run("explicit field wins", func(t *testing.T) {
		ev := evidence.Normalize(bson.M{"validIdFrontUrl": "f.jpg", "id_type": "Passport"}, models.RoleCustomer)
		assert.Equal(t, "Passport", ev.IDType)
	})
	t.Run("back alias implies when front is generic", func(t *testing.T) {
		ev := evidence.Normalize(bson.M{"front_image": "f.jpg", "validIdBackUrl": "b.jpg"}, models.RoleCustomer)
		assert.Equal(t, "Valid ID", ev.IDType)
	})
	t.Run("unknown", func(t *testing.T) {
		ev := evidence.Normalize(bson.M{"front_image": "f.jpg"}, models.RoleCustomer)
		assert.Empty(t, ev.IDType)
	})
}

func TestNormalizeSubject(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fields := bson.M{
		"fullName":           "Rider Ren",
		"name":               "ren",
		"contactNumber":      "0917",
		"id_verified":        "yes",
		"created_at":         primitive.NewDateTimeFromTime(created),
		"plateNumber":        "ABC 123",
		"vehicle_type":       "motorcycle",
		"rating":             "4.5",
		"completedRides":     int32(12),
		"fcmToken":           "tok",
		"verification_orcr2": "orcr-back.jpg",
	}
	s := evidence.NormalizeSubject("r1", fields, models.RoleRider, "Riders")

	assert.Equal(t, "Rider Ren", s.Name)
	assert.Equal(t, "0917", s.Phone)
	assert.True(t, s.Verified)
	assert.True(t, s.CreatedAt.Equal(created))
	assert.Equal(t, "orcr-back.jpg", s.Evidence.VehicleRegBack)
	require.NotNil(t, s.Rider)
	assert.Equal(t, "ABC 123", s.Rider.LicensePlate)
	assert.Equal(t, "motorcycle", s.Rider.VehicleType)
	assert.InDelta(t, 4.5, s.Rider.Rating, 0.0001)
	assert.EqualValues(t, 12, s.Rider.TotalTrips)
	assert.Equal(t, bson.M{"fcmToken": "tok"}, s.Extra)

	c := evidence.NormalizeSubject("u1", bson.M{"username": "cust"}, models.RoleCustomer, "Users")
	assert.Equal(t, "cust", c.Name)
	assert.Nil(t, c.Rider)
	assert.Nil(t, c.Extra)
}

func TestBool(t *testing.T) {
	for _, v := range []any{true, "true", "TRUE", "1", "yes", "on", 1, int32(2), int64(-1), 0.5} {
		assert.True(t, evidence.Bool(v), "%#v", v)
	}
	for _, v := range []any{false, "false", "0", "", "no", "off", "maybe", 0, 0.0, nil, bson.M{}} {
		assert.False(t, evidence.Bool(v), "%#v", v)
	}
}

func TestTime(t *testing.T) {
	want := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	cases := map[string]any{
		"datetime":    primitive.NewDateTimeFromTime(want),
		"time":        want,
		"rfc3339":     "2024-03-04T05:06:07Z",
		"sql":         "2024-03-04 05:06:07",
		"unix":        want.Unix(),
		"unix millis": want.UnixMilli(),
		"exporter":    bson.M{"_seconds": want.Unix(), "_nanoseconds": 0},
	}
	for name, v := range cases {
		got, ok := evidence.Time(v)
		require.True(t, ok, name)
		assert.True(t, got.Equal(want), "%s: got %v", name, got)
	}

	_, ok := evidence.Time("not a date")
	assert.False(t, ok)
	_, ok = evidence.Time(nil)
	assert.False(t, ok)
}

func TestStoragePath(t *testing.T) {
	assert.Equal(t, "valid_ids/r123/valid id/", evidence.StoragePath(models.RoleRider, "r123", "Valid ID"))
	assert.Equal(t, "verification_ids/u1/senior id/", evidence.StoragePath(models.RoleCustomer, "u1", "Senior ID"))
	assert.Equal(t, "verification_ids/u1/id/", evidence.StoragePath(models.RoleCustomer, "u1", ""))
	assert.NotEqual(t, evidence.EvidenceRoot(models.RoleCustomer), evidence.EvidenceRoot(models.RoleRider))
}

func TestExtract_PresenceRule(t *testing.T) {
	t.Run("id front alone is pending", func(t *testing.T) {
		s := evidence.NormalizeSubject("u1", bson.M{"name": "Ana", "idFrontUrl": "f.jpg"}, models.RoleCustomer, "Users")
		it, ok := evidence.Extract(s, clock)
		require.True(t, ok)
		assert.Equal(t, models.StatusPending, it.Status)
		assert.Equal(t, "u1", it.SubjectID)
		assert.Equal(t, models.SourceProfile, it.Source)
		assert.Equal(t, evidence.DefaultIDType, it.IDType)
		assert.Equal(t, "verification_ids/u1/id/", it.StoragePath)
		assert.True(t, it.SubmittedAt.Equal(clock))
		assert.Equal(t, "Ana", it.DisplayName)
	})

	t.Run("selfie alone is excluded", func(t *testing.T) {
		s := evidence.NormalizeSubject("u2", bson.M{"name": "Bo", "selfie": "s.jpg", "profileImageUrl": "p.jpg"}, models.RoleCustomer, "Users")
		_, ok := evidence.Extract(s, clock)
		assert.False(t, ok)
	})

	t.Run("verified flag alone qualifies", func(t *testing.T) {
		s := evidence.NormalizeSubject("u3", bson.M{"name": "Cy", "id_verified": true}, models.RoleCustomer, "Users")
		it, ok := evidence.Extract(s, clock)
		require.True(t, ok)
		assert.Equal(t, models.StatusApproved, it.Status)
	})

	t.Run("rider pending status qualifies", func(t *testing.T) {
		s := evidence.NormalizeSubject("r1", bson.M{"fullName": "Di", "verificationStatus": "PENDING"}, models.RoleRider, "Riders")
		it, ok := evidence.Extract(s, clock)
		require.True(t, ok)
		assert.Equal(t, models.StatusPending, it.Status)
		assert.Equal(t, "valid_ids/r1/id/", it.StoragePath)
	})

	t.Run("rider rejected status", func(t *testing.T) {
		s := evidence.NormalizeSubject("r2", bson.M{"fullName": "Ed", "verification_license_front": "l.jpg", "verificationStatus": "REJECTED"}, models.RoleRider, "Riders")
		it, ok := evidence.Extract(s, clock)
		require.True(t, ok)
		assert.Equal(t, models.StatusRejected, it.Status)
	})

	t.Run("customer status label is ignored", func(t *testing.T) {
		for _, label := range []string{"Rejected", "APPROVED", "Verified"} {
			s := evidence.NormalizeSubject("u5", bson.M{"name": "Gil", "validIdFrontUrl": "f.jpg", "id_verified": false, "verificationStatus": label}, models.RoleCustomer, "Users")
			it, ok := evidence.Extract(s, clock)
			require.True(t, ok, label)
			assert.Equal(t, models.StatusPending, it.Status, label)
		}
	})

	t.Run("customer pending status alone does not qualify", func(t *testing.T) {
		s := evidence.NormalizeSubject("u6", bson.M{"name": "Hal", "verificationStatus": "PENDING"}, models.RoleCustomer, "Users")
		_, ok := evidence.Extract(s, clock)
		assert.False(t, ok)
	})

	t.Run("creation time wins over clock", func(t *testing.T) {
		created := clock.Add(-48 * time.Hour)
		s := evidence.NormalizeSubject("u4", bson.M{"name": "Fe", "back_image": "b.jpg", "createdAt": created}, models.RoleCustomer, "Users")
		it, ok := evidence.Extract(s, clock)
		require.True(t, ok)
		assert.True(t, it.SubmittedAt.Equal(created))
	})
}

func TestEnrich_FillsMissingEvidence(t *testing.T) {
	s := evidence.NormalizeSubject("u1", bson.M{
		"name":            "Ana",
		"email":           "ana@example.com",
		"selfie":          "s.jpg",
		"validIdFrontUrl": "f.jpg",
	}, models.RoleCustomer, "Users")

	it := models.Item{ID: "v1", SubjectID: "u1", Source: models.SourceWorkflow, Evidence: models.Evidence{IDFront: "record-front.jpg"}}
	evidence.Enrich(&it, s)

	assert.Equal(t, models.RoleCustomer, it.Role)
	assert.Equal(t, "Ana", it.DisplayName)
	assert.Equal(t, "ana@example.com", it.Email)
	assert.Equal(t, "record-front.jpg", it.Evidence.IDFront)
	assert.Equal(t, "s.jpg", it.Evidence.Selfie)
	assert.Equal(t, "Valid ID", it.IDType)
	assert.Equal(t, "verification_ids/u1/valid id/", it.StoragePath)
}
