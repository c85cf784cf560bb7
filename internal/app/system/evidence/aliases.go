// internal/app/system/evidence/aliases.go
package evidence

import "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"

// Field is a canonical field name in the evidence vocabulary.
type Field string

// Evidence fields.
const (
	FieldSelfie          Field = "selfie"
	FieldIDFront         Field = "idFront"
	FieldIDBack          Field = "idBack"
	FieldVehicleRegFront Field = "vehicleRegFront"
	FieldVehicleRegBack  Field = "vehicleRegBack"
	FieldIDType          Field = "idType"
)

// Profile and record fields.
const (
	FieldDisplayName        Field = "displayName"
	FieldEmail              Field = "email"
	FieldPhone              Field = "phone"
	FieldAddress            Field = "address"
	FieldProfilePicture     Field = "profilePicture"
	FieldAccountStatus      Field = "accountStatus"
	FieldVerified           Field = "verified"
	FieldVerificationStatus Field = "verificationStatus"
	FieldVerificationID     Field = "verificationId"
	FieldStoragePath        Field = "storagePath"
	FieldCreatedAt          Field = "createdAt"
	FieldSubmittedAt        Field = "submittedAt"
	FieldReviewedAt         Field = "reviewedAt"
	FieldUserID             Field = "userId"
	FieldStatus             Field = "status"
	FieldAdminNote          Field = "adminNote"

	FieldVehicleType  Field = "vehicleType"
	FieldLicensePlate Field = "licensePlate"
	FieldRating       Field = "rating"
	FieldTotalTrips   Field = "totalTrips"
)

// Alias is one historical source key for a canonical field. IDType, when set,
// is the id type implied by finding evidence under this key.
type Alias struct {
	Key    string
	IDType string
}

// Table maps each canonical field to its aliases, in priority order.
type Table map[Field][]Alias

func keys(names ...string) []Alias {
	out := make([]Alias, len(names))
	for i, n := range names {
		out[i] = Alias{Key: n}
	}
	return out
}

// Keys shared by both roles.
var (
	idBackTail = keys("back_image", "driverLicenseBackUrl", "licensesBackUrl", "licenseIdBackUrl",
		"idBackUrl", "id_back_url", "verificationBack", "verification_back", "backUrl", "back_url")
	idFrontTail = keys("front_image", "driverLicenseFrontUrl", "licensesFrontUrl", "licenseIdFrontUrl",
		"idFrontUrl", "id_front_url", "verificationFront", "verification_front", "frontUrl", "front_url")
	selfieTail = keys("validIdSelfieUrl", "selfie", "profileImagePath", "profile_picture",
		"profilePhotoUrl", "profilePictureUrl", "selfieUrl", "selfie_url", "idSelfieUrl", "id_selfie_url")

	recordFields = Table{
		FieldIDType:             keys("id_type", "idType"),
		FieldEmail:              keys("email"),
		FieldAddress:            keys("address"),
		FieldProfilePicture:     keys("profileImagePath", "profilePictureUrl"),
		FieldAccountStatus:      keys("status"),
		FieldVerified:           keys("id_verified"),
		FieldVerificationStatus: keys("verificationStatus"),
		FieldVerificationID:     keys("verification_id"),
		FieldCreatedAt:          keys("created_at", "createdAt"),
		FieldSubmittedAt:        keys("submitted_at", "created_at", "createdAt"),
		FieldReviewedAt:         keys("reviewed_at"),
		FieldUserID:             keys("user_id", "userId"),
		FieldStatus:             keys("status"),
		FieldAdminNote:          keys("admin_note"),
	}
)

func join(parts ...[]Alias) []Alias {
	var out []Alias
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func withRecordFields(t Table) Table {
	for f, a := range recordFields {
		if _, ok := t[f]; !ok {
			t[f] = a
		}
	}
	return t
}

var customerTable = withRecordFields(Table{
	FieldSelfie: join(keys("profileImageUrl"), selfieTail),
	FieldIDFront: join([]Alias{
		{Key: "seniorIdFrontUrl", IDType: "Senior ID"},
		{Key: "validIdFrontUrl", IDType: "Valid ID"},
	}, idFrontTail),
	FieldIDBack: join([]Alias{
		{Key: "seniorIdBackUrl", IDType: "Senior ID"},
		{Key: "validIdBackUrl", IDType: "Valid ID"},
	}, idBackTail),
	FieldDisplayName: keys("name", "username"),
	FieldPhone:       keys("mobileNumber", "phone", "contactNumber"),
	FieldStoragePath: keys("verificationIdStoragePath"),
})

var riderTable = withRecordFields(Table{
	FieldSelfie:  join(keys("profileImageUrl", "verification_picture"), selfieTail),
	FieldIDFront: join(keys("seniorIdFrontUrl", "verification_license_front", "validIdFrontUrl"), idFrontTail),
	FieldIDBack:  join(keys("seniorIdBackUrl", "verification_license_back", "validIdBackUrl"), idBackTail),
	FieldVehicleRegFront: keys("verification_orcr1", "vehicleORCRFrontUrl", "vehicleRegistrationFront",
		"vehicleORFront", "carRegistrationFront", "vehicleORFrontUrl"),
	FieldVehicleRegBack: keys("verification_orcr2", "vehicleORCRBackUrl", "vehicleRegistrationBack",
		"vehicleORBack", "carRegistrationBack", "vehicleORBackUrl"),
	FieldDisplayName:  keys("fullName", "name", "username"),
	FieldPhone:        keys("contactNumber", "mobileNumber", "phone"),
	FieldStoragePath:  keys("validIdStoragePath"),
	FieldVehicleType:  keys("vehicleType", "vehicle_type"),
	FieldLicensePlate: keys("licensePlate", "license_plate", "plateNumber"),
	FieldRating:       keys("rating"),
	FieldTotalTrips:   keys("totalTrips", "total_trips", "completedRides"),
})

// Aliases returns the alias table for a role. Unknown roles get the customer
// table, which is the narrower of the two.
func Aliases(role models.Role) Table {
	if role == models.RoleRider {
		return riderTable
	}
	return customerTable
}

// known reports whether key is an alias of any field in t.
func (t Table) known(key string) bool {
	if key == "id" {
		return true
	}
	for _, aliases := range t {
		for _, a := range aliases {
			if a.Key == key {
				return true
			}
		}
	}
	return false
}
