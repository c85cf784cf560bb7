// internal/app/system/evidence/normalize.go
package evidence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// Lookup returns the first non-empty string value found under f's aliases, in
// priority order. Absent fields, nulls and blank strings are skipped.
func Lookup(rec bson.M, f Field, role models.Role) string {
	_, v := LookupAlias(rec, f, role)
	return v
}

// LookupAlias is Lookup that also reports which alias matched.
func LookupAlias(rec bson.M, f Field, role models.Role) (Alias, string) {
	for _, a := range Aliases(role)[f] {
		if s := String(rec[a.Key]); s != "" {
			return a, s
		}
	}
	return Alias{}, ""
}

// LookupValue returns the first present, non-null, non-blank raw value found
// under f's aliases.
func LookupValue(rec bson.M, f Field, role models.Role) (any, bool) {
	for _, a := range Aliases(role)[f] {
		v, ok := rec[a.Key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// Normalize builds the evidence bundle carried by one raw record.
//
// The id type is the record's explicit id type when present, otherwise the
// type implied by the alias the front (then back) image was found under.
// Empty means neither is known; callers apply the default.
func Normalize(rec bson.M, role models.Role) models.Evidence {
	frontAlias, front := LookupAlias(rec, FieldIDFront, role)
	backAlias, back := LookupAlias(rec, FieldIDBack, role)

	ev := models.Evidence{
		Selfie:          Lookup(rec, FieldSelfie, role),
		IDFront:         front,
		IDBack:          back,
		VehicleRegFront: Lookup(rec, FieldVehicleRegFront, role),
		VehicleRegBack:  Lookup(rec, FieldVehicleRegBack, role),
		IDType:          Lookup(rec, FieldIDType, role),
	}
	if ev.IDType == "" {
		switch {
		case frontAlias.IDType != "":
			ev.IDType = frontAlias.IDType
		case backAlias.IDType != "":
			ev.IDType = backAlias.IDType
		}
	}
	return ev
}

// NormalizeSubject converts a raw profile document into a Subject. Fields no
// alias recognizes are kept in Extra.
func NormalizeSubject(id string, fields bson.M, role models.Role, collection string) models.Subject {
	s := models.Subject{
		ID:                 id,
		Role:               role,
		Collection:         collection,
		Name:               Lookup(fields, FieldDisplayName, role),
		Email:              Lookup(fields, FieldEmail, role),
		Phone:              Lookup(fields, FieldPhone, role),
		Address:            Lookup(fields, FieldAddress, role),
		ProfilePicture:     Lookup(fields, FieldProfilePicture, role),
		AccountStatus:      Lookup(fields, FieldAccountStatus, role),
		VerificationStatus: Lookup(fields, FieldVerificationStatus, role),
		VerificationID:     Lookup(fields, FieldVerificationID, role),
		StoragePath:        Lookup(fields, FieldStoragePath, role),
		Evidence:           Normalize(fields, role),
	}
	if v, ok := LookupValue(fields, FieldVerified, role); ok {
		s.Verified = Bool(v)
	}
	if v, ok := LookupValue(fields, FieldCreatedAt, role); ok {
		if t, ok := Time(v); ok {
			s.CreatedAt = t
		}
	}
	if role == models.RoleRider {
		rp := &models.RiderProfile{
			VehicleType:  Lookup(fields, FieldVehicleType, role),
			LicensePlate: Lookup(fields, FieldLicensePlate, role),
		}
		if v, ok := LookupValue(fields, FieldRating, role); ok {
			rp.Rating, _ = Float(v)
		}
		if v, ok := LookupValue(fields, FieldTotalTrips, role); ok {
			f, _ := Float(v)
			rp.TotalTrips = int64(f)
		}
		s.Rider = rp
	}

	table := Aliases(role)
	for k, v := range fields {
		if table.known(k) {
			continue
		}
		if s.Extra == nil {
			s.Extra = bson.M{}
		}
		s.Extra[k] = v
	}
	return s
}

// String renders a scalar field value as a trimmed string. Documents, arrays
// and nulls render as "".
func String(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case int, int32, int64:
		return fmt.Sprint(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// Bool coerces a loosely typed flag. true, "true", "1", "yes", "on" and any
// non-zero number are true; everything else is false.
func Bool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "on":
			return true
		}
		return false
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	}
	return false
}

// Float coerces a numeric field that may have been stored as a string.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time coerces a stored timestamp. It accepts BSON datetimes and timestamps,
// time values, RFC 3339 and "Y-m-d H:i:s" strings, unix seconds or
// milliseconds, and {seconds, nanoseconds} documents written by exporters.
// Results are in UTC.
func Time(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return x.UTC(), !x.IsZero()
	case primitive.DateTime:
		return x.Time().UTC(), true
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC(), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return unix(n), true
		}
	case int:
		return unix(int64(x)), true
	case int32:
		return unix(int64(x)), true
	case int64:
		return unix(x), true
	case float64:
		return unix(int64(x)), true
	case bson.M:
		for _, k := range []string{"seconds", "_seconds"} {
			if sec, ok := Float(x[k]); ok {
				var nsec float64
				for _, nk := range []string{"nanoseconds", "_nanoseconds"} {
					if n, ok := Float(x[nk]); ok {
						nsec = n
					}
				}
				return time.Unix(int64(sec), int64(nsec)).UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// unix treats values past the year 33658 in seconds as milliseconds.
func unix(n int64) time.Time {
	if n > 1e12 || n < -1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
