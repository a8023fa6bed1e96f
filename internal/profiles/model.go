package profiles

import (
	"time"

	"github.com/agrilink/agrilink/internal/store"
)

// VerificationStatus is the expert-profile review state.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// ValidVerificationStatus reports whether s is a known review state.
func ValidVerificationStatus(s string) bool {
	switch VerificationStatus(s) {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// FarmerProfile holds farm details for a farmer account. At most one per user.
type FarmerProfile struct {
	ID         int64     `json:"id"         db:"id"`
	UserID     int64     `json:"userId"     db:"user_id"`
	FarmName   *string   `json:"farmName"   db:"farm_name"`
	FarmSize   *string   `json:"farmSize"   db:"farm_size"`
	CropsGrown *string   `json:"cropsGrown" db:"crops_grown"`
	Location   *string   `json:"location"   db:"location"`
	Latitude   *float64  `json:"latitude"   db:"latitude"`
	Longitude  *float64  `json:"longitude"  db:"longitude"`
	Phone      *string   `json:"phone"      db:"phone"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// ExpertProfile holds credentials for an expert account. At most one per user.
type ExpertProfile struct {
	ID                 int64              `json:"id"                 db:"id"`
	UserID             int64              `json:"userId"             db:"user_id"`
	Specialization     *string            `json:"specialization"     db:"specialization"`
	Qualifications     *string            `json:"qualifications"     db:"qualifications"`
	YearsOfExperience  *int               `json:"yearsOfExperience"  db:"years_of_experience"`
	Organization       *string            `json:"organization"       db:"organization"`
	VerificationStatus VerificationStatus `json:"verificationStatus" db:"verification_status"`
	CreatedAt          time.Time          `json:"createdAt"          db:"created_at"`
	UpdatedAt          time.Time          `json:"updatedAt"          db:"updated_at"`
}

// FarmerUpdate is a partial farmer-profile write. Every supplied field is
// merged verbatim; absent fields are left untouched.
type FarmerUpdate struct {
	FarmName   store.Field[string]
	FarmSize   store.Field[string]
	CropsGrown store.Field[string]
	Location   store.Field[string]
	Latitude   store.Field[float64]
	Longitude  store.Field[float64]
	Phone      store.Field[string]
}

func (u FarmerUpdate) columns() map[string]any {
	set := map[string]any{}
	text := func(col string, f store.Field[string]) {
		if f.IsSet() {
			set[col] = f.Arg()
		}
	}
	num := func(col string, f store.Field[float64]) {
		if f.IsSet() {
			set[col] = f.Arg()
		}
	}
	text("farm_name", u.FarmName)
	text("farm_size", u.FarmSize)
	text("crops_grown", u.CropsGrown)
	text("location", u.Location)
	num("latitude", u.Latitude)
	num("longitude", u.Longitude)
	text("phone", u.Phone)
	return set
}

// ExpertUpdate is a partial expert-profile write. verificationStatus is not
// part of it; that transition has its own admin-only path.
type ExpertUpdate struct {
	Specialization    store.Field[string]
	Qualifications    store.Field[string]
	YearsOfExperience store.Field[int]
	Organization      store.Field[string]
}

func (u ExpertUpdate) columns() map[string]any {
	set := map[string]any{}
	if u.Specialization.IsSet() {
		set["specialization"] = u.Specialization.Arg()
	}
	if u.Qualifications.IsSet() {
		set["qualifications"] = u.Qualifications.Arg()
	}
	if u.YearsOfExperience.IsSet() {
		set["years_of_experience"] = u.YearsOfExperience.Arg()
	}
	if u.Organization.IsSet() {
		set["organization"] = u.Organization.Arg()
	}
	return set
}
