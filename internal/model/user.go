// Package model defines the data structures used throughout the application.
package model

import "time"

// MinimumAge is the youngest a user may be at registration time.
// Collecting data from anyone younger requires parental consent under GDPR,
// which this service does not implement — so registration is refused instead.
const MinimumAge = 15

// User represents a registered account.
//
// PasswordHash holds the bcrypt output and is never serialized — note the
// `json:"-"` tag. The two consent flags drive the profile visibility gate:
// a profile is hidden from other users unless CanDataBeShared is set, and
// contact details are additionally hidden unless CanBeContacted is set.
type User struct {
	ID              string    `json:"id"              db:"id"`
	Username        string    `json:"username"        db:"username"`
	PasswordHash    string    `json:"-"               db:"password_hash"`
	DateOfBirth     time.Time `json:"dateOfBirth"     db:"date_of_birth"`
	CanBeContacted  bool      `json:"canBeContacted"  db:"can_be_contacted"`
	CanDataBeShared bool      `json:"canDataBeShared" db:"can_data_be_shared"`
	CreatedAt       time.Time `json:"createdAt"       db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt"       db:"updated_at"`
}

// Age returns the user's age in whole years at the reference date.
//
// Tie-break: if the birthday has not yet occurred in the reference year,
// one year is subtracted. Someone born 2010-06-15 is 14 on 2025-06-14 and
// 15 on 2025-06-15. All call sites must go through this function so the
// tie-break cannot drift between the registration check and profile output.
func (u User) Age(ref time.Time) int {
	return AgeAt(u.DateOfBirth, ref)
}

// AgeAt computes age in whole years between a birth date and a reference date.
func AgeAt(birth, ref time.Time) int {
	years := ref.Year() - birth.Year()
	// Birthday not reached yet this year → one year younger.
	if ref.Month() < birth.Month() ||
		(ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	return years
}
