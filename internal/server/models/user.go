package models

import "time"

// User is a registered account, first-party or federated. A nil
// PasswordHash marks an unusable credential: the account can only be
// reached through account linking.
type User struct {
	ID           string
	Email        string
	UserName     string
	FullName     string
	FarmLocation string
	PasswordHash *string
	CreatedAt    time.Time
}

// HasUsablePassword reports whether the user can authenticate by password.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
