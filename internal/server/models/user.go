// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Email        string
	Contact      string
	DisplayName  string
	// ProfileImage is a storage handle, empty when no image was uploaded.
	ProfileImage string
	// PostIDs lists the posts owned by the user in creation order. It is
	// filled only by reads that join the ownership table.
	PostIDs   []string
	CreatedAt time.Time
}

// ProfileUpdate is a partial update of the presentational user fields.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	UserName    *string
	Email       *string
	Contact     *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.UserName == nil && u.Email == nil && u.Contact == nil
}
