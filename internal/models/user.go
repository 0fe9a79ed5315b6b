// Package models defines the client-side representations of backend
// entities: the cached user profile, addresses, orders, and notifications.
// JSON tags follow the backend's wire names.
package models

import "time"

// User is the locally cached profile of the authenticated user. It is owned
// by the credential store and lives exactly as long as the session.
type User struct {
	ID            string    `json:"_id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	EmailVerified bool      `json:"emailVerified"`
	Active        bool      `json:"active"`
	Role          string    `json:"role"`
	Image         string    `json:"image,omitempty"`
	Addresses     []Address `json:"address,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// FullName joins the name parts, tolerating either being empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// UserPatch carries a partial profile update. Nil fields are left unchanged.
type UserPatch struct {
	FirstName *string    `json:"firstName,omitempty"`
	LastName  *string    `json:"lastName,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Image     *string    `json:"image,omitempty"`
	Addresses *[]Address `json:"address,omitempty"`
}
