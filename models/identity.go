package models

import (
	"time"
)

type IdentityKind string

const (
	KindUser       IdentityKind = "user"
	KindVenue      IdentityKind = "venue"
	KindSuperadmin IdentityKind = "superadmin"
)

func (k IdentityKind) Valid() bool {
	switch k {
	case KindUser, KindVenue, KindSuperadmin:
		return true
	}
	return false
}

// Registrable reports whether accounts of this kind can sign up.
func (k IdentityKind) Registrable() bool {
	return k == KindUser || k == KindVenue
}

// Identity is the verified caller of a request, decoded from a session token.
type Identity struct {
	ID    string       `json:"id"`
	Kind  IdentityKind `json:"kind"`
	Email string       `json:"email,omitempty"`
}

func (i Identity) Is(kinds ...IdentityKind) bool {
	for _, k := range kinds {
		if i.Kind == k {
			return true
		}
	}
	return false
}

// Session is a signed token handed back on login or signup.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Identity  Identity  `json:"identity"`
}

// Account is a stored user or venue identity.
type Account struct {
	ID           string       `json:"id"`
	Kind         IdentityKind `json:"kind"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Name         string       `json:"name"`
	Contact      string       `json:"contact,omitempty"`
	Location     string       `json:"location,omitempty"`
	Age          int          `json:"age,omitempty"`
	Created      time.Time    `json:"created"`
	Updated      time.Time    `json:"updated"`
}

func (a Account) Identity() Identity {
	return Identity{ID: a.ID, Kind: a.Kind, Email: a.Email}
}

// AccountFields holds editable profile fields. Nil pointers are left untouched.
type AccountFields struct {
	Name     *string `json:"name,omitempty"`
	Contact  *string `json:"contact,omitempty"`
	Location *string `json:"location,omitempty"`
	Age      *int    `json:"age,omitempty"`
}

// VenueContact is the public contact card of a venue.
type VenueContact struct {
	ID      string `json:"id"`
	Name    string `json:"venueName"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}
