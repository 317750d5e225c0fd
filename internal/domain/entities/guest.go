package entities

import "time"

// Guest is an unauthenticated visitor identified by phone number.
type Guest struct {
	ID          string    `json:"guestId"`
	PhoneNumber string    `json:"phoneNumber"`
	Location    GeoPoint  `json:"location"`
	CityID      string    `json:"cityId,omitempty"`
	LastActive  time.Time `json:"lastActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GuestRegistration is the outcome of a phone-number upsert.
type GuestRegistration struct {
	Guest        *Guest
	IsNewAccount bool
}
