package entities

import (
	"time"
)

// Roles carried in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. Donors are users with IsDonor set.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	BloodType    BloodType `json:"bloodType,omitempty"`
	IsDonor      bool      `json:"isDonor"`
	IsAvailable  bool      `json:"isAvailable"`
	CityID       string    `json:"cityId"`
	Location     GeoPoint  `json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Admin is a console operator.
type Admin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Hospital is a care facility; blood centers accept donations.
type Hospital struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	CityID        string    `json:"cityId"`
	Location      GeoPoint  `json:"location"`
	IsBloodCenter bool      `json:"isBloodCenter"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Wilaya is a province record as stored in the database.
type Wilaya struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	NameAr string `json:"nameAr"`
}
