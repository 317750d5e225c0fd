package entities

import (
	"strings"
	"time"
)

// DonationRequestStatus is the lifecycle state of a donation request.
type DonationRequestStatus string

const (
	DonationRequestActive    DonationRequestStatus = "Active"
	DonationRequestFulfilled DonationRequestStatus = "Fulfilled"
	DonationRequestCompleted DonationRequestStatus = "Completed"
	DonationRequestCancelled DonationRequestStatus = "Cancelled"
	DonationRequestExpired   DonationRequestStatus = "Expired"
)

// DefaultDonationRequestExpiry is added to the creation time when no expiry is given.
const DefaultDonationRequestExpiry = 7 * 24 * time.Hour

// ParseDonationRequestStatus accepts a status in any letter case.
func ParseDonationRequestStatus(raw string) (DonationRequestStatus, bool) {
	for _, s := range []DonationRequestStatus{
		DonationRequestActive, DonationRequestFulfilled, DonationRequestCompleted,
		DonationRequestCancelled, DonationRequestExpired,
	} {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is allowed.
func (s DonationRequestStatus) IsTerminal() bool {
	return s != DonationRequestActive
}

// DonationRequest asks a donor for blood on behalf of a user or a guest.
type DonationRequest struct {
	ID          string                `json:"id"`
	BloodType   BloodType             `json:"bloodType"`
	DonorID     string                `json:"donorId"`
	RequesterID string                `json:"requesterId,omitempty"`
	GuestID     string                `json:"guestId,omitempty"`
	PhoneNumber string                `json:"phoneNumber,omitempty"`
	CityID      string                `json:"cityId,omitempty"`
	Location    GeoPoint              `json:"location"`
	Status      DonationRequestStatus `json:"status"`
	ExpiryDate  time.Time             `json:"expiryDate"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// IsGuestRequest reports whether the request was made without an account.
func (r *DonationRequest) IsGuestRequest() bool {
	return r.RequesterID == "" && r.GuestID != ""
}
