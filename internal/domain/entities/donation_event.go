package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// DonationEventType represents the type of donation request event
type DonationEventType string

const (
	DonationEventCreated       DonationEventType = "donation_request.created"
	DonationEventStatusChanged DonationEventType = "donation_request.status_changed"
)

// DonationEvent is published whenever a donation request changes
type DonationEvent struct {
	ID        string                `json:"id"`
	RequestID string                `json:"request_id"`
	EventType DonationEventType     `json:"event_type"`
	Timestamp time.Time             `json:"timestamp"`
	CityID    string                `json:"city_id,omitempty"`
	BloodType BloodType             `json:"blood_type"`
	Status    DonationRequestStatus `json:"status"`
	Location  Coordinate            `json:"location"`
	Geohash   string                `json:"geohash,omitempty"`
}

// NewDonationEvent builds an event snapshot of request.
func NewDonationEvent(request *DonationRequest, eventType DonationEventType) *DonationEvent {
	return &DonationEvent{
		ID:        generateEventID(),
		RequestID: request.ID,
		EventType: eventType,
		Timestamp: time.Now(),
		CityID:    request.CityID,
		BloodType: request.BloodType,
		Status:    request.Status,
		Location:  request.Location.Coordinate(),
	}
}

func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
