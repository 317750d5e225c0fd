package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/redhope/backend/internal/infrastructure/observability"
	apperrors "github.com/redhope/backend/pkg/errors"
	"github.com/redhope/backend/pkg/phone"
)

// ContactState is a step of the contact-donor flow.
type ContactState string

const (
	ContactIdle              ContactState = "idle"
	ContactCollectingPhone   ContactState = "collecting_phone"
	ContactResolvingLocation ContactState = "resolving_location"
	ContactRegisteringGuest  ContactState = "registering_guest"
	ContactCreatingRequest   ContactState = "creating_request"
	ContactContactingDonor   ContactState = "contacting_donor"
	ContactDone              ContactState = "done"
)

// InvalidPhoneMessage is the translation key clients show for a rejected number.
const InvalidPhoneMessage = "invalidPhone"

// DefaultLocationTimeout bounds the location step.
const DefaultLocationTimeout = 20 * time.Second

// ContactInput is what a visitor submits from the contact dialog.
type ContactInput struct {
	DonorID          string               `json:"-"`
	RequesterID      string               `json:"-"`
	SessionID        string               `json:"-"`
	PhoneNumber      string               `json:"phoneNumber"`
	Method           string               `json:"method"`
	BloodType        string               `json:"bloodType"`
	Position         *entities.Coordinate `json:"position,omitempty"`
	GeolocationError string               `json:"geolocationError,omitempty"`
	Language         string               `json:"language"`
}

// ContactResult reports how far the flow got and what to open next.
type ContactResult struct {
	State         ContactState              `json:"state"`
	Visited       []ContactState            `json:"visited"`
	InvalidPhone  bool                      `json:"invalidPhone,omitempty"`
	Message       string                    `json:"message,omitempty"`
	Location      entities.Coordinate       `json:"location"`
	CityID        *string                   `json:"cityId"`
	LocationError string                    `json:"locationError,omitempty"`
	GuestID       string                    `json:"guestId,omitempty"`
	IsNewAccount  bool                      `json:"isNewAccount,omitempty"`
	Request       *entities.DonationRequest `json:"request,omitempty"`
	RequestError  string                    `json:"requestError,omitempty"`
	Method        string                    `json:"method,omitempty"`
	Link          string                    `json:"link,omitempty"`
	AutoClose     bool                      `json:"autoClose"`
}

func (r *ContactResult) enter(state ContactState) {
	r.State = state
	r.Visited = append(r.Visited, state)
}

// LatestLocationResolver geocodes a position, dropping superseded answers.
type LatestLocationResolver interface {
	ResolveLatest(ctx context.Context, sessionKey string, coord entities.Coordinate, language string) (*entities.GeocodeResult, error)
}

// GuestRegistrar registers guests by phone number.
type GuestRegistrar interface {
	Register(ctx context.Context, input GuestInput) (*entities.GuestRegistration, error)
	GetByPhone(ctx context.Context, raw string) (*entities.Guest, error)
}

// DonationRequestCreator creates donation requests.
type DonationRequestCreator interface {
	CreateForUser(ctx context.Context, requesterID string, input DonationRequestInput) (*entities.DonationRequest, error)
	CreateForGuest(ctx context.Context, input DonationRequestInput) (*entities.DonationRequest, error)
}

// CoordinateSaver remembers the last known position of a caller.
type CoordinateSaver interface {
	SaveCoordinates(ctx context.Context, owner CoordinateOwner, coord entities.Coordinate, generation int64) (bool, error)
}

// ContactService runs the contact-donor flow: validate the phone number,
// locate the visitor, register them as a guest, file a donation request and
// hand back a deep link to the donor. Only an invalid phone number or an
// unknown donor stop the flow; every other failure degrades and continues.
type ContactService struct {
	users           repositories.UserRepository
	guests          GuestRegistrar
	requests        DonationRequestCreator
	locations       LatestLocationResolver
	coordinates     CoordinateSaver
	locationTimeout time.Duration
}

// NewContactService creates a new contact service. coordinates may be nil.
func NewContactService(
	users repositories.UserRepository,
	guests GuestRegistrar,
	requests DonationRequestCreator,
	locations LatestLocationResolver,
	coordinates CoordinateSaver,
	locationTimeout time.Duration,
) *ContactService {
	if locationTimeout <= 0 {
		locationTimeout = DefaultLocationTimeout
	}
	return &ContactService{
		users:           users,
		guests:          guests,
		requests:        requests,
		locations:       locations,
		coordinates:     coordinates,
		locationTimeout: locationTimeout,
	}
}

// Contact runs the flow for input. An error is returned only when the donor
// cannot be contacted at all.
func (s *ContactService) Contact(ctx context.Context, input ContactInput) (*ContactResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := &ContactResult{}
	result.enter(ContactIdle)

	authenticated := input.RequesterID != ""
	method, preselected := phone.ParseMethod(input.Method)
	if !preselected {
		method = phone.MethodCall
	}

	result.enter(ContactCollectingPhone)
	number := phone.Normalize(input.PhoneNumber)
	if number == "" && (!authenticated || strings.TrimSpace(input.PhoneNumber) != "") {
		result.InvalidPhone = true
		result.Message = InvalidPhoneMessage
		return result, nil
	}

	donor, err := s.users.GetByID(ctx, input.DonorID)
	if err != nil {
		return nil, err
	}
	if !donor.IsDonor || donor.Phone == "" {
		return nil, apperrors.NewValidationError("donor cannot be contacted")
	}

	result.enter(ContactResolvingLocation)
	sessionKey := input.RequesterID
	if sessionKey == "" {
		sessionKey = number
	}
	s.resolveLocation(ctx, sessionKey, input, result)

	if !authenticated {
		result.enter(ContactRegisteringGuest)
		s.registerGuest(ctx, number, result)
	}

	result.enter(ContactCreatingRequest)
	request, err := s.createRequest(ctx, input, donor, number, result)
	if err != nil {
		logger.Warn().Err(err).Str("donor_id", donor.ID).Msg("donation request failed, continuing to contact donor")
		result.RequestError = err.Error()
	} else {
		result.Request = request
	}

	result.enter(ContactContactingDonor)
	result.Method = string(method)
	result.Link = phone.Link(method, donor.Phone)

	result.enter(ContactDone)
	result.AutoClose = !preselected
	return result, nil
}

// resolveLocation fills Location and CityID. Any failure leaves {0,0} and a
// null city, or the reported coordinates with a null city when only the
// geocoding failed.
func (s *ContactService) resolveLocation(ctx context.Context, sessionKey string, input ContactInput, result *ContactResult) {
	logger := observability.LoggerFromContext(ctx)

	if input.GeolocationError != "" {
		result.LocationError = entities.ParseGeolocationErrorCode(input.GeolocationError).Message()
		return
	}
	if input.Position == nil || !input.Position.Valid() || input.Position.IsZero() {
		result.LocationError = entities.GeolocationPositionUnavailable.Message()
		return
	}

	coord := *input.Position
	result.Location = coord

	// Guests are keyed by the session the client reads saved coordinates with.
	if s.coordinates != nil && (input.RequesterID != "" || input.SessionID != "") {
		owner := CoordinateOwner{UserID: input.RequesterID, SessionID: input.SessionID}
		if _, err := s.coordinates.SaveCoordinates(ctx, owner, coord, 0); err != nil {
			logger.Debug().Err(err).Msg("failed to save coordinates")
		}
	}

	if s.locations == nil {
		return
	}
	locCtx, cancel := context.WithTimeout(ctx, s.locationTimeout)
	defer cancel()

	geo, err := s.locations.ResolveLatest(locCtx, sessionKey, coord, input.Language)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result.LocationError = entities.GeolocationTimeout.Message()
	case err != nil:
		logger.Debug().Err(err).Msg("location resolution dropped")
	case geo.CityID() != "":
		cityID := geo.CityID()
		result.CityID = &cityID
	}
}

func (s *ContactService) registerGuest(ctx context.Context, number string, result *ContactResult) {
	logger := observability.LoggerFromContext(ctx)

	var cityID string
	if result.CityID != nil {
		cityID = *result.CityID
	}
	reg, err := s.guests.Register(ctx, GuestInput{
		PhoneNumber: number,
		Location:    result.Location.Point(),
		CityID:      cityID,
	})
	switch {
	case err == nil:
		result.GuestID = reg.Guest.ID
		result.IsNewAccount = reg.IsNewAccount
	case apperrors.IsConflict(err):
		// already registered
		if guest, getErr := s.guests.GetByPhone(ctx, number); getErr == nil {
			result.GuestID = guest.ID
		}
	default:
		logger.Warn().Err(err).Msg("guest registration failed")
	}
}

func (s *ContactService) createRequest(ctx context.Context, input ContactInput, donor *entities.User, number string, result *ContactResult) (*entities.DonationRequest, error) {
	bloodType := input.BloodType
	if strings.TrimSpace(bloodType) == "" {
		bloodType = string(donor.BloodType)
	}

	// No expiry: the request service applies its configured default.
	req := DonationRequestInput{
		BloodType: bloodType,
		DonorID:   donor.ID,
		Location:  result.Location.Point(),
	}
	if result.CityID != nil {
		req.CityID = *result.CityID
	}

	if input.RequesterID != "" {
		return s.requests.CreateForUser(ctx, input.RequesterID, req)
	}
	req.GuestID = result.GuestID
	req.PhoneNumber = number
	return s.requests.CreateForGuest(ctx, req)
}
