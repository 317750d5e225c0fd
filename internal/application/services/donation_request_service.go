package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/redhope/backend/internal/infrastructure/observability"
	apperrors "github.com/redhope/backend/pkg/errors"
	"github.com/redhope/backend/pkg/phone"
	"github.com/redhope/backend/pkg/wilaya"
)

// DonationRequestInput is the payload for creating a donation request.
type DonationRequestInput struct {
	BloodType   string            `json:"bloodType"`
	DonorID     string            `json:"donorId"`
	ExpiryDate  *time.Time        `json:"expiryDate,omitempty"`
	CityID      string            `json:"cityId"`
	Location    entities.GeoPoint `json:"location"`
	PhoneNumber string            `json:"phoneNumber,omitempty"`
	GuestID     string            `json:"guestId,omitempty"`
}

// CityNamer turns a wilaya code into a display name.
type CityNamer interface {
	GetCityNameSync(cityID string) string
}

// DonationRequestServiceOptions holds the optional collaborators.
type DonationRequestServiceOptions struct {
	Events        providers.EventBus
	Sender        providers.MessageSender
	Locator       CityLocator
	Namer         CityNamer
	Metrics       *observability.Metrics
	DefaultExpiry time.Duration
}

// DonationRequestService drives the donation request lifecycle
type DonationRequestService struct {
	repo    repositories.DonationRequestRepository
	users   repositories.UserRepository
	guests  *GuestService
	opts    DonationRequestServiceOptions
	now     func() time.Time
	newUUID func() string
}

// NewDonationRequestService creates a new donation request service
func NewDonationRequestService(
	repo repositories.DonationRequestRepository,
	users repositories.UserRepository,
	guests *GuestService,
	opts DonationRequestServiceOptions,
) *DonationRequestService {
	if opts.DefaultExpiry <= 0 {
		opts.DefaultExpiry = entities.DefaultDonationRequestExpiry
	}
	return &DonationRequestService{
		repo:    repo,
		users:   users,
		guests:  guests,
		opts:    opts,
		now:     time.Now,
		newUUID: uuid.NewString,
	}
}

// CreateForUser creates a request on behalf of a signed-in user.
func (s *DonationRequestService) CreateForUser(ctx context.Context, requesterID string, input DonationRequestInput) (*entities.DonationRequest, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if requesterID == input.DonorID {
		return nil, apperrors.NewValidationError("cannot request a donation from yourself")
	}

	request, err := s.buildRequest(ctx, input)
	if err != nil {
		return nil, err
	}
	request.RequesterID = requesterID
	return s.create(ctx, request)
}

// CreateForGuest creates a request for an unauthenticated visitor. The guest
// is looked up by guestId, or registered from phoneNumber.
func (s *DonationRequestService) CreateForGuest(ctx context.Context, input DonationRequestInput) (*entities.DonationRequest, error) {
	if strings.TrimSpace(input.GuestID) == "" && strings.TrimSpace(input.PhoneNumber) == "" {
		return nil, apperrors.NewValidationError("guestId or phoneNumber is required")
	}

	request, err := s.buildRequest(ctx, input)
	if err != nil {
		return nil, err
	}

	var guest *entities.Guest
	if input.GuestID != "" {
		guest, err = s.guests.GetByID(ctx, input.GuestID)
		if err != nil {
			return nil, err
		}
	} else {
		reg, err := s.guests.Register(ctx, GuestInput{
			PhoneNumber: input.PhoneNumber,
			Location:    request.Location,
			CityID:      request.CityID,
		})
		if err != nil {
			return nil, err
		}
		guest = reg.Guest
	}

	request.GuestID = guest.ID
	request.PhoneNumber = guest.PhoneNumber
	if request.CityID == "" {
		request.CityID = guest.CityID
	}
	return s.create(ctx, request)
}

func (s *DonationRequestService) buildRequest(ctx context.Context, input DonationRequestInput) (*entities.DonationRequest, error) {
	bloodType, ok := entities.ParseBloodType(input.BloodType)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid blood type %q", input.BloodType))
	}
	if strings.TrimSpace(input.DonorID) == "" {
		return nil, apperrors.NewValidationError("donorId is required")
	}

	donor, err := s.users.GetByID(ctx, input.DonorID)
	if err != nil {
		return nil, err
	}
	if !donor.IsDonor {
		return nil, apperrors.NewValidationError("user is not a donor")
	}
	if donor.BloodType != "" && !bloodType.CanReceiveFrom(donor.BloodType) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("donor blood type %s is not compatible with %s", donor.BloodType, bloodType))
	}

	now := s.now().UTC()
	expiry := now.Add(s.opts.DefaultExpiry)
	if input.ExpiryDate != nil && !input.ExpiryDate.IsZero() {
		expiry = input.ExpiryDate.UTC()
	}
	if !expiry.After(now) {
		return nil, apperrors.NewValidationError("expiryDate must be in the future")
	}

	location := input.Location
	if location.Type == "" {
		location.Type = "Point"
	}
	coord := location.Coordinate()
	if !coord.Valid() {
		return nil, apperrors.NewValidationError("Invalid coordinates")
	}

	var cityID string
	if strings.TrimSpace(input.CityID) != "" {
		code, ok := wilaya.NormalizeCode(input.CityID)
		if !ok {
			return nil, apperrors.NewValidationError("invalid cityId")
		}
		cityID = code
	}
	if cityID == "" && s.opts.Locator != nil && !coord.IsZero() {
		cityID = s.opts.Locator.ResolveCityID(ctx, coord, "")
	}

	return &entities.DonationRequest{
		ID:         s.newUUID(),
		BloodType:  bloodType,
		DonorID:    donor.ID,
		CityID:     cityID,
		Location:   location,
		Status:     entities.DonationRequestActive,
		ExpiryDate: expiry,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *DonationRequestService) create(ctx context.Context, request *entities.DonationRequest) (*entities.DonationRequest, error) {
	ctx, span := observability.StartSpan(ctx, "DonationRequestService.Create")
	defer span.End()

	if err := s.repo.Create(ctx, request); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.RecordDonationRequest(ctx, s.opts.Metrics, string(request.Status))
	observability.LoggerFromContext(ctx).Info().
		Str("request_id", request.ID).
		Str("donor_id", request.DonorID).
		Str("city_id", request.CityID).
		Bool("guest", request.IsGuestRequest()).
		Msg("donation request created")

	s.publish(ctx, request, entities.DonationEventCreated)
	s.notifyDonor(ctx, request)
	return request, nil
}

// GetByID retrieves a donation request by ID
func (s *DonationRequestService) GetByID(ctx context.Context, id string) (*entities.DonationRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByDonor lists requests addressed to a donor
func (s *DonationRequestService) ListByDonor(ctx context.Context, donorID string, limit, offset int) ([]*entities.DonationRequest, error) {
	if strings.TrimSpace(donorID) == "" {
		return nil, apperrors.NewValidationError("donorId is required")
	}
	return s.repo.List(ctx, repositories.DonationRequestFilter{DonorID: donorID, Limit: limit, Offset: offset})
}

// ListByCity lists requests in a wilaya, optionally filtered by status
func (s *DonationRequestService) ListByCity(ctx context.Context, cityID string, status entities.DonationRequestStatus, limit, offset int) ([]*entities.DonationRequest, error) {
	code, ok := wilaya.NormalizeCode(cityID)
	if !ok {
		return nil, apperrors.NewValidationError("invalid cityId")
	}
	return s.repo.List(ctx, repositories.DonationRequestFilter{CityID: code, Status: status, Limit: limit, Offset: offset})
}

// Fulfill marks an active request as fulfilled
func (s *DonationRequestService) Fulfill(ctx context.Context, id string, actor Actor) (*entities.DonationRequest, error) {
	return s.transition(ctx, id, actor, entities.DonationRequestFulfilled)
}

// Complete marks an active request as completed
func (s *DonationRequestService) Complete(ctx context.Context, id string, actor Actor) (*entities.DonationRequest, error) {
	return s.transition(ctx, id, actor, entities.DonationRequestCompleted)
}

// Cancel cancels an active request
func (s *DonationRequestService) Cancel(ctx context.Context, id string, actor Actor) (*entities.DonationRequest, error) {
	return s.transition(ctx, id, actor, entities.DonationRequestCancelled)
}

func (s *DonationRequestService) transition(ctx context.Context, id string, actor Actor, to entities.DonationRequestStatus) (*entities.DonationRequest, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != current.RequesterID && actor.UserID != current.DonorID {
		return nil, apperrors.NewForbiddenError("not allowed to change this request")
	}
	if current.Status != entities.DonationRequestActive {
		return nil, apperrors.NewConflictError(fmt.Sprintf("request is %s and cannot become %s", current.Status, to))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, entities.DonationRequestActive, to)
	if err != nil {
		return nil, err
	}

	observability.RecordDonationRequest(ctx, s.opts.Metrics, string(to))
	observability.LoggerFromContext(ctx).Info().
		Str("request_id", id).
		Str("status", string(to)).
		Str("actor", actor.UserID).
		Msg("donation request status changed")

	s.publish(ctx, updated, entities.DonationEventStatusChanged)
	return updated, nil
}

// ExpireOverdue moves every active request past its expiry date to Expired.
func (s *DonationRequestService) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireBefore(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	for _, request := range expired {
		observability.RecordDonationRequest(ctx, s.opts.Metrics, string(entities.DonationRequestExpired))
		s.publish(ctx, request, entities.DonationEventStatusChanged)
	}
	if len(expired) > 0 {
		observability.LoggerFromContext(ctx).Info().Int("count", len(expired)).Msg("expired donation requests")
	}
	return len(expired), nil
}

// DefaultExpirySweepInterval is used when StartPeriodicExpiry gets a non-positive interval.
const DefaultExpirySweepInterval = 10 * time.Minute

// StartPeriodicExpiry runs ExpireOverdue now and then every interval until ctx is done.
func (s *DonationRequestService) StartPeriodicExpiry(ctx context.Context, interval time.Duration) {
	logger := observability.LoggerFromContext(ctx)
	if interval <= 0 {
		logger.Warn().Dur("interval", interval).Dur("default", DefaultExpirySweepInterval).
			Msg("invalid expiry sweep interval, using default")
		interval = DefaultExpirySweepInterval
	}
	if _, err := s.ExpireOverdue(ctx); err != nil {
		logger.Error().Err(err).Msg("initial donation request expiry failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("stopping donation request expiry")
				return
			case <-ticker.C:
				if _, err := s.ExpireOverdue(ctx); err != nil {
					logger.Error().Err(err).Msg("periodic donation request expiry failed")
				}
			}
		}
	}()
	logger.Info().Dur("interval", interval).Msg("started periodic donation request expiry")
}

// publish fans the event out to the global, wilaya and regional channels.
// Failures are logged only.
func (s *DonationRequestService) publish(ctx context.Context, request *entities.DonationRequest, eventType entities.DonationEventType) {
	if s.opts.Events == nil {
		return
	}
	event := entities.NewDonationEvent(request, eventType)

	channels := []string{providers.EventChannelDonationRequests}
	if request.CityID != "" {
		channels = append(channels, providers.GetWilayaChannel(request.CityID))
	}
	if coord := request.Location.Coordinate(); !coord.IsZero() {
		event.Geohash = providers.RegionalGeohash(coord.Lat, coord.Lng)
		channels = append(channels, providers.GetRegionalChannel(coord.Lat, coord.Lng))
	}

	for _, channel := range channels {
		if err := s.opts.Events.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("channel", channel).
				Str("request_id", request.ID).
				Msg("failed to publish donation event")
		}
	}
}

// notifyDonor sends a best-effort WhatsApp notice to the donor.
func (s *DonationRequestService) notifyDonor(ctx context.Context, request *entities.DonationRequest) {
	if s.opts.Sender == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx)

	donor, err := s.users.GetByID(ctx, request.DonorID)
	if err != nil || donor.Phone == "" {
		return
	}

	place := "your area"
	if request.CityID != "" && s.opts.Namer != nil {
		place = s.opts.Namer.GetCityNameSync(request.CityID)
	}
	body := fmt.Sprintf("RedHope: a donation request for %s blood was made near %s. It stays open until %s.",
		request.BloodType, place, request.ExpiryDate.Format("02/01/2006"))
	if request.PhoneNumber != "" {
		body += " Contact: +" + phone.International(request.PhoneNumber)
	}

	if err := s.opts.Sender.SendText(ctx, phone.International(donor.Phone), body); err != nil {
		logger.Warn().Err(err).Str("request_id", request.ID).Msg("failed to notify donor")
	}
}
