package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/domain/repositories"
	apperrors "github.com/redhope/backend/pkg/errors"
)

type donationFixture struct {
	requests *MockDonationRequestRepository
	users    *MockUserRepository
	guests   *MockGuestRepository
	events   *MockEventBus
	sender   *MockMessageSender
	svc      *services.DonationRequestService
}

func newDonationFixture() *donationFixture {
	f := &donationFixture{
		requests: new(MockDonationRequestRepository),
		users:    new(MockUserRepository),
		guests:   new(MockGuestRepository),
		events:   new(MockEventBus),
		sender:   new(MockMessageSender),
	}
	f.svc = services.NewDonationRequestService(f.requests, f.users, services.NewGuestService(f.guests, nil),
		services.DonationRequestServiceOptions{
			Events: f.events,
			Sender: f.sender,
			Namer:  services.NewRegionService(nil),
		})
	return f
}

func oNegDonor() *entities.User {
	return &entities.User{ID: "donor-1", Name: "Amine", Phone: "0550123456", BloodType: entities.BloodTypeONeg, IsDonor: true, CityID: "16"}
}

func TestDonationRequestService_CreateForUser(t *testing.T) {
	ctx := context.Background()
	f := newDonationFixture()

	f.users.On("GetByID", mock.Anything, "donor-1").Return(oNegDonor(), nil)
	f.requests.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.DonationRequest) bool {
		return r.RequesterID == "user-1" && r.DonorID == "donor-1" && r.BloodType == entities.BloodTypeAPos &&
			r.Status == entities.DonationRequestActive && r.CityID == "16"
	})).Return(nil)
	f.events.On("Publish", mock.Anything, providers.EventChannelDonationRequests, mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, "wilaya:16", mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(ch string) bool { return len(ch) > 7 && ch[:7] == "region:" }), mock.Anything).Return(nil)
	f.sender.On("SendText", mock.Anything, "213550123456", mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "A+") && assert.Contains(t, body, "Alger")
	})).Return(nil)

	before := time.Now()
	request, err := f.svc.CreateForUser(ctx, "user-1", services.DonationRequestInput{
		BloodType: "a+",
		DonorID:   "donor-1",
		CityID:    "16",
		Location:  entities.Coordinate{Lat: 36.75, Lng: 3.05}.Point(),
	})
	require.NoError(t, err)

	expected := before.Add(7 * 24 * time.Hour)
	assert.WithinDuration(t, expected, request.ExpiryDate, 5*time.Second)
	f.requests.AssertExpectations(t)
	f.events.AssertNumberOfCalls(t, "Publish", 3)
	f.sender.AssertExpectations(t)
}

func TestDonationRequestService_Validation(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name  string
		input services.DonationRequestInput
		donor *entities.User
	}{
		{"invalid blood type", services.DonationRequestInput{BloodType: "C+", DonorID: "donor-1"}, oNegDonor()},
		{"missing donor", services.DonationRequestInput{BloodType: "O-"}, oNegDonor()},
		{"not a donor", services.DonationRequestInput{BloodType: "O-", DonorID: "donor-1"}, &entities.User{ID: "donor-1", IsDonor: false}},
		{"incompatible", services.DonationRequestInput{BloodType: "O-", DonorID: "donor-1"}, &entities.User{ID: "donor-1", IsDonor: true, BloodType: entities.BloodTypeAPos}},
		{"expiry in the past", services.DonationRequestInput{BloodType: "O-", DonorID: "donor-1", ExpiryDate: &past}, oNegDonor()},
		{"bad city", services.DonationRequestInput{BloodType: "O-", DonorID: "donor-1", CityID: "60"}, oNegDonor()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDonationFixture()
			f.users.On("GetByID", mock.Anything, "donor-1").Return(tt.donor, nil)

			_, err := f.svc.CreateForUser(ctx, "user-1", tt.input)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "got %v", err)
			f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestDonationRequestService_CreateForUser_RequiresRequester(t *testing.T) {
	f := newDonationFixture()
	_, err := f.svc.CreateForUser(context.Background(), "", services.DonationRequestInput{BloodType: "O-", DonorID: "donor-1"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestDonationRequestService_CreateForGuest_RegistersByPhone(t *testing.T) {
	ctx := context.Background()
	f := newDonationFixture()

	f.users.On("GetByID", mock.Anything, "donor-1").Return(oNegDonor(), nil)
	f.guests.On("Upsert", mock.Anything, mock.MatchedBy(func(g *entities.Guest) bool { return g.PhoneNumber == "0661223344" })).
		Return(&entities.Guest{ID: "guest-9", PhoneNumber: "0661223344", CityID: "31"}, true, nil)
	f.requests.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.DonationRequest) bool {
		return r.GuestID == "guest-9" && r.PhoneNumber == "0661223344" && r.CityID == "31" && r.RequesterID == ""
	})).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.sender.On("SendText", mock.Anything, "213550123456", mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "+213661223344")
	})).Return(nil)

	request, err := f.svc.CreateForGuest(ctx, services.DonationRequestInput{
		BloodType:   "O-",
		DonorID:     "donor-1",
		PhoneNumber: "0661 22 33 44",
	})
	require.NoError(t, err)
	assert.True(t, request.IsGuestRequest())
	f.guests.AssertExpectations(t)
}

func TestDonationRequestService_CreateForGuest_RequiresIdentity(t *testing.T) {
	f := newDonationFixture()
	_, err := f.svc.CreateForGuest(context.Background(), services.DonationRequestInput{BloodType: "O-", DonorID: "donor-1"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDonationRequestService_NotificationFailureIsIgnored(t *testing.T) {
	f := newDonationFixture()
	f.users.On("GetByID", mock.Anything, "donor-1").Return(oNegDonor(), nil)
	f.guests.On("GetByID", mock.Anything, "guest-1").Return(&entities.Guest{ID: "guest-1", PhoneNumber: "0550000000"}, nil)
	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	f.sender.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("whatsapp down"))

	request, err := f.svc.CreateForGuest(context.Background(), services.DonationRequestInput{
		BloodType: "O-", DonorID: "donor-1", GuestID: "guest-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "guest-1", request.GuestID)
}

func activeRequest() *entities.DonationRequest {
	return &entities.DonationRequest{
		ID:          "req-1",
		DonorID:     "donor-1",
		RequesterID: "user-1",
		CityID:      "16",
		Status:      entities.DonationRequestActive,
		Location:    entities.Coordinate{}.Point(),
	}
}

func TestDonationRequestService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("requester cancels", func(t *testing.T) {
		f := newDonationFixture()
		cancelled := activeRequest()
		cancelled.Status = entities.DonationRequestCancelled
		f.requests.On("GetByID", mock.Anything, "req-1").Return(activeRequest(), nil)
		f.requests.On("UpdateStatus", mock.Anything, "req-1", entities.DonationRequestActive, entities.DonationRequestCancelled).Return(cancelled, nil)
		f.events.On("Publish", mock.Anything, mock.Anything, mock.MatchedBy(func(e *entities.DonationEvent) bool {
			return e.EventType == entities.DonationEventStatusChanged && e.Status == entities.DonationRequestCancelled
		})).Return(nil)

		got, err := f.svc.Cancel(ctx, "req-1", services.Actor{UserID: "user-1", Role: entities.RoleUser})
		require.NoError(t, err)
		assert.Equal(t, entities.DonationRequestCancelled, got.Status)
		f.events.AssertNumberOfCalls(t, "Publish", 2)
	})

	t.Run("donor fulfills", func(t *testing.T) {
		f := newDonationFixture()
		fulfilled := activeRequest()
		fulfilled.Status = entities.DonationRequestFulfilled
		f.requests.On("GetByID", mock.Anything, "req-1").Return(activeRequest(), nil)
		f.requests.On("UpdateStatus", mock.Anything, "req-1", entities.DonationRequestActive, entities.DonationRequestFulfilled).Return(fulfilled, nil)
		f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Fulfill(ctx, "req-1", services.Actor{UserID: "donor-1"})
		require.NoError(t, err)
	})

	t.Run("admin completes", func(t *testing.T) {
		f := newDonationFixture()
		completed := activeRequest()
		completed.Status = entities.DonationRequestCompleted
		f.requests.On("GetByID", mock.Anything, "req-1").Return(activeRequest(), nil)
		f.requests.On("UpdateStatus", mock.Anything, "req-1", entities.DonationRequestActive, entities.DonationRequestCompleted).Return(completed, nil)
		f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Complete(ctx, "req-1", services.Actor{UserID: "admin-1", Role: entities.RoleAdmin})
		require.NoError(t, err)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		f := newDonationFixture()
		f.requests.On("GetByID", mock.Anything, "req-1").Return(activeRequest(), nil)

		_, err := f.svc.Cancel(ctx, "req-1", services.Actor{UserID: "someone"})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("terminal request conflicts", func(t *testing.T) {
		f := newDonationFixture()
		expired := activeRequest()
		expired.Status = entities.DonationRequestExpired
		f.requests.On("GetByID", mock.Anything, "req-1").Return(expired, nil)

		_, err := f.svc.Fulfill(ctx, "req-1", services.Actor{UserID: "user-1"})
		assert.True(t, apperrors.IsConflict(err))
		f.requests.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		f := newDonationFixture()
		_, err := f.svc.Cancel(ctx, "req-1", services.Actor{})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})
}

func TestDonationRequestService_ExpireOverdue(t *testing.T) {
	f := newDonationFixture()
	expired := activeRequest()
	expired.Status = entities.DonationRequestExpired
	f.requests.On("ExpireBefore", mock.Anything, mock.AnythingOfType("time.Time")).Return([]*entities.DonationRequest{expired}, nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	n, err := f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.events.AssertNumberOfCalls(t, "Publish", 2)
}

func TestDonationRequestService_StartPeriodicExpiry(t *testing.T) {
	f := newDonationFixture()
	var sweeps atomic.Int32
	f.requests.On("ExpireBefore", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { sweeps.Add(1) }).
		Return([]*entities.DonationRequest{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.svc.StartPeriodicExpiry(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return sweeps.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestDonationRequestService_StartPeriodicExpiry_NonPositiveInterval(t *testing.T) {
	f := newDonationFixture()
	f.requests.On("ExpireBefore", mock.Anything, mock.Anything).Return([]*entities.DonationRequest{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, interval := range []time.Duration{0, -time.Second} {
		assert.NotPanics(t, func() { f.svc.StartPeriodicExpiry(ctx, interval) })
	}
	f.requests.AssertNumberOfCalls(t, "ExpireBefore", 2)
}

func TestDonationRequestService_ListByCityNormalizesCode(t *testing.T) {
	f := newDonationFixture()
	f.requests.On("List", mock.Anything, repositories.DonationRequestFilter{
		CityID: "09", Status: entities.DonationRequestActive, Limit: 10,
	}).Return([]*entities.DonationRequest{activeRequest()}, nil)

	list, err := f.svc.ListByCity(context.Background(), "9", entities.DonationRequestActive, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListByCity(context.Background(), "x", "", 10, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
