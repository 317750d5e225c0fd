package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/domain/repositories"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *entities.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *entities.Admin) error {
	return m.Called(ctx, admin).Error(0)
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id string) (*entities.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Admin), args.Error(1)
}

func (m *MockAdminRepository) GetByEmail(ctx context.Context, email string) (*entities.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Admin), args.Error(1)
}

func (m *MockAdminRepository) List(ctx context.Context, limit, offset int) ([]*entities.Admin, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Admin), args.Error(1)
}

func (m *MockAdminRepository) Update(ctx context.Context, admin *entities.Admin) error {
	return m.Called(ctx, admin).Error(0)
}

func (m *MockAdminRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockHospitalRepository struct {
	mock.Mock
}

func (m *MockHospitalRepository) Create(ctx context.Context, hospital *entities.Hospital) error {
	return m.Called(ctx, hospital).Error(0)
}

func (m *MockHospitalRepository) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hospital), args.Error(1)
}

func (m *MockHospitalRepository) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.Hospital, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Hospital), args.Error(1)
}

func (m *MockHospitalRepository) Update(ctx context.Context, hospital *entities.Hospital) error {
	return m.Called(ctx, hospital).Error(0)
}

func (m *MockHospitalRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockWilayaRepository struct {
	mock.Mock
}

func (m *MockWilayaRepository) List(ctx context.Context) ([]*entities.Wilaya, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wilaya), args.Error(1)
}

func (m *MockWilayaRepository) GetByCode(ctx context.Context, code string) (*entities.Wilaya, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wilaya), args.Error(1)
}

func (m *MockWilayaRepository) GetByID(ctx context.Context, id string) (*entities.Wilaya, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wilaya), args.Error(1)
}

type MockGuestRepository struct {
	mock.Mock
}

func (m *MockGuestRepository) Upsert(ctx context.Context, guest *entities.Guest) (*entities.Guest, bool, error) {
	args := m.Called(ctx, guest)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entities.Guest), args.Bool(1), args.Error(2)
}

func (m *MockGuestRepository) GetByID(ctx context.Context, id string) (*entities.Guest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Guest), args.Error(1)
}

func (m *MockGuestRepository) GetByPhone(ctx context.Context, phone string) (*entities.Guest, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Guest), args.Error(1)
}

func (m *MockGuestRepository) UpdateLocation(ctx context.Context, id string, location entities.GeoPoint, cityID string) (*entities.Guest, error) {
	args := m.Called(ctx, id, location, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Guest), args.Error(1)
}

type MockDonationRequestRepository struct {
	mock.Mock
}

func (m *MockDonationRequestRepository) Create(ctx context.Context, request *entities.DonationRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *MockDonationRequestRepository) GetByID(ctx context.Context, id string) (*entities.DonationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DonationRequest), args.Error(1)
}

func (m *MockDonationRequestRepository) List(ctx context.Context, filter repositories.DonationRequestFilter) ([]*entities.DonationRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DonationRequest), args.Error(1)
}

func (m *MockDonationRequestRepository) UpdateStatus(ctx context.Context, id string, from, to entities.DonationRequestStatus) (*entities.DonationRequest, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DonationRequest), args.Error(1)
}

func (m *MockDonationRequestRepository) ExpireBefore(ctx context.Context, cutoff time.Time) ([]*entities.DonationRequest, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DonationRequest), args.Error(1)
}

type MockGeocodingProvider struct {
	mock.Mock
}

func (m *MockGeocodingProvider) ReverseGeocode(ctx context.Context, lat, lng float64, language string) (*providers.GeocodedAddress, error) {
	args := m.Called(ctx, lat, lng, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.GeocodedAddress), args.Error(1)
}

func (m *MockGeocodingProvider) Name() string {
	return "mock"
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.DonationEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DonationEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.DonationEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *MockEventBus) Close() error {
	return nil
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendText(ctx context.Context, to, body string) error {
	return m.Called(ctx, to, body).Error(0)
}

type MockCoordinateStore struct {
	mock.Mock
}

func (m *MockCoordinateStore) Save(ctx context.Context, key string, coord entities.Coordinate, generation int64, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, coord, generation, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCoordinateStore) Get(ctx context.Context, key string) (entities.Coordinate, int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(entities.Coordinate), args.Get(1).(int64), args.Error(2)
}

type MockCityLocator struct {
	mock.Mock
}

func (m *MockCityLocator) ResolveCityID(ctx context.Context, coord entities.Coordinate, language string) string {
	return m.Called(ctx, coord, language).String(0)
}

type MockLocationResolver struct {
	mock.Mock
}

func (m *MockLocationResolver) ResolveLatest(ctx context.Context, sessionKey string, coord entities.Coordinate, language string) (*entities.GeocodeResult, error) {
	args := m.Called(ctx, sessionKey, coord, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GeocodeResult), args.Error(1)
}

type MockGuestRegistrar struct {
	mock.Mock
}

func (m *MockGuestRegistrar) Register(ctx context.Context, input services.GuestInput) (*entities.GuestRegistration, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuestRegistration), args.Error(1)
}

func (m *MockGuestRegistrar) GetByPhone(ctx context.Context, raw string) (*entities.Guest, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Guest), args.Error(1)
}

type MockRequestCreator struct {
	mock.Mock
}

func (m *MockRequestCreator) CreateForUser(ctx context.Context, requesterID string, input services.DonationRequestInput) (*entities.DonationRequest, error) {
	args := m.Called(ctx, requesterID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DonationRequest), args.Error(1)
}

func (m *MockRequestCreator) CreateForGuest(ctx context.Context, input services.DonationRequestInput) (*entities.DonationRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DonationRequest), args.Error(1)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }
