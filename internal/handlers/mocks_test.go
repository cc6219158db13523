package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fuellog/internal/auth"
	"github.com/ukydev/fuellog/internal/family"
	"github.com/ukydev/fuellog/internal/middleware"
	"github.com/ukydev/fuellog/internal/models"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGarage is a mock implementation of Garage
type MockGarage struct {
	mock.Mock
}

func (m *MockGarage) ListVehicles(ctx context.Context, userID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockGarage) VehiclesOf(ctx context.Context, userID, familyID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockGarage) GetVehicle(ctx context.Context, userID, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockGarage) CreateVehicle(ctx context.Context, userID string, req models.VehicleRequest) (*models.Vehicle, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockGarage) UpdateVehicle(ctx context.Context, userID, id string, req models.VehicleRequest) (*models.Vehicle, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockGarage) DeleteVehicle(ctx context.Context, userID, id string) (int64, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGarage) FillsOf(ctx context.Context, userID, familyID string) ([]models.Fill, error) {
	args := m.Called(ctx, userID, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Fill), args.Error(1)
}

func (m *MockGarage) GetFill(ctx context.Context, userID, id string) (*models.Fill, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fill), args.Error(1)
}

func (m *MockGarage) AddFill(ctx context.Context, userID string, req models.FillRequest) (*models.Fill, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fill), args.Error(1)
}

func (m *MockGarage) UpdateFill(ctx context.Context, userID, id string, patch models.FillPatch) (*models.Fill, error) {
	args := m.Called(ctx, userID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fill), args.Error(1)
}

func (m *MockGarage) DeleteFill(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockFamilies is a mock implementation of Families
type MockFamilies struct {
	mock.Mock
}

func (m *MockFamilies) Create(ctx context.Context, name, userID string) (*models.Family, error) {
	args := m.Called(ctx, name, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Family), args.Error(1)
}

func (m *MockFamilies) List(ctx context.Context, userID string) ([]models.Family, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Family), args.Error(1)
}

func (m *MockFamilies) Get(ctx context.Context, familyID, userID string) (*family.Details, error) {
	args := m.Called(ctx, familyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*family.Details), args.Error(1)
}

func (m *MockFamilies) Invite(ctx context.Context, familyID, userID string) (*models.Invite, error) {
	args := m.Called(ctx, familyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invite), args.Error(1)
}

func (m *MockFamilies) Join(ctx context.Context, token, userID string) (*models.Family, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Family), args.Error(1)
}

func (m *MockFamilies) Leave(ctx context.Context, familyID, userID string) error {
	return m.Called(ctx, familyID, userID).Error(0)
}

func (m *MockFamilies) RemoveMember(ctx context.Context, familyID, ownerID, memberID string) error {
	return m.Called(ctx, familyID, ownerID, memberID).Error(0)
}

func (m *MockFamilies) Delete(ctx context.Context, familyID, userID string) error {
	return m.Called(ctx, familyID, userID).Error(0)
}

const testUserID = "65f000000000000000000001"

func newTestAuthService(t *testing.T) *auth.Service {
	t.Helper()
	svc, err := auth.NewService("handlers-test-secret", time.Hour)
	require.NoError(t, err)
	return svc
}

// withUser attaches authenticated claims the way the auth middleware does.
func withUser(ctx context.Context) context.Context {
	return middleware.WithUser(ctx, &models.Claims{UserID: testUserID, Username: "tester"})
}
