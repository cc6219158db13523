package garage

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fuellog/internal/events"
	"github.com/ukydev/fuellog/internal/models"
)

type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, filter bson.M) ([]models.Vehicle, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id string, fields bson.M) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockFillCollection struct {
	mock.Mock
}

func (m *MockFillCollection) InsertFill(ctx context.Context, fill models.Fill) error {
	args := m.Called(ctx, fill)
	return args.Error(0)
}

func (m *MockFillCollection) FindFills(ctx context.Context, filter bson.M) ([]models.Fill, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Fill), args.Error(1)
}

func (m *MockFillCollection) FindFillByID(ctx context.Context, id string) (*models.Fill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fill), args.Error(1)
}

func (m *MockFillCollection) UpdateFill(ctx context.Context, id string, fields bson.M) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockFillCollection) DeleteFill(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFillCollection) DeleteFillsByVehicle(ctx context.Context, vehicleID string) (int64, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFillCollection) LatestFill(ctx context.Context, vehicleID string) (*models.Fill, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fill), args.Error(1)
}

type MockMemberCollection struct {
	mock.Mock
}

func (m *MockMemberCollection) InsertMember(ctx context.Context, member models.FamilyMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberCollection) FindMembers(ctx context.Context, familyID string) ([]models.FamilyMember, error) {
	args := m.Called(ctx, familyID)
	return args.Get(0).([]models.FamilyMember), args.Error(1)
}

func (m *MockMemberCollection) FindMembership(ctx context.Context, familyID, userID string) (*models.FamilyMember, error) {
	args := m.Called(ctx, familyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FamilyMember), args.Error(1)
}

func (m *MockMemberCollection) FindMembershipsByUser(ctx context.Context, userID string) ([]models.FamilyMember, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.FamilyMember), args.Error(1)
}

func (m *MockMemberCollection) DeleteMember(ctx context.Context, familyID, userID string) error {
	args := m.Called(ctx, familyID, userID)
	return args.Error(0)
}

func (m *MockMemberCollection) DeleteMembers(ctx context.Context, familyID string) error {
	args := m.Called(ctx, familyID)
	return args.Error(0)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() {}

// stalledPublisher never reaches the broker and only returns once ctx ends.
type stalledPublisher struct{}

func (stalledPublisher) Publish(ctx context.Context, _ events.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledPublisher) Close() {}
