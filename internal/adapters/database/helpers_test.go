package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
)

func newMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

// MockCacheProvider is a mock implementation of providers.CacheProvider
type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheProvider) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]byte), args.Error(1)
}

func (m *MockCacheProvider) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	args := m.Called(ctx, items, expirationSeconds)
	return args.Error(0)
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func (m *MockCacheProvider) Incr(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	args := m.Called(ctx, key, expirationSeconds)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheProvider) TTL(ctx context.Context, key string) (time.Duration, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(time.Duration), args.Error(1)
}

// MockRestaurantRepository is a mock implementation of repositories.RestaurantRepository
type MockRestaurantRepository struct {
	mock.Mock
}

func (m *MockRestaurantRepository) Create(ctx context.Context, restaurant *entities.Restaurant) error {
	args := m.Called(ctx, restaurant)
	return args.Error(0)
}

func (m *MockRestaurantRepository) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Restaurant, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) List(ctx context.Context, filter repositories.RestaurantFilter) ([]*entities.Restaurant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) Update(ctx context.Context, restaurant *entities.Restaurant) error {
	args := m.Called(ctx, restaurant)
	return args.Error(0)
}
