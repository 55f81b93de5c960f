package services

import (
	"context"
	"time"

	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/domain/visibility"
	"github.com/tastefull/backend/internal/infrastructure/observability"
)

// Snapshot is the materialized state the visibility and filter engine runs against
type Snapshot struct {
	Directory   *visibility.Directory
	Restaurants []*entities.Restaurant
	Reviews     []*entities.Review
}

// SnapshotService loads the collections the engine needs for one request
type SnapshotService struct {
	userRepo       repositories.UserRepository
	orgRepo        repositories.OrganisationRepository
	followRepo     repositories.FollowRepository
	restaurantRepo repositories.RestaurantRepository
	reviewRepo     repositories.ReviewRepository
	metrics        *observability.Metrics
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(
	userRepo repositories.UserRepository,
	orgRepo repositories.OrganisationRepository,
	followRepo repositories.FollowRepository,
	restaurantRepo repositories.RestaurantRepository,
	reviewRepo repositories.ReviewRepository,
	metrics *observability.Metrics,
) *SnapshotService {
	return &SnapshotService{
		userRepo:       userRepo,
		orgRepo:        orgRepo,
		followRepo:     followRepo,
		restaurantRepo: restaurantRepo,
		reviewRepo:     reviewRepo,
		metrics:        metrics,
	}
}

// Directory builds the user/organisation/follow directory
func (s *SnapshotService) Directory(ctx context.Context) (*visibility.Directory, error) {
	start := time.Now()
	defer s.recordDB(ctx, "snapshot.directory", start)

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	memberships, err := s.orgRepo.ListAllMemberships(ctx)
	if err != nil {
		return nil, err
	}
	follows, err := s.followRepo.ListFollows(ctx)
	if err != nil {
		return nil, err
	}

	return visibility.NewDirectory(users, orgs, memberships, follows), nil
}

// Load builds the directory and loads every review plus the restaurants tagged with any
// of categories (all restaurants when categories is empty)
func (s *SnapshotService) Load(ctx context.Context, categories []entities.Category) (*Snapshot, error) {
	dir, err := s.Directory(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer s.recordDB(ctx, "snapshot.catalogue", start)

	restaurants, err := s.restaurantRepo.List(ctx, repositories.RestaurantFilter{Categories: categories})
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Directory: dir, Restaurants: restaurants, Reviews: reviews}, nil
}

func (s *SnapshotService) recordDB(ctx context.Context, operation string, start time.Time) {
	if s.metrics == nil {
		return
	}
	observability.RecordDBMetric(ctx, s.metrics, operation, time.Since(start))
}
