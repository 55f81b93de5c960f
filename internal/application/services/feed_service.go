package services

import (
	"context"
	"time"

	"github.com/tastefull/backend/internal/application/loaders"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/filtering"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/domain/visibility"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 200
)

// FeedService runs the visibility and filter engine for read paths
type FeedService struct {
	snapshots      *SnapshotService
	userRepo       repositories.UserRepository
	restaurantRepo repositories.RestaurantRepository
	reviewRepo     repositories.ReviewRepository
	metrics        *observability.Metrics
	domainMetrics  *observability.DomainMetrics
}

// NewFeedService creates a new feed service
func NewFeedService(
	snapshots *SnapshotService,
	userRepo repositories.UserRepository,
	restaurantRepo repositories.RestaurantRepository,
	reviewRepo repositories.ReviewRepository,
	metrics *observability.Metrics,
	domainMetrics *observability.DomainMetrics,
) *FeedService {
	return &FeedService{
		snapshots:      snapshots,
		userRepo:       userRepo,
		restaurantRepo: restaurantRepo,
		reviewRepo:     reviewRepo,
		metrics:        metrics,
		domainMetrics:  domainMetrics,
	}
}

// ListRestaurants returns the restaurants passing state with averages over in-scope reviews
func (s *FeedService) ListRestaurants(ctx context.Context, viewer visibility.Viewer, state filtering.FilterState) ([]filtering.RestaurantSummary, error) {
	snapshot, err := s.snapshots.Load(ctx, state.Categories)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summaries := filtering.Evaluate(snapshot.Restaurants, snapshot.Reviews, state, viewer.UserID, snapshot.Directory)
	s.recordEvaluation(ctx, state.Social, len(summaries), time.Since(start))

	return summaries, nil
}

// RestaurantReviews returns a restaurant's reviews redacted for the viewer, newest first
func (s *FeedService) RestaurantReviews(ctx context.Context, viewer visibility.Viewer, restaurantID string) ([]visibility.VisibleReview, error) {
	if _, err := s.restaurantRepo.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	dir, err := s.snapshots.Directory(ctx)
	if err != nil {
		return nil, err
	}

	return visibility.RedactAll(reviews, visibility.NewContext(viewer, dir)), nil
}

// Feed returns the most recent reviews that pass the social and category filters,
// redacted for the viewer and annotated with their restaurant
func (s *FeedService) Feed(ctx context.Context, viewer visibility.Viewer, state filtering.FilterState, limit int) ([]visibility.VisibleReview, error) {
	limit = clampLimit(limit)

	dir, err := s.snapshots.Directory(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	scoped := filtering.ScopeReviews(reviews, state.Social, viewer.UserID, dir)
	restaurants := s.loaders(ctx).LoadRestaurants(ctx, restaurantIDs(scoped))

	vc := visibility.NewContext(viewer, dir)
	out := make([]visibility.VisibleReview, 0, limit)
	for _, review := range scoped {
		if len(out) == limit {
			break
		}
		restaurant := restaurants[review.RestaurantID]
		if restaurant == nil || !filtering.MatchesCategories(restaurant, state.Categories) {
			continue
		}
		visible := visibility.Redact(review, visibility.IsReviewVisible(review, vc), vc)
		visible.Restaurant = restaurant
		out = append(out, visible)
	}
	s.recordEvaluation(ctx, state.Social, len(out), time.Since(start))

	return out, nil
}

// OrganisationFeed returns the reviews written by an organisation's members, redacted in
// the context of that organisation's page
func (s *FeedService) OrganisationFeed(ctx context.Context, viewer visibility.Viewer, slug string, limit int) ([]visibility.VisibleReview, error) {
	limit = clampLimit(limit)

	dir, err := s.snapshots.Directory(ctx)
	if err != nil {
		return nil, err
	}
	org := dir.OrganisationBySlug(entities.NormalizeSlug(slug))
	if org == nil {
		return nil, apperrors.NewNotFoundError("organisation " + slug + " not found")
	}

	reviews, err := s.reviewRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	members := dir.MembersOf(org.ID)
	scoped := make([]*entities.Review, 0, limit)
	for _, review := range reviews {
		if len(scoped) == limit {
			break
		}
		if review != nil && members.Has(review.UserID) {
			scoped = append(scoped, review)
		}
	}

	pageViewer := visibility.Viewer{UserID: viewer.UserID, PageOrganisationID: org.ID}
	out := visibility.RedactAll(scoped, visibility.NewContext(pageViewer, dir))

	restaurants := s.loaders(ctx).LoadRestaurants(ctx, restaurantIDs(scoped))
	for i := range out {
		out[i].Restaurant = restaurants[out[i].RestaurantID]
	}
	return out, nil
}

func (s *FeedService) loaders(ctx context.Context) *loaders.Loaders {
	if l := loaders.For(ctx); l != nil {
		return l
	}
	return loaders.NewLoaders(s.userRepo, s.restaurantRepo)
}

// recordEvaluation labels organisation slugs as "organisation" to keep metric cardinality bounded
func (s *FeedService) recordEvaluation(ctx context.Context, social filtering.SocialFilter, results int, elapsed time.Duration) {
	label := string(social)
	switch social {
	case "":
		label = string(filtering.SocialEveryone)
	case filtering.SocialEveryone, filtering.SocialFollowing, filtering.SocialFollowers, filtering.SocialJustMe:
	default:
		label = "organisation"
	}

	s.domainMetrics.IncFilterEvaluation(label)
	observability.RecordFilterEvaluation(ctx, s.metrics, label, results, elapsed)
}

func restaurantIDs(reviews []*entities.Review) []string {
	seen := make(map[string]struct{}, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if r == nil {
			continue
		}
		if _, ok := seen[r.RestaurantID]; ok {
			continue
		}
		seen[r.RestaurantID] = struct{}{}
		ids = append(ids, r.RestaurantID)
	}
	return ids
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}
