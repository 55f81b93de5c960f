package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

// ReviewInput is the writable part of a review
type ReviewInput struct {
	Rating      int     `json:"rating"`
	ValueRating *int    `json:"value_rating,omitempty"`
	TasteRating *int    `json:"taste_rating,omitempty"`
	Comment     *string `json:"comment,omitempty"`
}

// Validate checks rating ranges and comment length, trimming the comment in place.
// A blank comment is cleared.
func (in *ReviewInput) Validate() error {
	if !entities.ValidRating(in.Rating) {
		return apperrors.NewValidationError(fmt.Sprintf("rating must be between %d and %d", entities.MinRating, entities.MaxRating))
	}
	if in.ValueRating != nil && !entities.ValidRating(*in.ValueRating) {
		return apperrors.NewValidationError(fmt.Sprintf("value_rating must be between %d and %d", entities.MinRating, entities.MaxRating))
	}
	if in.TasteRating != nil && !entities.ValidRating(*in.TasteRating) {
		return apperrors.NewValidationError(fmt.Sprintf("taste_rating must be between %d and %d", entities.MinRating, entities.MaxRating))
	}
	if in.Comment != nil {
		comment := strings.TrimSpace(*in.Comment)
		if comment == "" {
			in.Comment = nil
		} else if utf8.RuneCountInString(comment) > entities.MaxCommentLength {
			return apperrors.NewValidationError(fmt.Sprintf("comment must be at most %d characters", entities.MaxCommentLength))
		} else {
			in.Comment = &comment
		}
	}
	return nil
}

// ReviewService handles review writes
type ReviewService struct {
	repo           repositories.ReviewRepository
	restaurantRepo repositories.RestaurantRepository
	searchRepo     repositories.RestaurantSearchRepository
	eventBus       providers.EventBus
	metrics        *observability.DomainMetrics
}

// NewReviewService creates a new review service. searchRepo and eventBus may be nil.
func NewReviewService(
	repo repositories.ReviewRepository,
	restaurantRepo repositories.RestaurantRepository,
	searchRepo repositories.RestaurantSearchRepository,
	eventBus providers.EventBus,
	metrics *observability.DomainMetrics,
) *ReviewService {
	return &ReviewService{
		repo:           repo,
		restaurantRepo: restaurantRepo,
		searchRepo:     searchRepo,
		eventBus:       eventBus,
		metrics:        metrics,
	}
}

// Create stores a new review by viewerID for a restaurant
func (s *ReviewService) Create(ctx context.Context, viewerID, restaurantID string, in ReviewInput) (*entities.Review, error) {
	if viewerID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to write reviews")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &entities.Review{
		ID:           uuid.New().String(),
		RestaurantID: restaurant.ID,
		UserID:       viewerID,
		Rating:       in.Rating,
		ValueRating:  in.ValueRating,
		TasteRating:  in.TasteRating,
		Comment:      in.Comment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entities.ReviewEventTypeCreated, review, restaurant)
	s.metrics.IncReviewWritten("create")
	return review, nil
}

// Update replaces the ratings and comment of the viewer's own review
func (s *ReviewService) Update(ctx context.Context, viewerID, reviewID string, in ReviewInput) (*entities.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	review, err := s.ownedReview(ctx, viewerID, reviewID)
	if err != nil {
		return nil, err
	}

	review.Rating = in.Rating
	review.ValueRating = in.ValueRating
	review.TasteRating = in.TasteRating
	review.Comment = in.Comment
	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entities.ReviewEventTypeUpdated, review, nil)
	s.metrics.IncReviewWritten("update")
	return review, nil
}

// Delete removes the viewer's own review
func (s *ReviewService) Delete(ctx context.Context, viewerID, reviewID string) error {
	review, err := s.ownedReview(ctx, viewerID, reviewID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, review.ID); err != nil {
		return err
	}

	s.afterWrite(ctx, entities.ReviewEventTypeDeleted, review, nil)
	s.metrics.IncReviewWritten("delete")
	return nil
}

func (s *ReviewService) ownedReview(ctx context.Context, viewerID, reviewID string) (*entities.Review, error) {
	if viewerID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to change reviews")
	}
	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != viewerID {
		return nil, apperrors.NewForbiddenError("only the author can change a review")
	}
	return review, nil
}

// afterWrite publishes the review event and refreshes the restaurant's search document.
// Failures are logged; the write itself already succeeded.
func (s *ReviewService) afterWrite(ctx context.Context, eventType entities.ReviewEventType, review *entities.Review, restaurant *entities.Restaurant) {
	if s.eventBus != nil {
		event := entities.NewReviewEvent(eventType, review)
		for _, channel := range []string{providers.EventChannelReviewUpdates, providers.GetRestaurantChannel(review.RestaurantID)} {
			if err := s.eventBus.Publish(ctx, channel, event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Str("review_id", review.ID).Msg("Failed to publish review event")
			}
		}
	}

	if s.searchRepo == nil {
		return
	}
	if restaurant == nil {
		var err error
		if restaurant, err = s.restaurantRepo.GetByID(ctx, review.RestaurantID); err != nil {
			log.Warn().Err(err).Str("restaurant_id", review.RestaurantID).Msg("Failed to load restaurant for indexing")
			return
		}
	}
	reviews, err := s.repo.ListByRestaurant(ctx, review.RestaurantID)
	if err != nil {
		log.Warn().Err(err).Str("restaurant_id", review.RestaurantID).Msg("Failed to load reviews for indexing")
		return
	}
	if err := s.searchRepo.Index(ctx, BuildRestaurantDocument(restaurant, reviews)); err != nil {
		log.Warn().Err(err).Str("restaurant_id", restaurant.ID).Msg("Failed to index restaurant")
	}
}

// BuildRestaurantDocument aggregates all of a restaurant's reviews into its search document
func BuildRestaurantDocument(restaurant *entities.Restaurant, reviews []*entities.Review) repositories.RestaurantDocument {
	doc := repositories.RestaurantDocument{Restaurant: restaurant}
	sum := 0
	for _, r := range reviews {
		if r == nil || r.RestaurantID != restaurant.ID {
			continue
		}
		doc.ReviewCount++
		sum += r.Rating
	}
	if doc.ReviewCount > 0 {
		doc.AverageRating = float64(sum) / float64(doc.ReviewCount)
	}
	return doc
}
