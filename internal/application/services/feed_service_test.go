package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/filtering"
	"github.com/tastefull/backend/internal/domain/visibility"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

// me and colleague share acme; secret is a private acme member; stranger has no organisation.
func newFeedFixture() (*store, *services.FeedService) {
	s := newStore()
	s.addUser("me", false)
	s.addUser("colleague", false)
	s.addUser("secret", true)
	s.addUser("stranger", false)
	s.addOrg("org-acme", "acme", map[string]entities.MembershipRole{
		"me":        entities.MembershipRoleAdmin,
		"colleague": entities.MembershipRoleMember,
		"secret":    entities.MembershipRoleMember,
	})
	s.addRestaurant("espresso", entities.CategoryCoffee)
	s.addRestaurant("crown", entities.CategoryPub)

	// oldest first; addReview keeps newest at the front
	s.addReview("rev-1", "espresso", "colleague", 8, "great flat white")
	s.addReview("rev-2", "crown", "stranger", 4, "sticky tables")
	s.addReview("rev-3", "espresso", "secret", 6, "fine")

	snapshots := services.NewSnapshotService(userRepo{s}, orgRepo{s}, followRepo{s}, restaurantRepo{s}, reviewRepo{s}, nil)
	feed := services.NewFeedService(snapshots, userRepo{s}, restaurantRepo{s}, reviewRepo{s}, nil, observability.NewDomainMetrics())
	return s, feed
}

func byID(reviews []visibility.VisibleReview) map[string]visibility.VisibleReview {
	out := make(map[string]visibility.VisibleReview, len(reviews))
	for _, r := range reviews {
		out[r.ID] = r
	}
	return out
}

func TestFeedService_ListRestaurants(t *testing.T) {
	_, feed := newFeedFixture()
	ctx := context.Background()

	summaries, err := feed.ListRestaurants(ctx, visibility.Viewer{}, filtering.FilterState{Social: filtering.SocialEveryone})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "crown", summaries[0].Restaurant.ID)
	assert.Equal(t, 1, summaries[0].ReviewCount)
	assert.Equal(t, 2, summaries[1].ReviewCount)
	require.NotNil(t, summaries[1].AverageRating)
	assert.InDelta(t, 7.0, *summaries[1].AverageRating, 0.0001)

	coffee, err := feed.ListRestaurants(ctx, visibility.Viewer{}, filtering.FilterState{Categories: []entities.Category{entities.CategoryCoffee}})
	require.NoError(t, err)
	require.Len(t, coffee, 1)
	assert.Equal(t, "espresso", coffee[0].Restaurant.ID)
}

func TestFeedService_ListRestaurants_OrganisationScope(t *testing.T) {
	_, feed := newFeedFixture()

	summaries, err := feed.ListRestaurants(context.Background(), visibility.Viewer{UserID: "me"}, filtering.FilterState{Social: filtering.SocialFilter("acme")})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "espresso", summaries[0].Restaurant.ID)
}

func TestFeedService_RestaurantReviews(t *testing.T) {
	_, feed := newFeedFixture()
	ctx := context.Background()

	t.Run("signed out sees ratings only", func(t *testing.T) {
		reviews, err := feed.RestaurantReviews(ctx, visibility.Viewer{}, "espresso")
		require.NoError(t, err)
		require.Len(t, reviews, 2)
		for _, r := range reviews {
			assert.NotZero(t, r.Rating)
			assert.Nil(t, r.Comment)
			assert.Nil(t, r.Reviewer)
		}
	})

	t.Run("organisation member sees colleague but not private reviewer", func(t *testing.T) {
		reviews, err := feed.RestaurantReviews(ctx, visibility.Viewer{UserID: "me"}, "espresso")
		require.NoError(t, err)

		got := byID(reviews)
		require.NotNil(t, got["rev-1"].Comment)
		assert.Equal(t, "great flat white", *got["rev-1"].Comment)
		assert.Equal(t, "Colleague", got["rev-1"].Reviewer.DisplayName)
		assert.Nil(t, got["rev-3"].Comment)
		assert.Nil(t, got["rev-3"].Reviewer)
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		_, err := feed.RestaurantReviews(ctx, visibility.Viewer{}, "missing")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestFeedService_Feed(t *testing.T) {
	_, feed := newFeedFixture()
	ctx := context.Background()

	reviews, err := feed.Feed(ctx, visibility.Viewer{UserID: "me"}, filtering.FilterState{}, 2)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "rev-3", reviews[0].ID)
	assert.Equal(t, "rev-2", reviews[1].ID)
	require.NotNil(t, reviews[1].Restaurant)
	assert.Equal(t, "crown", reviews[1].Restaurant.ID)
	assert.Nil(t, reviews[1].Comment, "stranger shares no organisation with me")

	pubs, err := feed.Feed(ctx, visibility.Viewer{UserID: "me"}, filtering.FilterState{Categories: []entities.Category{entities.CategoryPub}}, 0)
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, "rev-2", pubs[0].ID)

	mine, err := feed.Feed(ctx, visibility.Viewer{UserID: "me"}, filtering.FilterState{Social: filtering.SocialJustMe}, 0)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestFeedService_OrganisationFeed(t *testing.T) {
	_, feed := newFeedFixture()
	ctx := context.Background()

	t.Run("members only, redacted for page", func(t *testing.T) {
		reviews, err := feed.OrganisationFeed(ctx, visibility.Viewer{UserID: "me"}, "ACME", 0)
		require.NoError(t, err)

		got := byID(reviews)
		assert.Len(t, got, 2)
		assert.NotContains(t, got, "rev-2")
		assert.NotNil(t, got["rev-1"].Comment)
		assert.Nil(t, got["rev-3"].Comment)
		assert.Equal(t, "espresso", got["rev-1"].Restaurant.ID)
	})

	t.Run("page context discloses members to any signed-in viewer", func(t *testing.T) {
		reviews, err := feed.OrganisationFeed(ctx, visibility.Viewer{UserID: "stranger"}, "acme", 0)
		require.NoError(t, err)

		got := byID(reviews)
		assert.NotNil(t, got["rev-1"].Comment)
		assert.Nil(t, got["rev-3"].Comment, "private reviewer still requires a follow")
	})

	t.Run("signed out sees ratings only", func(t *testing.T) {
		reviews, err := feed.OrganisationFeed(ctx, visibility.Viewer{}, "acme", 0)
		require.NoError(t, err)
		require.Len(t, reviews, 2)
		for _, r := range reviews {
			assert.Nil(t, r.Comment)
			assert.Nil(t, r.Reviewer)
		}
	})

	t.Run("unknown organisation", func(t *testing.T) {
		_, err := feed.OrganisationFeed(ctx, visibility.Viewer{}, "nope", 0)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
