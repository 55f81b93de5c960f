package filtering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/filtering"
	"github.com/tastefull/backend/internal/domain/visibility"
)

func f64(v float64) *float64 { return &v }
func intPtr(v int) *int     { return &v }

func restaurant(id string, categories ...entities.Category) *entities.Restaurant {
	return &entities.Restaurant{ID: id, Name: id, Categories: categories}
}

func rev(id, restaurantID, userID string, rating int, value, taste *int) *entities.Review {
	return &entities.Review{ID: id, RestaurantID: restaurantID, UserID: userID, Rating: rating, ValueRating: value, TasteRating: taste}
}

func ids(restaurants []*entities.Restaurant) []string {
	out := make([]string, len(restaurants))
	for i, r := range restaurants {
		out[i] = r.ID
	}
	return out
}

type fixture struct {
	restaurants []*entities.Restaurant
	reviews     []*entities.Review
	dir         *visibility.Directory
}

// me follows friend; fan follows me; stranger is unrelated; team = {me, colleague}.
func newFixture() fixture {
	users := []*entities.User{{ID: "me"}, {ID: "friend"}, {ID: "fan"}, {ID: "stranger"}, {ID: "colleague"}}
	orgs := []*entities.Organisation{{ID: "org-team", Slug: "team"}}
	memberships := []entities.OrganisationMembership{
		{OrganisationID: "org-team", UserID: "me"},
		{OrganisationID: "org-team", UserID: "colleague"},
	}
	follows := []entities.Follow{
		{FollowerID: "me", FollowingID: "friend"},
		{FollowerID: "fan", FollowingID: "me"},
	}

	return fixture{
		restaurants: []*entities.Restaurant{
			restaurant("espresso-bar", entities.CategoryCoffee, entities.CategoryCafe),
			restaurant("the-crown", entities.CategoryPub),
			restaurant("bistro", entities.CategoryRestaurant),
			restaurant("bakehouse", entities.CategoryBakery, entities.CategoryCoffee),
			restaurant("empty", entities.CategoryPub),
		},
		reviews: []*entities.Review{
			rev("1", "espresso-bar", "me", 9, intPtr(8), intPtr(9)),
			rev("2", "espresso-bar", "stranger", 3, intPtr(2), intPtr(3)),
			rev("3", "the-crown", "friend", 7, nil, intPtr(8)),
			rev("4", "the-crown", "fan", 5, intPtr(5), intPtr(4)),
			rev("5", "bistro", "colleague", 6, intPtr(6), intPtr(7)),
			rev("6", "bakehouse", "stranger", 10, intPtr(10), intPtr(10)),
		},
		dir: visibility.NewDirectory(users, orgs, memberships, follows),
	}
}

func TestApplyFilters_EmptyCategoryIsIdentity(t *testing.T) {
	fx := newFixture()
	got := filtering.ApplyFilters(fx.restaurants, fx.reviews, filtering.FilterState{}, "me", fx.dir)
	assert.Equal(t, fx.restaurants, got)
}

func TestApplyFilters_CategoryOr(t *testing.T) {
	fx := newFixture()
	state := filtering.FilterState{Categories: []entities.Category{entities.CategoryCoffee, entities.CategoryPub}}

	got := filtering.ApplyFilters(fx.restaurants, fx.reviews, state, "me", fx.dir)
	assert.Equal(t, []string{"espresso-bar", "the-crown", "bakehouse", "empty"}, ids(got))
}

func TestApplyFilters_NoDuplicates(t *testing.T) {
	fx := newFixture()
	input := append(fx.restaurants, fx.restaurants[0])
	state := filtering.FilterState{Categories: []entities.Category{entities.CategoryCoffee, entities.CategoryCafe}}

	got := filtering.ApplyFilters(input, fx.reviews, state, "me", fx.dir)
	assert.Equal(t, []string{"espresso-bar", "bakehouse"}, ids(got))
}

func TestApplyFilters_SocialScopes(t *testing.T) {
	fx := newFixture()

	tests := []struct {
		name     string
		social   filtering.SocialFilter
		viewerID string
		expected []string
	}{
		{"everyone", filtering.SocialEveryone, "me", []string{"espresso-bar", "the-crown", "bistro", "bakehouse", "empty"}},
		{"following", filtering.SocialFollowing, "me", []string{"the-crown"}},
		{"followers", filtering.SocialFollowers, "me", []string{"the-crown"}},
		{"just me", filtering.SocialJustMe, "me", []string{"espresso-bar"}},
		{"organisation slug", filtering.SocialFilter("team"), "me", []string{"espresso-bar", "bistro"}},
		{"unknown slug", filtering.SocialFilter("nope"), "me", []string{}},
		{"signed out following", filtering.SocialFollowing, "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filtering.ApplyFilters(fx.restaurants, fx.reviews, filtering.FilterState{Social: tt.social}, tt.viewerID, fx.dir)
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestApplyFilters_RatingThresholdsUseFilteredAverages(t *testing.T) {
	fx := newFixture()

	// Globally espresso-bar averages 6 overall; restricted to "just me" it is 9.
	global := filtering.FilterState{MinOverallRating: f64(7)}
	assert.NotContains(t, ids(filtering.ApplyFilters(fx.restaurants, fx.reviews, global, "me", fx.dir)), "espresso-bar")

	scoped := filtering.FilterState{MinOverallRating: f64(7), Social: filtering.SocialJustMe}
	assert.Equal(t, []string{"espresso-bar"}, ids(filtering.ApplyFilters(fx.restaurants, fx.reviews, scoped, "me", fx.dir)))
}

func TestApplyFilters_CombinedThresholds(t *testing.T) {
	fx := newFixture()

	both := filtering.FilterState{MinOverallRating: f64(6), MinTasteRating: f64(8)}
	got := ids(filtering.ApplyFilters(fx.restaurants, fx.reviews, both, "me", fx.dir))
	assert.Equal(t, []string{"bakehouse"}, got)

	overallOnly := filtering.FilterState{MinOverallRating: f64(6)}
	relaxed := ids(filtering.ApplyFilters(fx.restaurants, fx.reviews, overallOnly, "me", fx.dir))
	assert.Subset(t, relaxed, got)
	assert.Equal(t, []string{"espresso-bar", "the-crown", "bistro", "bakehouse"}, relaxed)

	tasteOnly := filtering.FilterState{MinTasteRating: f64(8)}
	assert.Subset(t, ids(filtering.ApplyFilters(fx.restaurants, fx.reviews, tasteOnly, "me", fx.dir)), got)
}

func TestApplyFilters_RatingFilterExcludesUnreviewed(t *testing.T) {
	fx := newFixture()

	got := ids(filtering.ApplyFilters(fx.restaurants, fx.reviews, filtering.FilterState{MinOverallRating: f64(1)}, "me", fx.dir))
	assert.NotContains(t, got, "empty")

	// the-crown has one review without a value rating and one with 5
	got = ids(filtering.ApplyFilters(fx.restaurants, fx.reviews,
		filtering.FilterState{MinValueRating: f64(5), Social: filtering.SocialFollowing}, "me", fx.dir))
	assert.Empty(t, got, "friend's review carries no value rating")
}

func TestApplyFilters_Idempotent(t *testing.T) {
	fx := newFixture()
	state := filtering.FilterState{
		Categories:       []entities.Category{entities.CategoryCoffee, entities.CategoryPub},
		MinOverallRating: f64(5),
		Social:           filtering.SocialEveryone,
	}

	first := filtering.Evaluate(fx.restaurants, fx.reviews, state, "me", fx.dir)
	second := filtering.Evaluate(fx.restaurants, fx.reviews, state, "me", fx.dir)
	assert.Equal(t, first, second)
}

func TestEvaluate_Summaries(t *testing.T) {
	fx := newFixture()

	summaries := filtering.Evaluate(fx.restaurants, fx.reviews, filtering.FilterState{}, "me", fx.dir)
	require.Len(t, summaries, 5)

	espresso := summaries[0]
	assert.Equal(t, 2, espresso.ReviewCount)
	require.NotNil(t, espresso.AverageRating)
	assert.InDelta(t, 6.0, *espresso.AverageRating, 0.0001)
	assert.InDelta(t, 5.0, *espresso.AverageValue, 0.0001)

	crown := summaries[1]
	assert.InDelta(t, 5.0, *crown.AverageValue, 0.0001, "value averaged only over reviews that carry it")

	empty := summaries[4]
	assert.Equal(t, 0, empty.ReviewCount)
	assert.Nil(t, empty.AverageRating)
}

func TestScopeReviews_NilSafe(t *testing.T) {
	got := filtering.ScopeReviews([]*entities.Review{nil, rev("1", "r", "me", 5, nil, nil)}, filtering.SocialJustMe, "me", nil)
	require.Len(t, got, 1)

	assert.Empty(t, filtering.ScopeReviews(nil, filtering.SocialFilter("team"), "me", nil))
}
