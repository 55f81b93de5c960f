// Package filtering composes the category, rating and social filters applied to the
// restaurant list and review feed.
//
// Category selection is disjunctive; every other filter is conjunctive. Averages are always
// recomputed over the reviews that pass the social filter.
package filtering

import (
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/visibility"
)

// SocialFilter restricts whose reviews are considered. Any value other than the
// constants below is treated as an organisation slug.
type SocialFilter string

const (
	SocialEveryone  SocialFilter = "everyone"
	SocialFollowing SocialFilter = "following"
	SocialFollowers SocialFilter = "followers"
	SocialJustMe    SocialFilter = "just_me"
)

// FilterState is the complete set of filters chosen by the viewer
type FilterState struct {
	Categories       []entities.Category `json:"categories,omitempty"`
	MinOverallRating *float64            `json:"min_rating,omitempty"`
	MinValueRating   *float64            `json:"min_value,omitempty"`
	MinTasteRating   *float64            `json:"min_taste,omitempty"`
	Social           SocialFilter        `json:"social,omitempty"`
}

// RestaurantSummary is a restaurant with averages computed over its in-scope reviews
type RestaurantSummary struct {
	Restaurant    *entities.Restaurant `json:"restaurant"`
	ReviewCount   int                  `json:"review_count"`
	AverageRating *float64             `json:"average_rating"`
	AverageValue  *float64             `json:"average_value"`
	AverageTaste  *float64             `json:"average_taste"`
}

// ReviewerScope resolves the social filter to the set of reviewers whose reviews count.
// restricted is false only for the everyone filter, in which case scope is nil.
func ReviewerScope(social SocialFilter, viewerID string, dir *visibility.Directory) (scope visibility.UserSet, restricted bool) {
	switch social {
	case "", SocialEveryone:
		return nil, false
	case SocialFollowing:
		if viewerID == "" {
			return visibility.UserSet{}, true
		}
		return dir.Following(viewerID), true
	case SocialFollowers:
		if viewerID == "" {
			return visibility.UserSet{}, true
		}
		return dir.Followers(viewerID), true
	case SocialJustMe:
		if viewerID == "" {
			return visibility.UserSet{}, true
		}
		return visibility.UserSet{viewerID: {}}, true
	default:
		org := dir.OrganisationBySlug(string(social))
		if org == nil {
			return visibility.UserSet{}, true
		}
		return dir.MembersOf(org.ID), true
	}
}

// ScopeReviews returns the reviews written by reviewers inside the social scope, preserving order
func ScopeReviews(reviews []*entities.Review, social SocialFilter, viewerID string, dir *visibility.Directory) []*entities.Review {
	scope, restricted := ReviewerScope(social, viewerID, dir)
	out := make([]*entities.Review, 0, len(reviews))
	for _, review := range reviews {
		if review == nil {
			continue
		}
		if restricted && !scope.Has(review.UserID) {
			continue
		}
		out = append(out, review)
	}
	return out
}

// MatchesCategories reports whether the restaurant carries at least one selected category.
// An empty selection matches everything.
func MatchesCategories(restaurant *entities.Restaurant, selected []entities.Category) bool {
	if len(selected) == 0 {
		return true
	}
	for _, c := range selected {
		if restaurant.HasCategory(c) {
			return true
		}
	}
	return false
}

// Evaluate returns a summary for every restaurant that passes all active filters, in input order
func Evaluate(
	restaurants []*entities.Restaurant,
	reviews []*entities.Review,
	state FilterState,
	viewerID string,
	dir *visibility.Directory,
) []RestaurantSummary {
	_, restricted := ReviewerScope(state.Social, viewerID, dir)

	byRestaurant := make(map[string][]*entities.Review)
	for _, review := range ScopeReviews(reviews, state.Social, viewerID, dir) {
		byRestaurant[review.RestaurantID] = append(byRestaurant[review.RestaurantID], review)
	}

	seen := make(map[string]struct{}, len(restaurants))
	out := make([]RestaurantSummary, 0, len(restaurants))
	for _, restaurant := range restaurants {
		if restaurant == nil {
			continue
		}
		if _, dup := seen[restaurant.ID]; dup {
			continue
		}
		seen[restaurant.ID] = struct{}{}

		if !MatchesCategories(restaurant, state.Categories) {
			continue
		}

		agg := aggregate(byRestaurant[restaurant.ID])
		if restricted && agg.count == 0 {
			continue
		}
		if !meets(agg.overall(), state.MinOverallRating) ||
			!meets(agg.value(), state.MinValueRating) ||
			!meets(agg.taste(), state.MinTasteRating) {
			continue
		}

		out = append(out, RestaurantSummary{
			Restaurant:    restaurant,
			ReviewCount:   agg.count,
			AverageRating: agg.overall(),
			AverageValue:  agg.value(),
			AverageTaste:  agg.taste(),
		})
	}

	return out
}

// ApplyFilters returns the restaurants that pass all active filters, in input order
func ApplyFilters(
	restaurants []*entities.Restaurant,
	reviews []*entities.Review,
	state FilterState,
	viewerID string,
	dir *visibility.Directory,
) []*entities.Restaurant {
	summaries := Evaluate(restaurants, reviews, state, viewerID, dir)
	out := make([]*entities.Restaurant, len(summaries))
	for i, s := range summaries {
		out[i] = s.Restaurant
	}
	return out
}

// meets reports whether avg satisfies an optional minimum. An inactive threshold always
// passes; an active one fails when there is nothing to average.
func meets(avg *float64, threshold *float64) bool {
	if threshold == nil {
		return true
	}
	return avg != nil && *avg >= *threshold
}

type ratingAggregate struct {
	count      int
	sum        int
	valueCount int
	valueSum   int
	tasteCount int
	tasteSum   int
}

func aggregate(reviews []*entities.Review) ratingAggregate {
	var agg ratingAggregate
	for _, r := range reviews {
		agg.count++
		agg.sum += r.Rating
		if r.ValueRating != nil {
			agg.valueCount++
			agg.valueSum += *r.ValueRating
		}
		if r.TasteRating != nil {
			agg.tasteCount++
			agg.tasteSum += *r.TasteRating
		}
	}
	return agg
}

func (a ratingAggregate) overall() *float64 { return average(a.sum, a.count) }
func (a ratingAggregate) value() *float64   { return average(a.valueSum, a.valueCount) }
func (a ratingAggregate) taste() *float64   { return average(a.tasteSum, a.tasteCount) }

func average(sum, count int) *float64 {
	if count == 0 {
		return nil
	}
	avg := float64(sum) / float64(count)
	return &avg
}
