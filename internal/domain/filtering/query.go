package filtering

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tastefull/backend/internal/domain/entities"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

// Query parameter names understood by ParseFilterState
const (
	ParamCategories = "categories"
	ParamMinRating  = "min_rating"
	ParamMinValue   = "min_value"
	ParamMinTaste   = "min_taste"
	ParamSocial     = "social"
)

// ParseFilterState decodes filters from URL query parameters. Categories may be repeated or
// comma separated; unknown categories are ignored. Malformed or out of range thresholds are
// validation errors.
func ParseFilterState(values url.Values) (FilterState, error) {
	state := FilterState{Social: SocialEveryone}

	seen := make(map[entities.Category]struct{})
	for _, raw := range values[ParamCategories] {
		for _, part := range strings.Split(raw, ",") {
			c, ok := entities.ParseCategory(part)
			if !ok {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			state.Categories = append(state.Categories, c)
		}
	}

	var err error
	if state.MinOverallRating, err = parseThreshold(values, ParamMinRating); err != nil {
		return FilterState{}, err
	}
	if state.MinValueRating, err = parseThreshold(values, ParamMinValue); err != nil {
		return FilterState{}, err
	}
	if state.MinTasteRating, err = parseThreshold(values, ParamMinTaste); err != nil {
		return FilterState{}, err
	}

	if social := strings.TrimSpace(values.Get(ParamSocial)); social != "" {
		state.Social = SocialFilter(strings.ToLower(social))
	}

	return state, nil
}

func parseThreshold(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be a number", key))
	}
	if v < entities.MinRating || v > entities.MaxRating {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be between %d and %d", key, entities.MinRating, entities.MaxRating))
	}
	return &v, nil
}
