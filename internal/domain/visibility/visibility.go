// Package visibility decides which parts of a review a viewer may see.
//
// Ratings are public. The reviewer's identity and comment are disclosed only to signed-in
// viewers who share an organisation with the reviewer (or, on an organisation page, when
// the reviewer belongs to that organisation). Private reviewers additionally require the
// viewer to be them or to follow them. Every function here is pure and never fails: missing
// data resolves to the hidden outcome.
package visibility

import (
	"time"

	"github.com/tastefull/backend/internal/domain/entities"
)

// Viewer identifies who is looking and in which context
type Viewer struct {
	// UserID is empty for signed-out viewers
	UserID string
	// PageOrganisationID is set when the viewer is on a single organisation's page
	PageOrganisationID string
}

// SignedIn reports whether the viewer is authenticated
func (v Viewer) SignedIn() bool {
	return v.UserID != ""
}

// Context pairs a viewer with the directory used to resolve relationships
type Context struct {
	Viewer    Viewer
	Directory *Directory
}

// NewContext creates a viewer context
func NewContext(viewer Viewer, directory *Directory) *Context {
	return &Context{Viewer: viewer, Directory: directory}
}

// FieldVisibility is the per-field disclosure decision for a review
type FieldVisibility struct {
	Rating       bool `json:"rating"`
	ReviewerName bool `json:"reviewer_name"`
	Comment      bool `json:"comment"`
}

// IsReviewVisible computes what the viewer may see of a review
func IsReviewVisible(review *entities.Review, vc *Context) FieldVisibility {
	result := FieldVisibility{Rating: true}
	if review == nil || vc == nil || !vc.Viewer.SignedIn() {
		return result
	}

	dir := vc.Directory
	reviewer := dir.User(review.UserID)
	if reviewer == nil {
		return result
	}

	viewerID := vc.Viewer.UserID
	if !organisationAllows(reviewer.ID, vc) {
		return result
	}

	if reviewer.IsPrivate && reviewer.ID != viewerID && !dir.Follows(viewerID, reviewer.ID) {
		return result
	}

	result.ReviewerName = true
	result.Comment = true
	return result
}

func organisationAllows(reviewerID string, vc *Context) bool {
	if page := vc.Viewer.PageOrganisationID; page != "" {
		return vc.Directory.MembersOf(page).Has(reviewerID)
	}
	return vc.Directory.SharesOrganisation(vc.Viewer.UserID, reviewerID)
}

// VisibleReview is a review with hidden fields removed
type VisibleReview struct {
	ID           string                  `json:"id"`
	RestaurantID string                  `json:"restaurant_id"`
	Rating       int                     `json:"rating"`
	ValueRating  *int                    `json:"value_rating,omitempty"`
	TasteRating  *int                    `json:"taste_rating,omitempty"`
	Reviewer     *entities.PublicProfile `json:"reviewer,omitempty"`
	Comment      *string                 `json:"comment,omitempty"`
	IsOwn        bool                    `json:"is_own"`
	Visibility   FieldVisibility         `json:"visibility"`
	CreatedAt    time.Time               `json:"created_at"`
	Restaurant   *entities.Restaurant    `json:"restaurant,omitempty"`
}

// Redact applies a visibility decision to a review. A nil review yields the zero value.
func Redact(review *entities.Review, vis FieldVisibility, vc *Context) VisibleReview {
	if review == nil {
		return VisibleReview{}
	}
	out := VisibleReview{
		ID:           review.ID,
		RestaurantID: review.RestaurantID,
		Rating:       review.Rating,
		ValueRating:  review.ValueRating,
		TasteRating:  review.TasteRating,
		Visibility:   vis,
		CreatedAt:    review.CreatedAt,
	}

	if vc != nil && vc.Viewer.SignedIn() && vc.Viewer.UserID == review.UserID {
		out.IsOwn = true
	}

	if vis.ReviewerName && vc != nil {
		if reviewer := vc.Directory.User(review.UserID); reviewer != nil {
			profile := reviewer.Profile()
			out.Reviewer = &profile
		}
	}
	if vis.Comment && review.Comment != nil {
		comment := *review.Comment
		out.Comment = &comment
	}

	return out
}

// RedactAll applies IsReviewVisible and Redact to every non-nil review, preserving order
func RedactAll(reviews []*entities.Review, vc *Context) []VisibleReview {
	out := make([]VisibleReview, 0, len(reviews))
	for _, review := range reviews {
		if review == nil {
			continue
		}
		out = append(out, Redact(review, IsReviewVisible(review, vc), vc))
	}
	return out
}
