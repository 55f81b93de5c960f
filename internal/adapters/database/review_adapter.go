package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const reviewsTable = "reviews"

var reviewColumns = []interface{}{
	"id", "restaurant_id", "user_id", "rating", "value_rating", "taste_rating",
	"comment", "organisation_id", "created_at", "updated_at",
}

// ReviewAdapter implements the ReviewRepository interface
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new review
func (a *ReviewAdapter) Create(ctx context.Context, review *entities.Review) error {
	record := goqu.Record{
		"id":              review.ID,
		"restaurant_id":   review.RestaurantID,
		"user_id":         review.UserID,
		"rating":          review.Rating,
		"value_rating":    nullInt(review.ValueRating),
		"taste_rating":    nullInt(review.TasteRating),
		"comment":         nullString(review.Comment),
		"organisation_id": nullString(review.OrganisationID),
		"created_at":      review.CreatedAt,
		"updated_at":      review.UpdatedAt,
	}

	query, args, err := a.db.Insert(reviewsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return writeError("failed to create review", err)
	}
	return nil
}

// GetByID retrieves a review by ID
func (a *ReviewAdapter) GetByID(ctx context.Context, id string) (*entities.Review, error) {
	query, args, err := a.db.Select(reviewColumns...).From(reviewsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	review, err := scanReview(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get review", err)
	}
	return review, nil
}

// ListByRestaurant retrieves reviews for a restaurant, newest first
func (a *ReviewAdapter) ListByRestaurant(ctx context.Context, restaurantID string) ([]*entities.Review, error) {
	return a.list(ctx, goqu.Ex{"restaurant_id": restaurantID})
}

// ListByUser retrieves reviews by a user, newest first
func (a *ReviewAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.Review, error) {
	return a.list(ctx, goqu.Ex{"user_id": userID})
}

// ListAll retrieves every review, newest first
func (a *ReviewAdapter) ListAll(ctx context.Context) ([]*entities.Review, error) {
	return a.list(ctx, nil)
}

// Update updates a review's ratings and comment
func (a *ReviewAdapter) Update(ctx context.Context, review *entities.Review) error {
	review.UpdatedAt = time.Now()

	query, args, err := a.db.Update(reviewsTable).
		Set(goqu.Record{
			"rating":       review.Rating,
			"value_rating": nullInt(review.ValueRating),
			"taste_rating": nullInt(review.TasteRating),
			"comment":      nullString(review.Comment),
			"updated_at":   review.UpdatedAt,
		}).
		Where(goqu.Ex{"id": review.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update review", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", review.ID))
	}
	return nil
}

// Delete deletes a review
func (a *ReviewAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete(reviewsTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete review", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}
	return nil
}

func (a *ReviewAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.Review, error) {
	ds := a.db.Select(reviewColumns...).From(reviewsTable)
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	query, args, err := ds.Order(goqu.I("created_at").Desc(), goqu.I("id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query reviews", err)
	}
	defer rows.Close()

	reviews := []*entities.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan review", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate reviews", err)
	}
	return reviews, nil
}

func scanReview(row rowScanner) (*entities.Review, error) {
	review := &entities.Review{}
	var value, taste sql.NullInt64
	var comment, organisationID sql.NullString

	err := row.Scan(
		&review.ID,
		&review.RestaurantID,
		&review.UserID,
		&review.Rating,
		&value,
		&taste,
		&comment,
		&organisationID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if value.Valid {
		v := int(value.Int64)
		review.ValueRating = &v
	}
	if taste.Valid {
		v := int(taste.Int64)
		review.TasteRating = &v
	}
	if comment.Valid {
		review.Comment = &comment.String
	}
	if organisationID.Valid {
		review.OrganisationID = &organisationID.String
	}
	return review, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
