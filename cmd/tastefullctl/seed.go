package main

import (
	"context"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/tastefull/backend/internal/adapters/database"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/entities"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const seedOrgFlag = "org-slug"

var seedFlags = map[string]cobraflags.Flag{
	seedOrgFlag: &cobraflags.StringFlag{
		Name:  seedOrgFlag,
		Value: "acme",
		Usage: "Slug of the primary demo organisation; seeding is skipped when it exists",
	},
}

type seedUser struct {
	id      string
	email   string
	name    string
	private bool
}

type seedRestaurant struct {
	name       string
	cuisine    string
	city       string
	categories []string
}

type seedReview struct {
	user       string
	restaurant int
	rating     int
	value      int
	taste      int
	comment    string
}

var (
	demoUsers = []seedUser{
		{id: "seed-ada", email: "ada@acme.test", name: "Ada"},
		{id: "seed-grace", email: "grace@acme.test", name: "Grace"},
		{id: "seed-linus", email: "linus@acme.test", name: "Linus", private: true},
		{id: "seed-margaret", email: "margaret@globex.test", name: "Margaret"},
	}

	demoRestaurants = []seedRestaurant{
		{name: "Espresso Bar", cuisine: "Italian", city: "London", categories: []string{"coffee", "cafe"}},
		{name: "The Crown", cuisine: "British", city: "London", categories: []string{"pub"}},
		{name: "Bistro Nord", cuisine: "French", city: "London", categories: []string{"restaurant", "brunch"}},
		{name: "Bakehouse", cuisine: "Bakery", city: "Leeds", categories: []string{"bakery", "coffee"}},
	}

	demoReviews = []seedReview{
		{user: "seed-ada", restaurant: 0, rating: 9, value: 8, taste: 9, comment: "Best flat white on the street."},
		{user: "seed-grace", restaurant: 0, rating: 7, value: 6, taste: 8},
		{user: "seed-linus", restaurant: 1, rating: 6, value: 7, taste: 5, comment: "Fine for a Friday pint."},
		{user: "seed-margaret", restaurant: 2, rating: 8, value: 5, taste: 9, comment: "Pricey but worth it."},
		{user: "seed-grace", restaurant: 3, rating: 10, value: 9, taste: 10, comment: "Cardamom buns sell out by ten."},
	}
)

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, organisations, restaurants and reviews",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := connectMigrated(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			userRepo := database.NewUserAdapter(client)
			orgRepo := database.NewOrganisationAdapter(client)
			followRepo := database.NewFollowAdapter(client)
			restaurantRepo := database.NewRestaurantAdapter(client)
			reviewRepo := database.NewReviewAdapter(client)

			s := seeder{
				users:       services.NewUserService(userRepo),
				orgs:        services.NewOrganisationService(orgRepo, userRepo, restaurantRepo),
				social:      services.NewSocialService(followRepo, userRepo, restaurantRepo, nil, nil),
				restaurants: services.NewRestaurantService(restaurantRepo, nil),
				reviews:     services.NewReviewService(reviewRepo, restaurantRepo, nil, nil, nil),
			}

			slug := seedFlags[seedOrgFlag].GetString()
			if _, err := s.orgs.GetBySlug(cmd.Context(), slug); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "organisation %q exists, skipping seed\n", slug)
				return nil
			} else if !apperrors.IsNotFound(err) {
				return err
			}

			if err := s.run(cmd.Context(), slug); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d restaurants, %d reviews\n",
				len(demoUsers), len(demoRestaurants), len(demoReviews))
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, seedFlags)
	return cmd
}

type seeder struct {
	users       *services.UserService
	orgs        *services.OrganisationService
	social      *services.SocialService
	restaurants *services.RestaurantService
	reviews     *services.ReviewService
}

func (s seeder) run(ctx context.Context, slug string) error {
	for _, u := range demoUsers {
		if _, err := s.users.Me(ctx, u.id, u.email, u.name); err != nil {
			return fmt.Errorf("user %s: %w", u.id, err)
		}
		if u.private {
			private := true
			if _, err := s.users.UpdateProfile(ctx, u.id, services.ProfileUpdate{IsPrivate: &private}); err != nil {
				return fmt.Errorf("user %s: %w", u.id, err)
			}
		}
	}

	if _, err := s.orgs.Create(ctx, "seed-ada", "Acme", slug); err != nil {
		return err
	}
	for _, member := range []string{"seed-grace", "seed-linus"} {
		if _, err := s.orgs.AddMember(ctx, "seed-ada", slug, member, entities.MembershipRoleMember); err != nil {
			return err
		}
	}
	globex, err := s.orgs.Create(ctx, "seed-margaret", "Globex", "")
	if err != nil {
		return err
	}
	if _, err := s.orgs.AddMember(ctx, "seed-margaret", globex.Slug, "seed-grace", entities.MembershipRoleMember); err != nil {
		return err
	}

	restaurantIDs := make([]string, len(demoRestaurants))
	for i, r := range demoRestaurants {
		created, err := s.restaurants.Create(ctx, "seed-ada", services.RestaurantInput{
			Name:       r.name,
			Cuisine:    r.cuisine,
			Categories: r.categories,
			Address:    entities.Address{City: r.city, Country: "GB"},
		})
		if err != nil {
			return fmt.Errorf("restaurant %s: %w", r.name, err)
		}
		restaurantIDs[i] = created.ID
	}

	for _, r := range demoReviews {
		in := services.ReviewInput{Rating: r.rating, ValueRating: &r.value, TasteRating: &r.taste}
		if r.comment != "" {
			comment := r.comment
			in.Comment = &comment
		}
		if _, err := s.reviews.Create(ctx, r.user, restaurantIDs[r.restaurant], in); err != nil {
			return fmt.Errorf("review by %s: %w", r.user, err)
		}
	}

	if _, err := s.social.Follow(ctx, "seed-ada", "seed-grace"); err != nil {
		return err
	}
	if _, err := s.social.Follow(ctx, "seed-grace", "seed-linus"); err != nil {
		return err
	}
	requests, err := s.social.IncomingRequests(ctx, "seed-linus")
	if err != nil {
		return err
	}
	for _, r := range requests {
		if err := s.social.Accept(ctx, "seed-linus", r.Request.ID); err != nil {
			return err
		}
	}
	return nil
}
