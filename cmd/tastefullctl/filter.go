package main

import (
	"encoding/json"
	"net/url"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/tastefull/backend/internal/adapters/database"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/filtering"
	"github.com/tastefull/backend/internal/domain/visibility"
)

const (
	viewerFlag     = "viewer"
	socialFlag     = "social"
	categoriesFlag = "categories"
	minRatingFlag  = "min-rating"
	minValueFlag   = "min-value"
	minTasteFlag   = "min-taste"
)

var filterFlags = map[string]cobraflags.Flag{
	viewerFlag: &cobraflags.StringFlag{
		Name:  viewerFlag,
		Usage: "User ID to evaluate as; empty evaluates as a signed-out visitor",
	},
	socialFlag: &cobraflags.StringFlag{
		Name:  socialFlag,
		Value: string(filtering.SocialEveryone),
		Usage: "everyone, following, followers, just_me or an organisation slug",
	},
	categoriesFlag: &cobraflags.StringFlag{
		Name:  categoriesFlag,
		Usage: "Comma-separated categories, matched with OR",
	},
	minRatingFlag: &cobraflags.StringFlag{
		Name:  minRatingFlag,
		Usage: "Minimum average overall rating (1-10)",
	},
	minValueFlag: &cobraflags.StringFlag{
		Name:  minValueFlag,
		Usage: "Minimum average value rating (1-10)",
	},
	minTasteFlag: &cobraflags.StringFlag{
		Name:  minTasteFlag,
		Usage: "Minimum average taste rating (1-10)",
	},
}

func newFilterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Evaluate a restaurant filter and print the matching summaries as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := filtering.ParseFilterState(filterQuery())
			if err != nil {
				return err
			}

			_, client, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			userRepo := database.NewUserAdapter(client)
			restaurantRepo := database.NewRestaurantAdapter(client)
			reviewRepo := database.NewReviewAdapter(client)
			snapshots := services.NewSnapshotService(
				userRepo,
				database.NewOrganisationAdapter(client),
				database.NewFollowAdapter(client),
				restaurantRepo,
				reviewRepo,
				nil,
			)
			feed := services.NewFeedService(snapshots, userRepo, restaurantRepo, reviewRepo, nil, nil)

			viewer := visibility.Viewer{UserID: filterFlags[viewerFlag].GetString()}
			summaries, err := feed.ListRestaurants(cmd.Context(), viewer, state)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"restaurants": summaries,
				"count":       len(summaries),
				"filters":     state,
			})
		},
	}
	cobraflags.RegisterMap(cmd, filterFlags)
	return cmd
}

func filterQuery() url.Values {
	values := url.Values{}
	params := map[string]string{
		socialFlag:     filtering.ParamSocial,
		categoriesFlag: filtering.ParamCategories,
		minRatingFlag:  filtering.ParamMinRating,
		minValueFlag:   filtering.ParamMinValue,
		minTasteFlag:   filtering.ParamMinTaste,
	}
	for flag, param := range params {
		if v := filterFlags[flag].GetString(); v != "" {
			values.Set(param, v)
		}
	}
	return values
}
