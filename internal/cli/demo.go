package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/relay"
	"github.com/spf13/cobra"
)

func (a *app) demoCmd() *cobra.Command {
	var (
		catalogUser int
		apiUser     int
		reviewer    string
		reviewBook  int
		linger      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the end-to-end demonstration",
		Long: `demo reads a user from the local catalog, launches the API process (unless it
was already started with --launch), fetches an account as the administrator,
posts a review as a customer and shuts the API down again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.displayWithTime("Application started")

			st, err := a.openStore()
			if err != nil {
				return err
			}
			u, err := st.GetUser(catalogUser)
			st.Close()
			if err != nil {
				return err
			}
			a.displayWithTime(fmt.Sprintf("User%02d info: %s", catalogUser, mustJSON(u)))

			if !a.launch {
				if err := a.startAPI(ctx); err != nil {
					return err
				}
			}

			details := a.api.GetUserDetails(ctx, a.creds(), apiUser)
			a.displayWithTime(fmt.Sprintf("User details response: %s", mustJSON(details)))

			review := a.api.AddBookReview(ctx, relay.Credentials{UserID: reviewer, Password: a.cfg.DefaultPassword}, reviewBook, bigbooks.BookReviewAdd{
				Score:       7,
				Description: "Great book, highly recommend!",
			})
			a.displayWithTime(fmt.Sprintf("Book review response: %s", mustJSON(review)))

			if linger > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(linger):
				}
			}
			a.endAPI()
			a.displayWithTime("Application exiting")
			if err := details.Err(); err != nil {
				return fmt.Errorf("get user %d: %w", apiUser, err)
			}
			return envelopeError("add review", review)
		},
	}
	cmd.Flags().IntVar(&catalogUser, "catalog-user", 3, "User key read from the local catalog")
	cmd.Flags().IntVar(&apiUser, "api-user", 22, "User key fetched through the API")
	cmd.Flags().StringVar(&reviewer, "reviewer", "Savannah.Miller@demo.com", "Account that posts the review")
	cmd.Flags().IntVar(&reviewBook, "review-book", 12, "Book key to review")
	cmd.Flags().DurationVar(&linger, "linger", 2*time.Second, "Pause before shutting the API down")
	return cmd
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
