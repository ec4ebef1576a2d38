package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/format"
	"github.com/oremus-labs/bigbooks-relay/internal/randomdata"
	"github.com/spf13/cobra"
)

func (a *app) booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse, add and review books",
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Show a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			env := a.api.GetBookDetails(cmd.Context(), a.creds(), key)
			if err := envelopeError(fmt.Sprintf("get book %d", key), env); err != nil {
				return err
			}
			return a.renderBook(*env.Data)
		},
	}

	genreCmd := &cobra.Command{
		Use:   "genre <name>",
		Short: "List the books in a genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			genre, err := bigbooks.ParseGenre(args[0])
			if err != nil {
				return err
			}
			env := a.api.GetBooksByGenre(cmd.Context(), a.creds(), genre)
			if err := envelopeError("list genre "+genre.String(), env); err != nil {
				return err
			}
			books := *env.Data
			return a.render(books, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "KEY\tTITLE\tAUTHOR\tRATING\n")
				for _, b := range books {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.Key, b.Title, b.Author, rating(b.Rating))
				}
			})
		},
	}

	reviewsCmd := &cobra.Command{
		Use:   "reviews <key>",
		Short: "List the reviews of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			env := a.api.GetBookReviews(cmd.Context(), a.creds(), key)
			if err := envelopeError(fmt.Sprintf("list reviews of book %d", key), env); err != nil {
				return err
			}
			reviews := *env.Data
			return a.render(reviews, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "KEY\tSCORE\tUSER\tDATE\tDESCRIPTION\n")
				for _, r := range reviews {
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", r.ReviewKey, r.Score, orDash(r.User), r.ReviewDate, orDash(r.Description))
				}
			})
		},
	}

	var (
		score     int
		anonymous bool
		text      string
		random    bool
	)
	reviewCmd := &cobra.Command{
		Use:   "review <key>",
		Short: "Post a review of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			review := bigbooks.BookReviewAdd{Score: score, IsAnonymous: anonymous, Description: text}
			if random {
				review = randomdata.Default().BookReviewAdd()
			} else if score < 1 || score > 10 {
				return fmt.Errorf("--score must be between 1 and 10")
			}
			env := a.api.AddBookReview(cmd.Context(), a.creds(), key, review)
			if err := envelopeError(fmt.Sprintf("review book %d", key), env); err != nil {
				return err
			}
			r := *env.Data
			return a.render(r, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "KEY\tBOOK\tSCORE\tUSER\tDESCRIPTION\n")
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", r.ReviewKey, r.BookTitle, r.Score, orDash(r.User), orDash(r.Description))
			})
		},
	}
	reviewCmd.Flags().IntVar(&score, "score", 0, "Score from 1 to 10")
	reviewCmd.Flags().BoolVar(&anonymous, "anonymous", false, "Hide the reviewer's name")
	reviewCmd.Flags().StringVar(&text, "text", "", "Review text")
	reviewCmd.Flags().BoolVar(&random, "random", false, "Post a random review")

	var (
		book      bigbooks.BookAddUpdate
		genreName string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format.IsBlank(book.Title) || format.IsBlank(book.Author) {
				return fmt.Errorf("--title and --author are required")
			}
			genre, err := bigbooks.ParseGenre(genreName)
			if err != nil {
				return err
			}
			book.Genre = genre
			env := a.api.AddBook(cmd.Context(), a.creds(), book)
			if err := envelopeError("add book", env); err != nil {
				return err
			}
			return a.renderBook(*env.Data)
		},
	}
	addCmd.Flags().StringVar(&book.Title, "title", "", "Title")
	addCmd.Flags().StringVar(&book.Author, "author", "", "Author")
	addCmd.Flags().StringVar(&book.Isbn, "isbn", "", "ISBN")
	addCmd.Flags().StringVar(&book.Description, "description", "", "Description")
	addCmd.Flags().StringVar(&genreName, "genre", "Fiction", "Genre name")
	addCmd.Flags().Float64Var(&book.Price, "price", 0, "Price in USD")
	addCmd.Flags().IntVar(&book.StockQuantity, "stock", 0, "Copies in stock")

	cmd.AddCommand(getCmd, genreCmd, reviewsCmd, reviewCmd, addCmd)
	return cmd
}

func (a *app) renderBook(b bigbooks.BookDetails) error {
	return a.render(b, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "KEY\tTITLE\tAUTHOR\tGENRE\tISBN\tPRICE\tIN STOCK\tRATING\tREVIEWS\n")
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%d\n",
			b.Key,
			b.Title,
			b.Author,
			b.Genre,
			orDash(b.Isbn),
			format.USD(b.Price),
			b.InStock,
			rating(b.Rating),
			b.Reviews)
	})
}
