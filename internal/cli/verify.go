package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
	"github.com/oremus-labs/bigbooks-relay/internal/relay"
	"github.com/oremus-labs/bigbooks-relay/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// bookCheck is the result of comparing one book's API view with its catalog row.
type bookCheck struct {
	Key      int      `json:"key"`
	Title    string   `json:"title"`
	OK       bool     `json:"ok"`
	Problems []string `json:"problems,omitempty"`
}

func (a *app) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-check API responses against the local catalog",
	}

	var parallel int
	booksCmd := &cobra.Command{
		Use:   "books [key...]",
		Short: "Compare book details with catalog rows (all books when no key is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			keys, err := verifyKeys(st, args)
			if err != nil {
				return err
			}
			checks, err := a.verifyBooks(cmd.Context(), st, keys, parallel)
			if err != nil {
				return err
			}

			failed := 0
			for _, c := range checks {
				if !c.OK {
					failed++
				}
			}
			if err := a.render(checks, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "KEY\tTITLE\tRESULT\tPROBLEMS\n")
				for _, c := range checks {
					result := "ok"
					if !c.OK {
						result = "MISMATCH"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.Key, orDash(c.Title), result, orDash(strings.Join(c.Problems, "; ")))
				}
			}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d books failed verification", failed, len(checks))
			}
			return nil
		},
	}
	booksCmd.Flags().IntVar(&parallel, "parallel", 4, "Maximum concurrent API calls")

	cmd.AddCommand(booksCmd)
	return cmd
}

func verifyKeys(st *store.Store, args []string) ([]int, error) {
	if len(args) == 0 {
		books, err := st.ListBooks()
		if err != nil {
			return nil, err
		}
		keys := make([]int, 0, len(books))
		for _, b := range books {
			keys = append(keys, b.Key)
		}
		return keys, nil
	}
	keys := make([]int, 0, len(args))
	for _, raw := range args {
		key, err := parseKey(raw)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// verifyBooks checks every key concurrently. A transport failure stops the
// run; any other failure is reported on that book's row.
func (a *app) verifyBooks(ctx context.Context, st *store.Store, keys []int, parallel int) ([]bookCheck, error) {
	if parallel <= 0 {
		parallel = 1
	}
	checks := make([]bookCheck, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, key := range keys {
		g.Go(func() error {
			check := bookCheck{Key: key}
			defer func() { checks[i] = check }()

			expected, err := st.GetBook(key)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					check.Problems = append(check.Problems, "not in catalog")
					return nil
				}
				return err
			}
			check.Title = expected.Title

			env := a.api.GetBookDetails(gctx, a.creds(), key)
			if errors.Is(env.Err(), relay.ErrTransport) {
				return env.Err()
			}
			if !env.OK() {
				check.Problems = append(check.Problems, env.Err().Error())
				return nil
			}
			check.Problems = compareBook(expected, env.Data)
			check.OK = len(check.Problems) == 0
			logutil.Debug("verified book", map[string]interface{}{"key": key, "ok": check.OK})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verify books: %w", err)
	}
	return checks, nil
}

func compareBook(expected *store.Book, observed *bigbooks.BookDetails) []string {
	var problems []string
	if observed.Title != expected.Title {
		problems = append(problems, fmt.Sprintf("title %q != %q", observed.Title, expected.Title))
	}
	if observed.Author != expected.Author {
		problems = append(problems, fmt.Sprintf("author %q != %q", observed.Author, expected.Author))
	}
	if observed.Genre != expected.Genre {
		problems = append(problems, fmt.Sprintf("genre %s != %s", observed.Genre, expected.Genre))
	}
	if observed.Isbn != expected.Isbn {
		problems = append(problems, fmt.Sprintf("isbn %q != %q", observed.Isbn, expected.Isbn))
	}
	return problems
}
