package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/oremus-labs/bigbooks-relay/internal/format"
	"github.com/spf13/cobra"
)

func (a *app) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Read records straight from the local catalog database",
	}

	userCmd := &cobra.Command{
		Use:   "user <key>",
		Short: "Show a user row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			u, err := st.GetUser(key)
			if err != nil {
				return err
			}
			return a.render(u, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "KEY\tEMAIL\tNAME\tROLE\tACTIVE\tWALLET\n")
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n", u.Key, u.UserEmail, orDash(u.UserName), u.Role, u.IsActive, format.USD(u.Wallet))
			})
		},
	}

	bookCmd := &cobra.Command{
		Use:   "book <key>",
		Short: "Show a book row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			b, err := st.GetBook(key)
			if err != nil {
				return err
			}
			return a.render(b, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "KEY\tTITLE\tAUTHOR\tGENRE\tISBN\tPRICE\tSTOCK\n")
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n", b.Key, b.Title, b.Author, b.Genre, orDash(b.Isbn), format.USD(b.Price), b.StockQuantity)
			})
		},
	}

	cmd.AddCommand(userCmd, bookCmd)
	return cmd
}
