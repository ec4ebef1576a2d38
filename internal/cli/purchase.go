package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/format"
	"github.com/spf13/cobra"
)

func (a *app) purchaseCmd() *cobra.Command {
	var req bigbooks.PurchaseRequest
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Buy copies of a book with the account wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.BookKey <= 0 || req.RequestedQuantity <= 0 {
				return fmt.Errorf("--book and a positive --quantity are required")
			}
			env := a.api.PurchaseBooks(cmd.Context(), a.creds(), req)
			if err := envelopeError(fmt.Sprintf("purchase book %d", req.BookKey), env); err != nil {
				return err
			}
			u := *env.Data
			return a.render(u, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "TRANSACTION\tDATE\tTYPE\tBOOK\tQUANTITY\n")
				for _, t := range u.Transactions {
					book, qty := "-", "-"
					if t.PurchaseBookKey != nil {
						book = fmt.Sprint(*t.PurchaseBookKey)
					}
					if t.PurchaseQuantity != nil {
						qty = fmt.Sprint(*t.PurchaseQuantity)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.TransactionKey, t.TransactionDate, t.TransactionType, book, qty)
				}
				fmt.Fprintf(tw, "\nWallet:\t%s\n", format.USD(u.Wallet))
			})
		},
	}
	cmd.Flags().IntVar(&req.BookKey, "book", 0, "Book key")
	cmd.Flags().IntVar(&req.RequestedQuantity, "quantity", 1, "Number of copies")
	return cmd
}
