package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/format"
	"github.com/oremus-labs/bigbooks-relay/internal/randomdata"
	"github.com/spf13/cobra"
)

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"accounts"},
		Short:   "Inspect and manage accounts",
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			env := a.api.GetUserDetails(cmd.Context(), a.creds(), key)
			if err := envelopeError(fmt.Sprintf("get user %d", key), env); err != nil {
				return err
			}
			return a.renderUser(*env.Data)
		},
	}

	meCmd := &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := a.api.GetCurrentUserDetails(cmd.Context(), a.creds())
			if err := envelopeError("get current user", env); err != nil {
				return err
			}
			return a.renderUser(*env.Data)
		},
	}

	var (
		email, name, newPassword string
		wallet                   float64
		admin, inactive, random  bool
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var user bigbooks.UserAddUpdate
			if random {
				user = randomdata.Default().UserAddUpdate(a.cfg.DefaultPassword)
			} else {
				if email == "" {
					return fmt.Errorf("--email is required unless --random is set")
				}
				user = bigbooks.UserAddUpdate{
					UserEmail: email,
					UserName:  name,
					Password:  newPassword,
					IsActive:  !inactive,
					Wallet:    wallet,
				}
				if user.Password == "" {
					user.Password = a.cfg.DefaultPassword
				}
				if admin {
					user.Role = bigbooks.RoleAdmin
				}
			}
			env := a.api.AddUser(cmd.Context(), a.creds(), user)
			if err := envelopeError("add user", env); err != nil {
				return err
			}
			return a.renderUser(*env.Data)
		},
	}
	addCmd.Flags().StringVar(&email, "email", "", "Account email")
	addCmd.Flags().StringVar(&name, "name", "", "Display name")
	addCmd.Flags().StringVar(&newPassword, "new-password", "", "Password for the new account (default: defaultUserPassword)")
	addCmd.Flags().Float64Var(&wallet, "wallet", 0, "Opening wallet balance")
	addCmd.Flags().BoolVar(&admin, "admin", false, "Create an administrator")
	addCmd.Flags().BoolVar(&inactive, "inactive", false, "Create the account disabled")
	addCmd.Flags().BoolVar(&random, "random", false, "Generate a random customer account")

	var (
		updName, updEmail string
		updWallet         float64
		updAdmin          bool
		updInactive       bool
	)
	updateCmd := &cobra.Command{
		Use:   "update <key>",
		Short: "Update an account (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			user := bigbooks.UserAddUpdate{
				UserEmail: updEmail,
				UserName:  updName,
				IsActive:  !updInactive,
				Wallet:    updWallet,
			}
			if updAdmin {
				user.Role = bigbooks.RoleAdmin
			}
			env := a.api.UpdateUser(cmd.Context(), a.creds(), key, user)
			if err := envelopeError(fmt.Sprintf("update user %d", key), env); err != nil {
				return err
			}
			return a.renderUser(*env.Data)
		},
	}
	updateCmd.Flags().StringVar(&updName, "name", "", "New display name")
	updateCmd.Flags().StringVar(&updEmail, "email", "", "New email")
	updateCmd.Flags().Float64Var(&updWallet, "wallet", 0, "Wallet balance")
	updateCmd.Flags().BoolVar(&updAdmin, "admin", false, "Make the account an administrator")
	updateCmd.Flags().BoolVar(&updInactive, "inactive", false, "Disable the account")

	cmd.AddCommand(getCmd, meCmd, addCmd, updateCmd)
	return cmd
}

func (a *app) renderUser(u bigbooks.UserDetails) error {
	return a.render(u, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "KEY\tEMAIL\tNAME\tROLE\tACTIVE\tWALLET\tTRANSACTIONS\n")
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\t%d\n",
			u.Key,
			u.UserEmail,
			orDash(u.UserName),
			u.Role,
			u.IsActive,
			format.USD(u.Wallet),
			len(u.Transactions))
	})
}

func parseKey(raw string) (int, error) {
	key, err := strconv.Atoi(raw)
	if err != nil || key <= 0 {
		return 0, fmt.Errorf("invalid key %q", raw)
	}
	return key, nil
}
