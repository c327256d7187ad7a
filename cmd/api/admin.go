package main

import (
	"errors"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/georgemunganga/souq-backend/internal/config"
	"github.com/georgemunganga/souq-backend/internal/database"
	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

const emailFlag = "email"

var promoteFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "",
		Usage: "Email of the existing account to grant super-admin (required)",
	},
}

func newAdminCommand() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Platform administration tasks",
	}
	promote := &cobra.Command{
		Use:   "promote",
		Short: "Grant the super-admin role to an existing user",
		RunE:  promoteCommand,
	}
	cobraflags.RegisterMap(promote, promoteFlags)
	admin.AddCommand(promote)
	return admin
}

func promoteCommand(cmd *cobra.Command, _ []string) error {
	email := promoteFlags[emailFlag].GetString()
	if email == "" {
		return errors.New("--email is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	u, err := user.NewService(user.NewPostgresRepository(db)).Promote(cmd.Context(), email)
	if err != nil {
		return fmt.Errorf("promote %s: %w", email, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
	return nil
}
