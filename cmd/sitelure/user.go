package main

import (
	"errors"
	"fmt"

	"github.com/AthlureSolutions/sitelure/internal/auth"
	"github.com/AthlureSolutions/sitelure/internal/config"
	"github.com/AthlureSolutions/sitelure/internal/db"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email> <password>",
	Short: "Create an account without going through the API",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		database, err := db.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		resp, err := auth.NewPasswordAuthenticator(database, cfg.Auth).Register(args[0], args[1])
		if errors.Is(err, auth.ErrEmailTaken) {
			return fmt.Errorf("an account for %s already exists", args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "User created successfully!")
		fmt.Fprintf(out, "ID: %s\n", resp.User.ID)
		fmt.Fprintf(out, "Email: %s\n", resp.User.Email)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
}
