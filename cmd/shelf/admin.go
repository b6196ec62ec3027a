package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/auth"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage blog editors",
	}
	cmd.AddCommand(adminCreateCmd())
	return cmd
}

func adminCreateCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin profile able to edit posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SHELF_ADMIN_PASSWORD")
			}
			if password == "" {
				return errors.New("a password is required (--password or SHELF_ADMIN_PASSWORD)")
			}

			storage, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer storage.Close()

			manager := auth.NewManager(storage.DB, auth.Options{}, logger.NewNop())
			p, err := manager.CreateProfile(cmd.Context(), email, name, password, true)
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("a profile with email %s already exists", email)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", p.Email, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email used to sign in")
	cmd.Flags().StringVar(&name, "name", "", "Full name shown as post author")
	cmd.Flags().StringVar(&password, "password", "", "Password (or SHELF_ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
