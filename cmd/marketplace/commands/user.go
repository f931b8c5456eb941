package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/99minutos/share-marketplace/internal/core/ports"
	"github.com/99minutos/share-marketplace/internal/core/service"
	"github.com/99minutos/share-marketplace/internal/infrastructure/storage"
	"github.com/99minutos/share-marketplace/pkg/logger"
)

// NewUserCmd returns the `user` command tree. Users are only created from the
// command line; the HTTP API has no registration route.
func NewUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage marketplace users",
	}
	userCmd.AddCommand(newUserCreateCmd())
	return userCmd
}

func newUserCreateCmd() *cobra.Command {
	var in ports.CreateUserInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a buyer or owner",
		Example: "  marketplace user create --username alice --password s3cret --role owner\n" +
			"  marketplace user create --username bob --password s3cret --role buyer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.Open(cmd.Context(), cfg, logger.Component("storage"))
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			users := service.NewAuthService(store.Users, cfg.Auth.BcryptCost, logger.Component("auth"))
			user, err := users.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q (id %d)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "login name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password, hashed with bcrypt before storage")
	cmd.Flags().StringVar(&in.Role, "role", "buyer", "buyer or owner")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
