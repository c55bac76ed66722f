package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/watchthis/user-service/internal/auth"
	"github.com/watchthis/user-service/internal/config"
	"github.com/watchthis/user-service/internal/database"
	"github.com/watchthis/user-service/internal/database/users"
	"github.com/watchthis/user-service/internal/entities"
)

// PasswordEnv supplies a password to user commands when --password is omitted.
const PasswordEnv = "USER_PASSWORD"

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUserCreateCommand())
	cmd.AddCommand(newUserDeleteCommand())
	cmd.AddCommand(newUserPasswdCommand())
	cmd.AddCommand(newUserListCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := resolvePassword(password)
			if err != nil {
				return err
			}

			username := args[0]
			if problems := append(auth.ValidateUsername(username), auth.ValidatePassword(password)...); len(problems) > 0 {
				return errors.Join(problems...)
			}

			return withStore(func(store *auth.Service) error {
				user, err := store.CreateUser(cmd.Context(), username, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for the new user (default $"+PasswordEnv+")")
	return cmd
}

func newUserDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|username>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *auth.Service) error {
				user, err := lookupUser(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if err := store.DeleteUser(cmd.Context(), user.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s (%s)\n", user.Username, user.ID)
				return nil
			})
		},
	}
}

func newUserPasswdCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := resolvePassword(password)
			if err != nil {
				return err
			}
			if problems := auth.ValidatePassword(password); len(problems) > 0 {
				return errors.Join(problems...)
			}

			return withStore(func(store *auth.Service) error {
				user, err := lookupUser(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if err := store.UpdatePassword(cmd.Context(), user, password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated password for %s\n", user.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (default $"+PasswordEnv+")")
	return cmd
}

func newUserListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *auth.Service) error {
				list, err := store.ListUsers(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
				for _, u := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}
}

func resolvePassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(PasswordEnv); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("password required: pass --password or set %s", PasswordEnv)
}

// lookupUser resolves a user by id first, then by username.
func lookupUser(ctx context.Context, store *auth.Service, ref string) (*entities.User, error) {
	user, err := store.FindByID(ctx, ref)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, auth.ErrUserNotFound) {
		return nil, err
	}

	user, err = store.FindByUsername(ctx, ref)
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, fmt.Errorf("user %q not found", ref)
	}
	return user, err
}

// withStore opens the configured database for the duration of fn.
func withStore(fn func(store *auth.Service) error) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(auth.NewService(users.NewRepository(db.DB), cfg.Auth))
}
