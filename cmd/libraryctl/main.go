package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"libraryapi/internal/domain"
	"libraryapi/internal/seed"
	"libraryapi/pkg/factory"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Operator commands for the library API database",
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newCreateAdminCmd(),
		newPromoteCmd(),
	)
	return root
}

// withFactory builds the application factory, applies migrations and runs fn.
func withFactory(ctx context.Context, fn func(f factory.Factory) error) error {
	f, err := factory.NewFactory()
	if err != nil {
		return fmt.Errorf("application could not be initialized: %w", err)
	}
	defer f.Close()

	if err := f.GetMigrationService().RunMigrations(ctx); err != nil {
		return err
	}
	return fn(f)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFactory(cmd.Context(), func(factory.Factory) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, books and borrows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFactory(cmd.Context(), func(f factory.Factory) error {
				s := seed.NewSeeder(
					f.GetUserRepository(),
					f.GetBookRepository(),
					f.GetBorrowRepository(),
					f.GetTransactor(),
					f.GetLogger(),
				)
				res, err := s.Run(cmd.Context())
				if err != nil {
					return err
				}
				if res.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "Database already seeded")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d books, %d borrows\n", res.Users, res.Books, res.Borrows)
				return nil
			})
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(fmt.Sprintf("Enter password for %s: ", username))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			return withFactory(cmd.Context(), func(f factory.Factory) error {
				user, err := f.GetUserService().CreateAdmin(cmd.Context(), domain.RegisterRequest{
					Username: username,
					Email:    email,
					Password: password,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created with id %d\n", user.Username, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant administrator rights to an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFactory(cmd.Context(), func(f factory.Factory) error {
				if err := f.GetUserService().Promote(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", args[0])
				return nil
			})
		},
	}
}

// readPassword reads a password from the terminal without echo.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(b)), nil
}
