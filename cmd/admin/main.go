package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/theta-web/internal/config"
	"github.com/iliyamo/theta-web/internal/database"
	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/repository"
	"github.com/iliyamo/theta-web/internal/service"
	"github.com/iliyamo/theta-web/internal/utils"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "theta-admin: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theta-admin",
		Short: "Operator tasks for the admin account",
		Long: `theta-admin creates the first admin account and resets forgotten passwords.
It talks to the database directly; neither operation is reachable over HTTP.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newInitCmd(), newResetPasswordCmd())
	return cmd
}

func newInitCmd() *cobra.Command {
	var username, password, email string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the first admin account (refused once an admin exists)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd.Context(), func(accounts *service.AccountService) error {
				id, err := accounts.Bootstrap(cmd.Context(), username, passwordOrEnv(password), email)
				if errors.Is(err, service.ErrAlreadyBootstrapped) {
					return fmt.Errorf("an admin account already exists; use reset-password instead")
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d)\n", username, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "admin", "Admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Admin password (defaults to $ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&email, "email", "", "Optional contact address")
	return cmd
}

func newResetPasswordCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Replace the password of an existing admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd.Context(), func(accounts *service.AccountService) error {
				if err := accounts.ResetPassword(cmd.Context(), username, passwordOrEnv(password)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "password for %q updated\n", username)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "admin", "Admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password (defaults to $ADMIN_PASSWORD)")
	return cmd
}

// passwordOrEnv keeps passwords out of shell history when the flag is
// omitted.
func passwordOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("ADMIN_PASSWORD")
}

// withAccounts opens the database, applies migrations and hands an
// AccountService to fn.
func withAccounts(ctx context.Context, fn func(*service.AccountService) error) error {
	cfg := config.Load()
	log, err := logger.New(logger.Options{Environment: cfg.Env, Level: "warn", Service: "theta-admin"})
	if err != nil {
		return err
	}
	defer log.Sync()

	issuer, err := utils.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(database.MigrationURL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)); err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	return fn(service.NewAccountService(repository.NewAdminRepo(db), issuer, cfg.BcryptCost, log, nil))
}
