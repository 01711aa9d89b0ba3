package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			log.Info().Str("driver", cfg.DatabaseDriver).Msg("Database is up to date")
			return store.Close(cmd.Context())
		},
	}
}

func createAdminCommand() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing one",
		Long: "Creates an admin account with the given email. If the account already exists it is\n" +
			"promoted and its password is left unchanged. The password is read from\n" +
			"CIVIC_ADMIN_PASSWORD or, if unset, from the first line of standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			password, err := readPassword("CIVIC_ADMIN_PASSWORD")
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, auth.WithIssuer(cfg.JWTIssuer))
			if err != nil {
				return err
			}
			events := services.NewEventService(store.Events())
			users := services.NewUserService(store.Users(), auth.NewPasswordHasher(cfg.BcryptCost), tokens, events)

			user, err := users.EnsureAdmin(cmd.Context(), models.Registration{Email: email, FullName: name, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func hashPasswordCommand() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for a password",
		Args:  cobra.MaximumNArgs(1),
		// Hashing needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				var err error
				if password, err = readPassword(""); err != nil {
					return err
				}
			}
			start := time.Now()
			hash, err := auth.NewPasswordHasher(cost).Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			fmt.Fprintf(cmd.ErrOrStderr(), "hashed in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

// readPassword takes the password from envVar if set, else the first line of stdin.
func readPassword(envVar string) (string, error) {
	if envVar != "" {
		if p := os.Getenv(envVar); p != "" {
			return p, nil
		}
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given on standard input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
