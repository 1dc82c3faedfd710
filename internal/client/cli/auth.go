package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/ledgersync/internal/config"
)

// PasswordEnv - переменная окружения с паролем для неинтерактивного входа.
const PasswordEnv = config.EnvPrefix + "PASSWORD"

// CredentialOptions - флаги register и login.
type CredentialOptions struct {
	*RootOptions
	Username     string
	PasswordFile string
}

func addCredentialFlags(cmd *cobra.Command, opts *CredentialOptions) {
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringVar(&opts.PasswordFile, "password-file", "", "read the password from a file")
}

// readCredentials собирает логин и пароль. Пароль берется по приоритету:
// файл из --password-file, переменная LEDGERSYNC_PASSWORD, ввод с терминала.
func readCredentials(app *App, opts *CredentialOptions, confirm bool) (string, string, error) {
	username := opts.Username
	if username == "" {
		var err error
		username, err = app.Prompt.ReadLine("Username: ")
		if err != nil {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
	}

	if opts.PasswordFile != "" {
		b, err := os.ReadFile(opts.PasswordFile)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password file: %w", err)
		}
		return username, strings.TrimRight(string(b), "\r\n"), nil
	}
	if p, ok := os.LookupEnv(PasswordEnv); ok && p != "" {
		return username, p, nil
	}

	password, err := app.Prompt.ReadPassword("Password (min 12 chars): ")
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	if confirm {
		again, err := app.Prompt.ReadPassword("Confirm password: ")
		if err != nil {
			return "", "", fmt.Errorf("failed to read confirmation: %w", err)
		}
		if again != password {
			return "", "", fmt.Errorf("passwords do not match")
		}
	}
	return username, password, nil
}

func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CredentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *App) error {
				return runRegister(ctx, app, opts)
			})
		},
	}
	addCredentialFlags(cmd, opts)
	return cmd
}

func runRegister(ctx context.Context, app *App, opts *CredentialOptions) error {
	username, password, err := readCredentials(app, opts, true)
	if err != nil {
		return err
	}

	result, err := app.Auth.Register(ctx, username, password)
	if err != nil {
		return err
	}

	return app.Out.Print(result, func(w io.Writer) {
		fmt.Fprintln(w, "=== Registration ===")
		fmt.Fprintln(w, "✓ Registration successful!")
		fmt.Fprintf(w, "User ID: %s\n", result.UserID)
		fmt.Fprintf(w, "Username: %s\n", result.Username)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Please run 'ledgersync login' to start syncing.")
	})
}

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CredentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *App) error {
				return runLogin(ctx, app, opts)
			})
		},
	}
	addCredentialFlags(cmd, opts)
	return cmd
}

func runLogin(ctx context.Context, app *App, opts *CredentialOptions) error {
	username, password, err := readCredentials(app, opts, false)
	if err != nil {
		return err
	}

	session, err := app.Auth.Login(ctx, username, password)
	if err != nil {
		return err
	}

	expiresAt := time.Unix(session.ExpiresAt, 0).UTC()
	out := map[string]any{
		"username":   session.Username,
		"user_id":    session.UserID,
		"expires_at": expiresAt,
	}
	return app.Out.Print(out, func(w io.Writer) {
		fmt.Fprintln(w, "=== Login ===")
		fmt.Fprintln(w, "✓ Login successful!")
		fmt.Fprintf(w, "User ID: %s\n", session.UserID)
		fmt.Fprintf(w, "Token expires: %s\n", expiresAt.Format(time.RFC3339))
	})
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Auth.Logout(ctx); err != nil {
					return err
				}
				return app.Out.Print(map[string]bool{"logged_out": true}, func(w io.Writer) {
					fmt.Fprintln(w, "✓ Logged out")
				})
			})
		},
	}
}
