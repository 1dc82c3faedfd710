// Package cli - командная строка клиента ledgersync на cobra.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/iudanet/ledgersync/internal/client/iocli"
)

// Build information, set by cmd/ledgersync from ldflags.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// ValidFormats - допустимые форматы вывода.
var ValidFormats = []string{FormatText, FormatJSON}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// Prompt заменяет терминал (тесты). nil - stdin/stderr.
	Prompt     iocli.Prompter
	ConfigPath string
	EnvFile    string
	ServerURL  string
	DBPath     string
	LogLevel   string
	Format     string
}

// NewRootCommand creates the root command of the ledgersync client.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions is NewRootCommand with preset options.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledgersync",
		Short: "Offline-first personal finance client",
		Long: `ledgersync keeps a local replica of your books, accounts and transactions.

Every change is written locally first and queued for the server; "sync" sends
the queue and pulls changes from your other devices, "watch" stays connected
and applies them as they arrive.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with LEDGERSYNC_* variables")
	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", "", "server URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to local database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json)")

	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewConflictsCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}
