package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/ledgersync/internal/client/data"
	"github.com/iudanet/ledgersync/internal/models"
)

func entityTypeNames() string {
	names := make([]string, 0, len(models.EntityTypes))
	for _, t := range models.EntityTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, "|")
}

func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <type> key=value...",
		Short: "Create an entity locally and queue it for sync",
		Long: `Create an entity from key=value pairs. The id is generated when omitted.

Examples:
  ledgersync add account name=Cash currency=EUR account_type=1 balance=100
  ledgersync add transaction book_id=b1 account_id=a1 amount=12.50 date=2026-05-10 type=1 'tags=["food"]'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := models.ParseEntityType(args[0])
			if err != nil {
				return fmt.Errorf("%w (expected %s)", err, entityTypeNames())
			}
			fields, err := data.ParseFields(args[1:])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				entity, err := app.Data.Add(ctx, entityType, fields)
				if err != nil {
					return err
				}
				return app.Out.Print(entity, func(w io.Writer) {
					fmt.Fprintf(w, "✓ %s %s saved locally\n", entityType, entity.EntityID())
					fmt.Fprintln(w, "Run 'ledgersync sync' to send it to the server.")
				})
			})
		},
	}
}

func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <type> <id> key=value...",
		Short: "Change fields of an entity",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := models.ParseEntityType(args[0])
			if err != nil {
				return err
			}
			fields, err := data.ParseFields(args[2:])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				entity, err := app.Data.Update(ctx, entityType, args[1], fields)
				if err != nil {
					return err
				}
				return app.Out.Print(entity, func(w io.Writer) {
					fmt.Fprintf(w, "✓ %s %s updated\n", entityType, entity.EntityID())
				})
			})
		},
	}
}

func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete an entity (a tombstone is synced)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := models.ParseEntityType(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Data.Delete(ctx, entityType, args[1]); err != nil {
					return err
				}
				return app.Out.Print(map[string]string{"deleted": args[1]}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ %s %s deleted\n", entityType, args[1])
				})
			})
		},
	}
}

func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Show one entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := models.ParseEntityType(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				entity, err := app.Data.Get(ctx, entityType, args[1])
				if err != nil {
					return err
				}
				return app.Out.Print(entity, func(w io.Writer) {
					printEntity(w, entityType, entity)
				})
			})
		},
	}
}

func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <type>",
		Short: "List entities of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := models.ParseEntityType(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				entities, err := app.Data.List(ctx, entityType)
				if err != nil {
					return err
				}
				return app.Out.Print(entities, func(w io.Writer) {
					fmt.Fprintf(w, "=== %s (%d) ===\n", entityType.Resource(), len(entities))
					if len(entities) == 0 {
						fmt.Fprintln(w, "No entries found.")
						return
					}
					for _, e := range entities {
						fmt.Fprintf(w, "  %s  %s\n", e.EntityID(), summary(e))
					}
				})
			})
		},
	}
}

func NewBalanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Compute the account balance from local transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				balance, err := app.Data.Balance(ctx, args[0])
				if err != nil {
					return err
				}
				out := map[string]string{"account_id": args[0], "balance": balance}
				return app.Out.Print(out, func(w io.Writer) {
					fmt.Fprintf(w, "Balance of %s: %s\n", args[0], balance)
				})
			})
		},
	}
}

// summary - однострочное описание сущности для list.
func summary(e models.Entity) string {
	switch v := e.(type) {
	case *models.Transaction:
		return fmt.Sprintf("%s  %s  %s", v.Date, v.Amount, v.Note)
	case *models.Account:
		return fmt.Sprintf("%s  %s %s", v.Name, v.Balance, v.Currency)
	case *models.Category:
		return v.Name
	case *models.Book:
		return fmt.Sprintf("%s  %s", v.Name, v.Currency)
	case *models.Budget:
		return fmt.Sprintf("%s  %s/%s", v.Name, v.Amount, v.Period)
	default:
		return ""
	}
}

func printEntity(w io.Writer, entityType models.EntityType, e models.Entity) {
	fmt.Fprintf(w, "=== %s %s ===\n", entityType, e.EntityID())

	s, err := models.SnapshotOf(e)
	if err != nil {
		fmt.Fprintf(w, "⚠️  %v\n", err)
		return
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		if k != models.FieldID {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := json.Marshal(s[k])
		fmt.Fprintf(w, "%-18s %s\n", k+":", strings.Trim(string(v), `"`))
	}
}
