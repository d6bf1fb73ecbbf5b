// Package cli implements boardctl, the operator's command line for the board
// database: apply migrations, inspect listings and close them out.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/swapboard/internal/common"
	"github.com/dmitrijs2005/swapboard/internal/server/repositories/repomanager"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	defaultDSN = "database.db"
	envFile    = ".env"
)

type App struct {
	dsn string
	out io.Writer
}

// NewRootCmd builds the boardctl command tree. The DSN resolves the same way
// as for the server: --dsn, then DATABASE_DSN (environment or .env), then
// the default file.
func NewRootCmd() *cobra.Command {
	a := &App{}

	cmd := &cobra.Command{
		Use:           "boardctl",
		Short:         "Administer the swap board database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			return a.resolveDSN(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.dsn, "dsn", defaultDSN, "SQLite path or postgres:// URL (default: $DATABASE_DSN)")

	cmd.AddCommand(
		a.migrateCmd(),
		a.listCmd(),
		a.showCmd(),
		a.completeCmd(),
	)

	return cmd
}

func (a *App) resolveDSN(cmd *cobra.Command) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	if cmd.Flags().Changed("dsn") {
		return nil
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		a.dsn = v
	}
	return nil
}

func (a *App) withManager(ctx context.Context, fn func(m *repomanager.Manager) error) error {
	m, err := repomanager.Open(ctx, a.dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.dsn, err)
	}
	defer m.Close()

	return fn(m)
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := common.ParseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
