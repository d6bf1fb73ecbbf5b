package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/swapboard/internal/common"
	"github.com/dmitrijs2005/swapboard/internal/server/models"
	"github.com/dmitrijs2005/swapboard/internal/server/repositories/listings"
	"github.com/dmitrijs2005/swapboard/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

func (a *App) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the posts table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(cmd.Context(), func(m *repomanager.Manager) error {
				if err := m.RunMigrations(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "migrated (%s)\n", m.Dialect())
				return nil
			})
		},
	}
}

func (a *App) listCmd() *cobra.Command {
	var size string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(cmd.Context(), func(m *repomanager.Manager) error {
				ls, err := listFiltered(cmd.Context(), m.Listings(), size)
				if err != nil {
					return err
				}
				return printTable(a, ls)
			})
		},
	}

	cmd.Flags().StringVar(&size, "size", "", "only listings whose wanted size equals this value")
	return cmd
}

func listFiltered(ctx context.Context, repo listings.Repository, size string) ([]*models.Listing, error) {
	if size == "" {
		return repo.ListAll(ctx)
	}
	return repo.ListByWantedSize(ctx, size)
}

func (a *App) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *repomanager.Manager) error {
				l, err := m.Listings().GetByID(cmd.Context(), ids[0])
				if errors.Is(err, common.ErrorNotFound) {
					return fmt.Errorf("listing %d: %w", ids[0], err)
				}
				if err != nil {
					return err
				}
				printListing(a, l)
				return nil
			})
		},
	}
}

func (a *App) completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID...",
		Short: "Mark listings as completed",
		Long:  "Mark listings as completed in one transaction. Unknown ids are ignored.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *repomanager.Manager) error {
				err := m.WithTx(cmd.Context(), func(ctx context.Context, repo listings.Repository) error {
					for _, id := range ids {
						if err := repo.MarkCompleted(ctx, id); err != nil {
							return err
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "completed %d listing(s)\n", len(ids))
				return nil
			})
		},
	}
}

func printTable(a *App, ls []*models.Listing) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCATEGORY\tBRAND\tHAVE\tWANT\tIMAGE")
	for _, l := range ls {
		image := "-"
		if l.Image != nil {
			image = *l.Image
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s %s\t%s %s\t%s\n",
			l.ID, l.Status, l.Category, l.Brand,
			l.CurrentSide, l.CurrentSize, l.WantedSide, l.WantedSize, image)
	}
	return w.Flush()
}

func printListing(a *App, l *models.Listing) {
	image := "-"
	if l.Image != nil {
		image = *l.Image
	}
	fmt.Fprintf(a.out, "id:           %d\n", l.ID)
	fmt.Fprintf(a.out, "status:       %s\n", l.Status)
	fmt.Fprintf(a.out, "category:     %s\n", l.Category)
	fmt.Fprintf(a.out, "brand:        %s\n", l.Brand)
	fmt.Fprintf(a.out, "current:      %s %s\n", l.CurrentSide, l.CurrentSize)
	fmt.Fprintf(a.out, "wanted:       %s %s\n", l.WantedSide, l.WantedSize)
	fmt.Fprintf(a.out, "condition:    %s\n", l.Condition)
	fmt.Fprintf(a.out, "description:  %s\n", l.Description)
	fmt.Fprintf(a.out, "image:        %s\n", image)
}
