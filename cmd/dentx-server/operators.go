package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/operator"
)

func operatorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operators",
		Short: "Manage the exposure operator roster",
	}

	importCmd := &cobra.Command{
		Use:   "import <roster.yaml>",
		Short: "Create or update operators from a YAML roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			roster, err := operator.ParseRoster(f)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Roster is readable: %d operator(s).\n", len(roster.Operators))
				return nil
			}

			return withOperators(func(ctx context.Context, svc *operator.Service) error {
				res, err := svc.Import(ctx, roster)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported roster: %d created, %d updated.\n", res.Created, res.Updated)
				return nil
			})
		},
	}
	importCmd.Flags().Bool("dry-run", false, "Parse the roster without writing")
	cmd.AddCommand(importCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List operators",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			return withOperators(func(ctx context.Context, svc *operator.Service) error {
				ops, err := svc.List(ctx, !all)
				if err != nil {
					return err
				}
				printOperators(cmd.OutOrStdout(), ops)
				return nil
			})
		},
	}
	listCmd.Flags().Bool("all", false, "Include inactive operators")
	cmd.AddCommand(listCmd)

	return cmd
}

func withOperators(fn func(ctx context.Context, svc *operator.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := openStore(ctx, cfg, zerolog.Nop())
	if err != nil {
		return err
	}
	defer store.close(ctx)

	return fn(ctx, operator.NewService(store.operators))
}

func printOperators(w io.Writer, ops []*operator.Operator) {
	fmt.Fprintf(w, "%-36s %-20s %-12s %s\n", "ID", "NAME", "ROLE", "ACTIVE")
	for _, o := range ops {
		fmt.Fprintf(w, "%-36s %-20s %-12s %t\n", o.ID, o.Name, o.Role, o.IsActive())
	}
}
