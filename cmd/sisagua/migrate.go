package main

import (
	"fmt"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/store"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the normalized schema in the destination store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := store.Open(ctx, storeOptions(true))
			if err != nil {
				return err
			}
			defer s.Close()

			for _, t := range domain.Tables {
				n, err := s.Count(ctx, t)
				if err != nil {
					return fmt.Errorf("count %s: %w", t.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %d\n", t.Name, n)
			}
			return nil
		},
	}
}
