package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/store"
	"github.com/ougirez/sisagua/internal/service/ingest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Normalize a SISAGUA CSV file into the destination store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			file := viper.GetString(constants.ViperIngestFile)
			if len(args) == 1 {
				file = args[0]
			}
			if file == "" {
				return fmt.Errorf("source file required")
			}

			delimiter, err := parseDelimiter(viper.GetString(constants.ViperIngestDelimiter))
			if err != nil {
				return err
			}
			policy, err := ingest.ParsePolicy(viper.GetString(constants.ViperIngestPolicy))
			if err != nil {
				return err
			}

			s, err := store.Open(ctx, storeOptions(true))
			if err != nil {
				return err
			}
			defer s.Close()

			svc, err := ingest.NewIngestService(s, ingest.Options{Delimiter: delimiter, Policy: policy}, prometheus.NewRegistry())
			if err != nil {
				return err
			}

			report, err := svc.IngestFile(ctx, file)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	cmd.Flags().String("delimiter", ",", `field delimiter: a single character, "tab", "comma" or "semicolon"`)
	cmd.Flags().String("policy", string(ingest.PolicyBestEffort), "failure policy: best-effort or all-or-nothing")
	_ = viper.BindPFlag(constants.ViperIngestDelimiter, cmd.Flags().Lookup("delimiter"))
	_ = viper.BindPFlag(constants.ViperIngestPolicy, cmd.Flags().Lookup("policy"))

	return cmd
}

func printReport(w io.Writer, r *ingest.Report) {
	fmt.Fprintf(w, "run %s (%s): %d rows read, %d applied, %d failed\n", r.RunID, r.Policy, r.Rows, r.Applied, len(r.Errors))

	tables := make([]string, 0, len(r.Entities))
	for name := range r.Entities {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for _, name := range tables {
		st := r.Entities[name]
		fmt.Fprintf(w, "  %-22s inserted %6d  skipped %6d\n", name, st.Inserted, st.Skipped)
	}

	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
}
