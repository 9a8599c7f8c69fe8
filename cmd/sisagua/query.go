package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/service/console"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newQueryCmd() *cobra.Command {
	var (
		preset      string
		params      map[string]string
		format      string
		out         string
		listPresets bool
	)

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run one read-only query over the exported tables and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if listPresets {
				for _, p := range c.Presets() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", p.Name, p.Title)
				}
				return nil
			}

			var res *domain.QueryResult
			switch {
			case preset != "" && len(args) == 1:
				return fmt.Errorf("give either a query or --preset, not both")
			case preset != "":
				res, err = c.RunPreset(ctx, preset, params)
			case len(args) == 1:
				res, err = c.Run(ctx, args[0])
			default:
				return fmt.Errorf("query or --preset required")
			}
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if err = console.Encode(w, format, res); err != nil {
				return err
			}
			if res.Truncated {
				fmt.Fprintf(cmd.ErrOrStderr(), "result truncated to %d rows\n", len(res.Rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "run a predefined query by name")
	cmd.Flags().StringToStringVar(&params, "param", nil, "preset parameter, name=value (repeatable)")
	cmd.Flags().StringVar(&format, "format", console.FormatCSV, "output format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&listPresets, "list-presets", false, "list predefined queries")
	addConsoleFlags(cmd)

	return cmd
}

func addConsoleFlags(cmd *cobra.Command) {
	cmd.Flags().String("dir", "dados", "directory with the exported tables")
	cmd.Flags().StringSlice("encodings", console.DefaultEncodings, "encodings tried in order when loading files")
}

// newConsole binds the console flags of cmd at run time: query and serve share the keys.
func newConsole(cmd *cobra.Command) (*console.Console, error) {
	_ = viper.BindPFlag(constants.ViperConsoleDir, cmd.Flags().Lookup("dir"))
	_ = viper.BindPFlag(constants.ViperConsoleEncodings, cmd.Flags().Lookup("encodings"))

	return console.NewConsole(cmd.Context(), console.Options{
		Dir:          viper.GetString(constants.ViperConsoleDir),
		Encodings:    viper.GetStringSlice(constants.ViperConsoleEncodings),
		MaxRows:      viper.GetInt(constants.ViperConsoleMaxRows),
		QueryTimeout: viper.GetDuration(constants.ViperConsoleQueryTimeout),
	})
}
