package main

import (
	"fmt"

	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/service/fetch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newFetchCmd() *cobra.Command {
	var (
		listOnly bool
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the raw SISAGUA files linked from the open data portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := fetch.NewFetchService(fetch.Options{Parallel: parallel})

			resources, err := svc.ListResources(ctx, viper.GetString(constants.ViperFetchURL))
			if err != nil {
				return err
			}
			if listOnly {
				for _, r := range resources {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.Format, r.Name, r.URL)
				}
				return nil
			}

			paths, err := svc.DownloadAll(ctx, resources, viper.GetString(constants.ViperFetchDir))
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listOnly, "list", false, "only list the resources found")
	cmd.Flags().IntVar(&parallel, "parallel", 2, "concurrent downloads")
	cmd.Flags().String("url", "", "dataset page URL")
	cmd.Flags().String("dir", "raw", "download directory")
	_ = viper.BindPFlag(constants.ViperFetchURL, cmd.Flags().Lookup("url"))
	_ = viper.BindPFlag(constants.ViperFetchDir, cmd.Flags().Lookup("dir"))

	return cmd
}
