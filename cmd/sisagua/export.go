package main

import (
	"fmt"

	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/store"
	"github.com/ougirez/sisagua/internal/service/export"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every relation as a tab-separated file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var sink export.Sink
			if bucket := viper.GetString(constants.ViperExportS3Bucket); bucket != "" {
				s3Sink, err := export.NewS3Sink(ctx, export.S3Config{
					Bucket:   bucket,
					Prefix:   viper.GetString(constants.ViperExportS3Prefix),
					Region:   viper.GetString(constants.ViperExportS3Region),
					Endpoint: viper.GetString(constants.ViperExportS3Endpoint),
				})
				if err != nil {
					return err
				}
				sink = s3Sink
			} else {
				dirSink, err := export.NewDirSink(viper.GetString(constants.ViperExportDir))
				if err != nil {
					return err
				}
				sink = dirSink
			}

			s, err := store.Open(ctx, storeOptions(false))
			if err != nil {
				return err
			}
			defer s.Close()

			files, err := export.NewExportService(s, sink).Export(ctx)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %6d rows  %s\n", f.Table, f.Rows, f.Location)
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "dados", "output directory")
	cmd.Flags().String("s3-bucket", "", "upload to this S3 bucket instead of a directory")
	cmd.Flags().String("s3-prefix", "", "object key prefix")
	_ = viper.BindPFlag(constants.ViperExportDir, cmd.Flags().Lookup("dir"))
	_ = viper.BindPFlag(constants.ViperExportS3Bucket, cmd.Flags().Lookup("s3-bucket"))
	_ = viper.BindPFlag(constants.ViperExportS3Prefix, cmd.Flags().Lookup("s3-prefix"))

	return cmd
}
