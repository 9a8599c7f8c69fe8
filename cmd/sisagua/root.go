package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"github.com/ougirez/sisagua/internal/pkg/store"
	"github.com/ougirez/sisagua/internal/service/console"
	"github.com/ougirez/sisagua/internal/service/ingest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "sisagua",
		Short:         "SISAGUA cyanobacteria dataset: normalizer, exporter and query console",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(configFile); err != nil {
				return err
			}
			return logger.Init(viper.GetString(constants.ViperLogLevel), viper.GetBool(constants.ViperLogDevelopment))
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./sisagua.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().String("db-driver", store.DriverSQLite, "destination store: sqlite or postgres")
	cmd.PersistentFlags().String("db-dsn", "sisagua.db", "destination store DSN")
	_ = viper.BindPFlag(constants.ViperLogLevel, cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(constants.ViperDBDriver, cmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag(constants.ViperDBDSN, cmd.PersistentFlags().Lookup("db-dsn"))

	cmd.AddCommand(
		newMigrateCmd(),
		newIngestCmd(),
		newExportCmd(),
		newFetchCmd(),
		newQueryCmd(),
		newServeCmd(),
		newTokenCmd(),
	)

	return cmd
}

func setDefaults() {
	viper.SetDefault(constants.ViperLogLevel, "info")
	viper.SetDefault(constants.ViperLogDevelopment, false)
	viper.SetDefault(constants.ViperDBDriver, store.DriverSQLite)
	viper.SetDefault(constants.ViperDBDSN, "sisagua.db")
	viper.SetDefault(constants.ViperIngestDelimiter, ",")
	viper.SetDefault(constants.ViperIngestPolicy, string(ingest.PolicyBestEffort))
	viper.SetDefault(constants.ViperExportDir, "dados")
	viper.SetDefault(constants.ViperFetchURL, "https://opendatasus.saude.gov.br/dataset/sisagua-vigilancia-cianobacterias-e-cianotoxinas")
	viper.SetDefault(constants.ViperFetchDir, "raw")
	viper.SetDefault(constants.ViperConsoleDir, "dados")
	viper.SetDefault(constants.ViperConsoleEncodings, console.DefaultEncodings)
	viper.SetDefault(constants.ViperConsoleMaxRows, constants.DefaultMaxRows)
	viper.SetDefault(constants.ViperConsoleQueryTimeout, constants.DefaultQueryTimeout)
	viper.SetDefault(constants.ViperAPIAddr, ":8080")
	viper.SetDefault(constants.ViperAPIAllowOrigins, []string{"http://localhost:3000"})
}

func initConfig(configFile string) error {
	setDefaults()

	viper.SetEnvPrefix("SISAGUA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("sisagua")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/sisagua")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func storeOptions(migrate bool) store.Options {
	return store.Options{
		Driver:  viper.GetString(constants.ViperDBDriver),
		DSN:     viper.GetString(constants.ViperDBDSN),
		Migrate: migrate,
	}
}

// parseDelimiter accepts a single character or the names "tab", "comma", "semicolon".
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	}

	rs := []rune(s)
	if len(rs) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return rs[0], nil
}
