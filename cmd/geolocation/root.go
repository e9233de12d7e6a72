package main

import (
	"io"
	"log/slog"

	"github.com/TomasB/geolocation/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	vip := config.New()
	var configFile string

	serve := newServeCmd(vip, &configFile)

	root := &cobra.Command{
		Use:          "geolocation",
		Short:        "Resolve IP addresses to countries over HTTP and gRPC",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	// serve is the default command, so its flags are accepted on the root too.
	root.Flags().AddFlagSet(serve.Flags())

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "path to a config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("engine", "mmdb", "lookup engine: mmdb or ip2location")
	flags.String("mmdb-path", "", "path to the MaxMind country database")
	flags.String("ip2location-path", "", "path to the IP2Location BIN database")
	flags.Int("batch-concurrency", 8, "lookups run in parallel per batch request")

	bindFlags(vip, root, map[string]string{
		"log_level":         "log-level",
		"engine":            "engine",
		"mmdb_path":         "mmdb-path",
		"ip2location_path":  "ip2location-path",
		"batch_concurrency": "batch-concurrency",
	})

	root.AddCommand(serve, newLookupCmd(vip, &configFile))
	return root
}

// bindFlags binds viper keys to persistent flags. A flag only overrides the
// environment when set explicitly.
func bindFlags(vip *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if err := vip.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// setupLogger installs the JSON slog handler as the default logger.
func setupLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}
